package handler

import (
	"net/http"

	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	user, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, model.Envelope[model.User]{
		Message: "User registered successfully",
		Data:    user,
	})
}

// Signin handles POST /signin.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req model.SigninInput
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.svc.Signin(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.Envelope[model.Tokens]{
		Message: "Signed in successfully",
		Data:    tokens,
	})
}
