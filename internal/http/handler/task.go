package handler

import (
	"net/http"

	"github.com/jaekwang-park/todo-console/internal/middleware"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/repository"
	"github.com/jaekwang-park/todo-console/internal/service"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	params := model.ParseListParams(r.URL.Query(), repository.TaskFilters...)

	page, err := h.svc.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.NewTaskListResponse("Tasks fetched successfully", page))
}

// Create handles POST /create/task.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTaskInput
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.svc.Create(r.Context(), middleware.GetUserID(r), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, model.Envelope[model.Task]{Message: "Task created successfully", Data: task})
}

// Update handles PATCH /task/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateTaskInput
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.svc.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.Envelope[model.Task]{Message: "Task updated successfully", Data: task})
}

// Delete handles DELETE /task/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.Envelope[*struct{}]{Message: "Task deleted successfully"})
}
