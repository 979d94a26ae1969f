package model

type SignupInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
}

type SigninInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Envelope is the {message, data} wrapper used by mutation responses.
type Envelope[T any] struct {
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type MeResponse struct {
	User User `json:"user"`
}
