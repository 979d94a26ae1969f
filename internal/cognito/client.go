// Package cognito signs users up and in against an Amazon Cognito user pool.
package cognito

import "context"

// Client is the subset of the Cognito identity provider the API uses.
type Client interface {
	SignUp(ctx context.Context, input SignUpInput) (SignUpOutput, error)
	Login(ctx context.Context, input LoginInput) (AuthOutput, error)
}

type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type SignUpOutput struct {
	UserSub   string
	Confirmed bool
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthOutput holds the tokens of a successful authentication.
type AuthOutput struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
}
