package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jaekwang-park/todo-console/internal/cognito"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/repository"
	"github.com/jaekwang-park/todo-console/internal/validate"
)

var errBadCredentials = fmt.Errorf("%w: Invalid email or password", ErrUnauthorized)

// AuthService signs users up and in. With a nil identity provider accounts
// are local: bcrypt hashes in the user store and HS256 tokens from Tokens.
// Otherwise Cognito owns the credentials and the store keeps a profile
// keyed by the Cognito subject.
type AuthService struct {
	users  repository.UserRepository
	idp    cognito.Client
	tokens *Tokens
	hasher PasswordHasher
}

func NewAuthService(users repository.UserRepository, idp cognito.Client, tokens *Tokens, hasher PasswordHasher) *AuthService {
	return &AuthService{users: users, idp: idp, tokens: tokens, hasher: hasher}
}

func (s *AuthService) Signup(ctx context.Context, input model.SignupInput) (model.User, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validate.Signup(input); err != nil {
		return model.User{}, err
	}

	user := model.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Role:      input.Role,
	}
	if s.idp != nil {
		out, err := s.idp.SignUp(ctx, cognito.SignUpInput{
			Email:     input.Email,
			Password:  input.Password,
			FirstName: input.FirstName,
			LastName:  input.LastName,
		})
		if err != nil {
			return model.User{}, err
		}
		user.CognitoSub = out.UserSub
	} else {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return model.User{}, err
		}
		user.PasswordHash = hash
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.User{}, fmt.Errorf("%w: a user with this email already exists", ErrConflict)
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (s *AuthService) Signin(ctx context.Context, input model.SigninInput) (model.Tokens, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validate.Signin(input); err != nil {
		return model.Tokens{}, err
	}
	if s.idp != nil {
		return s.signinCognito(ctx, input)
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Tokens{}, errBadCredentials
		}
		return model.Tokens{}, fmt.Errorf("failed to get user: %w", err)
	}
	ok, err := s.hasher.Matches(user.PasswordHash, input.Password)
	if err != nil {
		return model.Tokens{}, err
	}
	if !ok {
		return model.Tokens{}, errBadCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: token}, nil
}

func (s *AuthService) signinCognito(ctx context.Context, input model.SigninInput) (model.Tokens, error) {
	out, err := s.idp.Login(ctx, cognito.LoginInput{Email: input.Email, Password: input.Password})
	if err != nil {
		return model.Tokens{}, err
	}

	// The ID token was just issued to us over TLS; its signature is checked
	// on every later request instead.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(out.IDToken, claims); err != nil {
		return model.Tokens{}, fmt.Errorf("failed to parse id token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return model.Tokens{}, errors.New("id token has no subject")
	}

	if _, err := s.users.GetOrCreate(ctx, sub, input.Email); err != nil {
		return model.Tokens{}, fmt.Errorf("failed to get or create user: %w", err)
	}
	// The ID token carries the app client audience the API verifies.
	return model.Tokens{AccessToken: out.IDToken, RefreshToken: out.RefreshToken}, nil
}
