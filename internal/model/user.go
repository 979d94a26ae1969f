package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

var Roles = []Role{RoleAdmin, RoleUser}

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID           string    `json:"_id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CognitoSub   string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) EntityID() string     { return u.ID }
func (u User) DisplayLabel() string { return u.FullName() }

func (u User) Ref() *UserRef {
	return &UserRef{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

type CreateUserInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
}

// UpdateUserInput carries only the fields being changed. Password stays nil
// unless a new one was typed.
type UpdateUserInput struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	Role      *Role   `json:"role,omitempty"`
}

func (in UpdateUserInput) IsEmpty() bool {
	return in.FirstName == nil && in.LastName == nil && in.Email == nil &&
		in.Password == nil && in.Role == nil
}

type UserListResponse struct {
	Message    string         `json:"message,omitempty"`
	Users      []User         `json:"users"`
	Pagination UserPagination `json:"pagination"`
}

type UserPagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalUsers  int `json:"totalUsers"`
}

func (r UserListResponse) Page() Page[User] {
	items := r.Users
	if items == nil {
		items = []User{}
	}
	return Page[User]{
		Items:     items,
		Total:     r.Pagination.TotalUsers,
		Page:      r.Pagination.CurrentPage,
		PageCount: r.Pagination.TotalPages,
	}
}

func NewUserListResponse(message string, p Page[User]) UserListResponse {
	items := p.Items
	if items == nil {
		items = []User{}
	}
	return UserListResponse{
		Message: message,
		Users:   items,
		Pagination: UserPagination{
			CurrentPage: p.Page,
			TotalPages:  p.PageCount,
			TotalUsers:  p.Total,
		},
	}
}
