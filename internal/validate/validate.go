// Package validate checks form input before it is sent anywhere. The same
// rules back the reference API's service layer.
package validate

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jaekwang-park/todo-console/internal/model"
)

// ErrInvalid is matched by every *Error.
var ErrInvalid = errors.New("invalid input")

const (
	passwordSpecials = "!@#$%^&*"
	weakPassword     = "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character."
)

// Error maps form fields to the first problem found with each.
type Error struct {
	Fields map[string]string
	order  []string
}

func (e *Error) Error() string {
	if e == nil || len(e.order) == 0 {
		return ErrInvalid.Error()
	}
	return e.Fields[e.order[0]]
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Field returns the message for one field, or "".
func (e *Error) Field(name string) string {
	return e.Fields[name]
}

type checker struct {
	err Error
}

func (c *checker) fail(field, msg string) {
	if _, ok := c.err.Fields[field]; ok {
		return
	}
	if c.err.Fields == nil {
		c.err.Fields = map[string]string{}
	}
	c.err.Fields[field] = msg
	c.err.order = append(c.err.order, field)
}

func (c *checker) required(field, value, msg string) bool {
	if strings.TrimSpace(value) == "" {
		c.fail(field, msg)
		return false
	}
	return true
}

func (c *checker) email(value string) {
	if !c.required("email", value, "Email is required") {
		return
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Name != "" || addr.Address != strings.TrimSpace(value) {
		c.fail("email", "Invalid email address")
	}
}

func (c *checker) role(value model.Role) {
	if !c.required("role", string(value), "Role is required") {
		return
	}
	if !value.IsValid() {
		c.fail("role", "Please select a valid role")
	}
}

func (c *checker) strongPassword(value string) {
	if !c.required("password", value, "Password is required") {
		return
	}
	if len(value) < 8 {
		c.fail("password", "Password must be at least 8 characters long")
		return
	}
	if !StrongPassword(value) {
		c.fail("password", weakPassword)
	}
}

func (c *checker) result() error {
	if len(c.err.order) == 0 {
		return nil
	}
	return &c.err
}

// StrongPassword reports whether p is at least eight characters drawn from
// letters, digits, '_' and !@#$%^&*, with at least one lowercase letter,
// one uppercase letter, one digit and one special character.
func StrongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		case r == '_':
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

// Task checks a task form. Title and description are compared trimmed.
func Task(in model.CreateTaskInput) error {
	var c checker
	c.required("title", in.Title, "Title is required")
	c.required("description", in.Description, "Description is required")
	if c.required("status", string(in.Status), "Status is required") && !in.Status.IsValid() {
		c.fail("status", "Please select a valid status")
	}
	if c.required("priority", string(in.Priority), "Priority is required") && !in.Priority.IsValid() {
		c.fail("priority", "Please select a valid priority")
	}
	if in.DueDate != "" {
		if _, err := time.Parse(model.DateLayout, in.DueDate); err != nil {
			c.fail("dueDate", "Due date must be a valid date (YYYY-MM-DD)")
		}
	}
	return c.result()
}

// NewUser checks a user create form.
func NewUser(in model.CreateUserInput) error {
	var c checker
	c.required("firstName", in.FirstName, "First name is required")
	c.required("lastName", in.LastName, "Last name is required")
	c.email(in.Email)
	c.strongPassword(in.Password)
	c.role(in.Role)
	return c.result()
}

// UserUpdate checks a user edit form. A blank password means the password
// is left unchanged.
func UserUpdate(in model.CreateUserInput) error {
	var c checker
	c.required("firstName", in.FirstName, "First name is required")
	c.required("lastName", in.LastName, "Last name is required")
	c.email(in.Email)
	if strings.TrimSpace(in.Password) != "" {
		c.strongPassword(in.Password)
	}
	c.role(in.Role)
	return c.result()
}

func Signin(in model.SigninInput) error {
	var c checker
	c.email(in.Email)
	if c.required("password", in.Password, "Password is required") && len(in.Password) < 6 {
		c.fail("password", "Password must be at least 6 characters long")
	}
	return c.result()
}

func Signup(in model.SignupInput) error {
	var c checker
	c.required("firstName", in.FirstName, "First name is required")
	c.required("lastName", in.LastName, "Last name is required")
	c.email(in.Email)
	c.strongPassword(in.Password)
	c.role(in.Role)
	return c.result()
}

// TaskPatch checks only the fields present in a partial task update.
func TaskPatch(in model.UpdateTaskInput) error {
	var c checker
	if in.Title != nil {
		c.required("title", *in.Title, "Title is required")
	}
	if in.Description != nil {
		c.required("description", *in.Description, "Description is required")
	}
	if in.Status != nil && !in.Status.IsValid() {
		c.fail("status", "Please select a valid status")
	}
	if in.Priority != nil && !in.Priority.IsValid() {
		c.fail("priority", "Please select a valid priority")
	}
	if in.DueDate != nil && *in.DueDate != "" {
		if _, err := time.Parse(model.DateLayout, *in.DueDate); err != nil {
			c.fail("dueDate", "Due date must be a valid date (YYYY-MM-DD)")
		}
	}
	return c.result()
}

// UserPatch checks only the fields present in a partial user update.
func UserPatch(in model.UpdateUserInput) error {
	var c checker
	if in.FirstName != nil {
		c.required("firstName", *in.FirstName, "First name is required")
	}
	if in.LastName != nil {
		c.required("lastName", *in.LastName, "Last name is required")
	}
	if in.Email != nil {
		c.email(*in.Email)
	}
	if in.Password != nil {
		c.strongPassword(*in.Password)
	}
	if in.Role != nil {
		c.role(*in.Role)
	}
	return c.result()
}
