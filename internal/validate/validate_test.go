package validate_test

import (
	"errors"
	"testing"

	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/validate"
)

func validTask() model.CreateTaskInput {
	return model.CreateTaskInput{
		Title:       "Buy milk",
		Description: "Two liters",
		Status:      model.TaskStatusPending,
		Priority:    model.TaskPriorityHigh,
	}
}

func TestTask(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*model.CreateTaskInput)
		field  string
		want   string
	}{
		{"valid", func(*model.CreateTaskInput) {}, "", ""},
		{"valid with due date", func(in *model.CreateTaskInput) { in.DueDate = "2026-03-01" }, "", ""},
		{"blank title", func(in *model.CreateTaskInput) { in.Title = "   " }, "title", "Title is required"},
		{"missing description", func(in *model.CreateTaskInput) { in.Description = "" }, "description", "Description is required"},
		{"missing status", func(in *model.CreateTaskInput) { in.Status = "" }, "status", "Status is required"},
		{"unknown status", func(in *model.CreateTaskInput) { in.Status = "DONE" }, "status", "Please select a valid status"},
		{"unknown priority", func(in *model.CreateTaskInput) { in.Priority = "CRITICAL" }, "priority", "Please select a valid priority"},
		{"bad due date", func(in *model.CreateTaskInput) { in.DueDate = "03/01/2026" }, "dueDate", "Due date must be a valid date (YYYY-MM-DD)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validTask()
			tt.modify(&in)

			err := validate.Task(in)

			checkField(t, err, tt.field, tt.want)
		})
	}
}

func TestTask_ReportsEveryField(t *testing.T) {
	err := validate.Task(model.CreateTaskInput{})

	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *validate.Error", err)
	}
	if len(verr.Fields) != 4 {
		t.Errorf("got %d fields, want 4: %v", len(verr.Fields), verr.Fields)
	}
	if err.Error() != "Title is required" {
		t.Errorf("Error() = %q, want first field message", err.Error())
	}
	if !errors.Is(err, validate.ErrInvalid) {
		t.Error("expected errors.Is(err, ErrInvalid)")
	}
}

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Passw0rd!", true},
		{"Str0ng_pa$s", true},
		{"password1!", false},
		{"PASSWORD1!", false},
		{"Password!!", false},
		{"Password11", false},
		{"Pa0!", false},
		{"Passw0rd! ", false},
		{"Pässw0rd!", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			if got := validate.StrongPassword(tt.password); got != tt.want {
				t.Errorf("StrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func validUser() model.CreateUserInput {
	return model.CreateUserInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "Passw0rd!",
		Role:      model.RoleUser,
	}
}

func TestNewUser(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*model.CreateUserInput)
		field  string
		want   string
	}{
		{"valid", func(*model.CreateUserInput) {}, "", ""},
		{"missing first name", func(in *model.CreateUserInput) { in.FirstName = "" }, "firstName", "First name is required"},
		{"missing email", func(in *model.CreateUserInput) { in.Email = "" }, "email", "Email is required"},
		{"invalid email", func(in *model.CreateUserInput) { in.Email = "ada-at-example" }, "email", "Invalid email address"},
		{"email with display name", func(in *model.CreateUserInput) { in.Email = "Ada <ada@example.com>" }, "email", "Invalid email address"},
		{"blank password", func(in *model.CreateUserInput) { in.Password = "" }, "password", "Password is required"},
		{"short password", func(in *model.CreateUserInput) { in.Password = "Pa0!" }, "password", "Password must be at least 8 characters long"},
		{"weak password", func(in *model.CreateUserInput) { in.Password = "password" }, "password", "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character."},
		{"missing role", func(in *model.CreateUserInput) { in.Role = "" }, "role", "Role is required"},
		{"unknown role", func(in *model.CreateUserInput) { in.Role = "OWNER" }, "role", "Please select a valid role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validUser()
			tt.modify(&in)

			checkField(t, validate.NewUser(in), tt.field, tt.want)
		})
	}
}

func TestUserUpdate(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"blank password keeps current", "", ""},
		{"whitespace password keeps current", "   ", ""},
		{"new strong password", "N3w-Passw0rd!", "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character."},
		{"new valid password", "N3wPassw0rd!", ""},
		{"new short password", "abc", "Password must be at least 8 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validUser()
			in.Password = tt.password

			field := ""
			if tt.want != "" {
				field = "password"
			}
			checkField(t, validate.UserUpdate(in), field, tt.want)
		})
	}
}

func TestSignin(t *testing.T) {
	tests := []struct {
		name  string
		in    model.SigninInput
		field string
		want  string
	}{
		{"valid", model.SigninInput{Email: "ada@example.com", Password: "secret"}, "", ""},
		{"missing email", model.SigninInput{Password: "secret"}, "email", "Email is required"},
		{"missing password", model.SigninInput{Email: "ada@example.com"}, "password", "Password is required"},
		{"short password", model.SigninInput{Email: "ada@example.com", Password: "12345"}, "password", "Password must be at least 6 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkField(t, validate.Signin(tt.in), tt.field, tt.want)
		})
	}
}

func TestSignup(t *testing.T) {
	in := model.SignupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "Passw0rd!",
		Role:      model.RoleAdmin,
	}
	if err := validate.Signup(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.Password = "secret1"
	checkField(t, validate.Signup(in), "password", "Password must be at least 8 characters long")
}

func checkField(t *testing.T, err error, field, want string) {
	t.Helper()
	if field == "" {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	var verr *validate.Error
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *validate.Error", err)
	}
	if got := verr.Field(field); got != want {
		t.Errorf("field %s: got %q, want %q", field, got, want)
	}
}

func ptr[T any](v T) *T { return &v }

func TestTaskPatch(t *testing.T) {
	tests := []struct {
		name  string
		in    model.UpdateTaskInput
		field string
		want  string
	}{
		{"empty patch", model.UpdateTaskInput{}, "", ""},
		{"status only", model.UpdateTaskInput{Status: ptr(model.TaskStatusBlocker)}, "", ""},
		{"cleared due date", model.UpdateTaskInput{DueDate: ptr("")}, "", ""},
		{"blank title", model.UpdateTaskInput{Title: ptr("  ")}, "title", "Title is required"},
		{"bad priority", model.UpdateTaskInput{Priority: ptr(model.TaskPriority("SOMEDAY"))}, "priority", "Please select a valid priority"},
		{"bad due date", model.UpdateTaskInput{DueDate: ptr("tomorrow")}, "dueDate", "Due date must be a valid date (YYYY-MM-DD)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkField(t, validate.TaskPatch(tt.in), tt.field, tt.want)
		})
	}
}

func TestUserPatch(t *testing.T) {
	tests := []struct {
		name  string
		in    model.UpdateUserInput
		field string
		want  string
	}{
		{"role only", model.UpdateUserInput{Role: ptr(model.RoleAdmin)}, "", ""},
		{"bad email", model.UpdateUserInput{Email: ptr("nope")}, "email", "Invalid email address"},
		{"weak password", model.UpdateUserInput{Password: ptr("password")}, "password", "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character."},
		{"bad role", model.UpdateUserInput{Role: ptr(model.Role("ROOT"))}, "role", "Please select a valid role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkField(t, validate.UserPatch(tt.in), tt.field, tt.want)
		})
	}
}
