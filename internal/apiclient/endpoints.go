package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jaekwang-park/todo-console/internal/model"
)

var (
	taskFilters = []string{"status", "priority", "dueDate"}
	userFilters = []string{"role"}
)

func (c *Client) Signup(ctx context.Context, in model.SignupInput) (model.Envelope[model.User], error) {
	var out model.Envelope[model.User]
	err := c.do(ctx, request{method: http.MethodPost, path: "/signup", body: in, public: true}, &out)
	return out, err
}

// Signin exchanges credentials for tokens and stores them in the session.
func (c *Client) Signin(ctx context.Context, in model.SigninInput) (model.Envelope[model.Tokens], error) {
	var out model.Envelope[model.Tokens]
	if err := c.do(ctx, request{method: http.MethodPost, path: "/signin", body: in, public: true}, &out); err != nil {
		return model.Envelope[model.Tokens]{}, err
	}
	if out.Data.AccessToken == "" {
		return model.Envelope[model.Tokens]{}, &Error{Kind: ErrUnknown, Message: "signin response carried no access token"}
	}
	if err := c.session.Set(ctx, out.Data); err != nil {
		return model.Envelope[model.Tokens]{}, &Error{Kind: ErrUnknown, Err: err}
	}
	return out, nil
}

func (c *Client) Me(ctx context.Context, userID string) (model.User, error) {
	var out model.MeResponse
	if err := c.get(ctx, "/me/"+url.PathEscape(userID), nil, &out); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

func (c *Client) ListTasks(ctx context.Context, params model.ListParams) (model.Page[model.Task], error) {
	var out model.TaskListResponse
	if err := c.get(ctx, "/tasks", encodeList(params, taskFilters), &out); err != nil {
		return model.Page[model.Task]{}, err
	}
	return out.Page(), nil
}

func (c *Client) CreateTask(ctx context.Context, in model.CreateTaskInput) (model.Envelope[model.Task], error) {
	var out model.Envelope[model.Task]
	err := c.do(ctx, request{method: http.MethodPost, path: "/create/task", body: in}, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, in model.UpdateTaskInput) (model.Envelope[model.Task], error) {
	var out model.Envelope[model.Task]
	err := c.do(ctx, request{method: http.MethodPatch, path: "/task/" + url.PathEscape(id), body: in}, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) (model.Envelope[struct{}], error) {
	var out model.Envelope[struct{}]
	err := c.do(ctx, request{method: http.MethodDelete, path: "/task/" + url.PathEscape(id)}, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context, params model.ListParams) (model.Page[model.User], error) {
	var out model.UserListResponse
	if err := c.get(ctx, "/users", encodeList(params, userFilters), &out); err != nil {
		return model.Page[model.User]{}, err
	}
	return out.Page(), nil
}

func (c *Client) CreateUser(ctx context.Context, in model.CreateUserInput) (model.Envelope[model.User], error) {
	var out model.Envelope[model.User]
	err := c.do(ctx, request{method: http.MethodPost, path: "/user", body: in}, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, in model.UpdateUserInput) (model.Envelope[model.User], error) {
	var out model.Envelope[model.User]
	err := c.do(ctx, request{method: http.MethodPatch, path: "/users/" + url.PathEscape(id), body: in}, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) (model.Envelope[struct{}], error) {
	var out model.Envelope[struct{}]
	err := c.do(ctx, request{method: http.MethodDelete, path: "/users/" + url.PathEscape(id)}, &out)
	return out, err
}

// encodeList keeps only the filters the endpoint understands.
func encodeList(params model.ListParams, allowed []string) url.Values {
	p := params.Normalize()
	filters := make(map[string]string, len(allowed))
	for _, name := range allowed {
		if v := p.Filters[name]; v != "" {
			filters[name] = v
		}
	}
	p.Filters = filters
	return p.Values()
}
