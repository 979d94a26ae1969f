// Package console wires the session, API client, collection caches,
// mutations and view controllers into one application.
package console

import (
	"context"
	"log/slog"
	"net/http"

	"k8s.io/utils/clock"

	"github.com/jaekwang-park/todo-console/internal/apiclient"
	"github.com/jaekwang-park/todo-console/internal/config"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/mutation"
	"github.com/jaekwang-park/todo-console/internal/query"
	"github.com/jaekwang-park/todo-console/internal/session"
	"github.com/jaekwang-park/todo-console/internal/validate"
	"github.com/jaekwang-park/todo-console/internal/view"
)

const LogoutMessage = "Logged out successfully"

type patch[T any] struct {
	ID    string
	Input T
}

type options struct {
	httpClient     *http.Client
	notifier       mutation.Notifier
	logger         *slog.Logger
	clock          clock.PassiveClock
	onUnauthorized func()
}

type Option func(*options)

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func WithNotifier(n mutation.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock used for cache staleness.
func WithClock(c clock.PassiveClock) Option {
	return func(o *options) { o.clock = c }
}

// WithUnauthorizedHook runs fn when the server rejects the session.
func WithUnauthorizedHook(fn func()) Option {
	return func(o *options) { o.onUnauthorized = fn }
}

type App struct {
	Session  *session.Session
	Client   *apiclient.Client
	Tasks    *query.Collection[model.Task]
	Users    *query.Collection[model.User]
	TaskView *view.Controller[model.Task, TaskForm]
	UserView *view.Controller[model.User, UserForm]

	notifier mutation.Notifier
	logger   *slog.Logger

	signin     *mutation.Mutation[model.SigninInput, model.Tokens]
	signup     *mutation.Mutation[model.SignupInput, model.User]
	createTask *mutation.Mutation[model.CreateTaskInput, model.Task]
	updateTask *mutation.Mutation[patch[model.UpdateTaskInput], model.Task]
	deleteTask *mutation.Mutation[string, struct{}]
	createUser *mutation.Mutation[model.CreateUserInput, model.User]
	updateUser *mutation.Mutation[patch[model.UpdateUserInput], model.User]
	deleteUser *mutation.Mutation[string, struct{}]

	unsubscribe func()
}

func New(cfg config.Console, sess *session.Session, opts ...Option) *App {
	o := options{
		logger: slog.Default(),
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = mutation.LogNotifier{Logger: o.logger}
	}

	var clientOpts []apiclient.Option
	if o.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(o.httpClient))
	}
	clientOpts = append(clientOpts,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithRetries(cfg.FetchRetries, apiclient.DefaultBackoff),
		apiclient.WithLogger(o.logger),
	)
	if o.onUnauthorized != nil {
		clientOpts = append(clientOpts, apiclient.WithUnauthorizedHook(o.onUnauthorized))
	}

	a := &App{
		Session:  sess,
		Client:   apiclient.New(cfg.APIBaseURL, sess, clientOpts...),
		notifier: o.notifier,
		logger:   o.logger,
	}

	cacheOpts := []query.Option{
		query.WithClock(o.clock),
		query.WithStaleTime(cfg.CacheStaleTime),
		query.WithGCTime(cfg.CacheGCTime),
		query.WithLogger(o.logger),
	}
	a.Tasks = query.NewCollection("tasks", a.Client.ListTasks, cacheOpts...)
	a.Users = query.NewCollection("users", a.Client.ListUsers, cacheOpts...)

	a.buildMutations()

	a.TaskView = view.New(a.Tasks, view.Ops[model.Task, TaskForm]{
		Create: a.CreateTask,
		Update: a.UpdateTask,
		Delete: a.DeleteTask,
	}, view.WithPageSize(cfg.PageSize))
	a.UserView = view.New(a.Users, view.Ops[model.User, UserForm]{
		Create: a.CreateUser,
		Update: a.UpdateUser,
		Delete: a.DeleteUser,
	}, view.WithPageSize(cfg.PageSize))

	a.unsubscribe = sess.Subscribe(func(model.Tokens) { a.resetData() })
	return a
}

func (a *App) buildMutations() {
	notify := mutation.WithNotifier(a.notifier)
	c := a.Client

	a.signin = mutation.New("signin", c.Signin, notify,
		mutation.WithMessages("Signed in", "Signin failed"))
	a.signup = mutation.New("signup", c.Signup, notify,
		mutation.WithMessages("Signed up", "Signup failed"))

	a.createTask = mutation.New("create task", c.CreateTask, notify,
		mutation.Invalidates(a.Tasks),
		mutation.WithMessages("Task created", "Failed to create task"))
	a.updateTask = mutation.New("update task",
		func(ctx context.Context, p patch[model.UpdateTaskInput]) (model.Envelope[model.Task], error) {
			return c.UpdateTask(ctx, p.ID, p.Input)
		}, notify,
		mutation.Invalidates(a.Tasks),
		mutation.WithMessages("Task updated", "Failed to update task"))
	a.deleteTask = mutation.New("delete task", c.DeleteTask, notify,
		mutation.Invalidates(a.Tasks),
		mutation.WithMessages("Task deleted", "Failed to delete task"))

	a.createUser = mutation.New("create user", c.CreateUser, notify,
		mutation.Invalidates(a.Users),
		mutation.WithMessages("User created", "Failed to create user"))
	// Tasks embed their creator, so changing or removing a user invalidates both.
	a.updateUser = mutation.New("update user",
		func(ctx context.Context, p patch[model.UpdateUserInput]) (model.Envelope[model.User], error) {
			return c.UpdateUser(ctx, p.ID, p.Input)
		}, notify,
		mutation.Invalidates(a.Users, a.Tasks),
		mutation.WithMessages("User updated", "Failed to update user"))
	a.deleteUser = mutation.New("delete user", c.DeleteUser, notify,
		mutation.Invalidates(a.Users, a.Tasks),
		mutation.WithMessages("User deleted", "Failed to delete user"))
}

// Close detaches the app from its session.
func (a *App) Close() {
	a.unsubscribe()
}

// resetData drops everything fetched under the previous identity.
func (a *App) resetData() {
	a.Tasks.Reset()
	a.Users.Reset()
	a.TaskView.Reset()
	a.UserView.Reset()
}

func (a *App) Notifier() mutation.Notifier {
	return a.notifier
}

// Signin validates the credentials and starts a session.
func (a *App) Signin(ctx context.Context, in model.SigninInput) error {
	if err := validate.Signin(in); err != nil {
		return err
	}
	_, err := a.signin.Run(ctx, in)
	return err
}

func (a *App) Signup(ctx context.Context, in model.SignupInput) (model.User, error) {
	if err := validate.Signup(in); err != nil {
		return model.User{}, err
	}
	return a.signup.Run(ctx, in)
}

// Signout ends the session. Cached collections are dropped by the session
// subscription.
func (a *App) Signout(ctx context.Context) error {
	if err := a.Session.Clear(ctx); err != nil {
		a.logger.WarnContext(ctx, "signout could not clear the stored session", "error", err)
	}
	a.notifier.Success(LogoutMessage)
	return nil
}

// Me returns the signed-in user.
func (a *App) Me(ctx context.Context) (model.User, error) {
	id, err := a.Session.UserID()
	if err != nil {
		return model.User{}, err
	}
	return a.Client.Me(ctx, id)
}

func (a *App) CreateTask(ctx context.Context, f TaskForm) error {
	in := f.Input()
	if err := validate.Task(in); err != nil {
		return err
	}
	_, err := a.createTask.Run(ctx, in)
	return err
}

// UpdateTask sends only the changed fields of f. An unchanged form sends
// nothing.
func (a *App) UpdateTask(ctx context.Context, current model.Task, f TaskForm) error {
	if err := validate.Task(f.Input()); err != nil {
		return err
	}
	diff := DiffTask(current, f)
	if diff.IsEmpty() {
		a.logger.DebugContext(ctx, "task form unchanged, nothing to send", "task_id", current.ID)
		return nil
	}
	_, err := a.updateTask.Run(ctx, patch[model.UpdateTaskInput]{ID: current.ID, Input: diff})
	return err
}

// PatchTask sends a partial update built outside a form, such as from
// command-line flags.
func (a *App) PatchTask(ctx context.Context, id string, in model.UpdateTaskInput) (model.Task, error) {
	if err := validate.TaskPatch(in); err != nil {
		return model.Task{}, err
	}
	return a.updateTask.Run(ctx, patch[model.UpdateTaskInput]{ID: id, Input: in})
}

func (a *App) DeleteTask(ctx context.Context, t model.Task) error {
	_, err := a.deleteTask.Run(ctx, t.ID)
	return err
}

func (a *App) CreateUser(ctx context.Context, f UserForm) error {
	in := f.Input()
	if err := validate.NewUser(in); err != nil {
		return err
	}
	_, err := a.createUser.Run(ctx, in)
	return err
}

func (a *App) UpdateUser(ctx context.Context, current model.User, f UserForm) error {
	if err := validate.UserUpdate(f.Input()); err != nil {
		return err
	}
	diff := DiffUser(current, f)
	if diff.IsEmpty() {
		a.logger.DebugContext(ctx, "user form unchanged, nothing to send", "user_id", current.ID)
		return nil
	}
	_, err := a.updateUser.Run(ctx, patch[model.UpdateUserInput]{ID: current.ID, Input: diff})
	return err
}

func (a *App) PatchUser(ctx context.Context, id string, in model.UpdateUserInput) (model.User, error) {
	if err := validate.UserPatch(in); err != nil {
		return model.User{}, err
	}
	return a.updateUser.Run(ctx, patch[model.UpdateUserInput]{ID: id, Input: in})
}

func (a *App) DeleteUser(ctx context.Context, u model.User) error {
	_, err := a.deleteUser.Run(ctx, u.ID)
	return err
}
