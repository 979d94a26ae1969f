// Package mutation runs create/update/delete operations and keeps the
// cached collections and the user informed about the outcome.
package mutation

import (
	"context"
	"sync/atomic"

	"github.com/jaekwang-park/todo-console/internal/apiclient"
	"github.com/jaekwang-park/todo-console/internal/model"
)

// Func performs the remote operation.
type Func[In, Out any] func(ctx context.Context, in In) (model.Envelope[Out], error)

// Invalidator is anything whose cached data goes stale after a mutation.
type Invalidator interface {
	Invalidate()
}

type config struct {
	name        string
	invalidates []Invalidator
	notifier    Notifier
	success     string
	failure     string
}

type Option func(*config)

// Invalidates registers the collections to mark stale once the server
// confirms the mutation.
func Invalidates(targets ...Invalidator) Option {
	return func(c *config) { c.invalidates = append(c.invalidates, targets...) }
}

func WithNotifier(n Notifier) Option {
	return func(c *config) { c.notifier = n }
}

// WithMessages sets the defaults used when the server sends no message.
func WithMessages(success, failure string) Option {
	return func(c *config) {
		c.success = success
		c.failure = failure
	}
}

type Mutation[In, Out any] struct {
	fn      Func[In, Out]
	cfg     config
	pending atomic.Int32
}

func New[In, Out any](name string, fn Func[In, Out], opts ...Option) *Mutation[In, Out] {
	cfg := config{
		name:     name,
		notifier: LogNotifier{},
		success:  "Done",
		failure:  "Something went wrong",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Mutation[In, Out]{fn: fn, cfg: cfg}
}

func (m *Mutation[In, Out]) Name() string {
	return m.cfg.name
}

// Pending reports whether a Run is in progress.
func (m *Mutation[In, Out]) Pending() bool {
	return m.pending.Load() > 0
}

// Run performs the mutation. Collections are invalidated only after a
// successful response; a failure leaves them untouched.
func (m *Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	m.pending.Add(1)
	defer m.pending.Add(-1)

	res, err := m.fn(ctx, in)
	if err != nil {
		m.cfg.notifier.Error(apiclient.Message(err, m.cfg.failure))
		var zero Out
		return zero, err
	}

	for _, target := range m.cfg.invalidates {
		target.Invalidate()
	}

	msg := res.Message
	if msg == "" {
		msg = m.cfg.success
	}
	m.cfg.notifier.Success(msg)
	return res.Data, nil
}
