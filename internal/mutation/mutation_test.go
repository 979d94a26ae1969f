package mutation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaekwang-park/todo-console/internal/apiclient"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/mutation"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func TestMutation_SuccessInvalidatesAfterServer(t *testing.T) {
	inv := &countingInvalidator{}
	rec := &mutation.Recorder{}

	var invalidatedBeforeResponse bool
	m := mutation.New("create task",
		func(ctx context.Context, in model.CreateTaskInput) (model.Envelope[model.Task], error) {
			invalidatedBeforeResponse = inv.n > 0
			return model.Envelope[model.Task]{Message: "Task created", Data: model.Task{ID: "t1", Title: in.Title}}, nil
		},
		mutation.Invalidates(inv),
		mutation.WithNotifier(rec),
		mutation.WithMessages("Task created successfully", "Failed to create task"),
	)

	task, err := m.Run(context.Background(), model.CreateTaskInput{Title: "a"})
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.False(t, invalidatedBeforeResponse)
	assert.Equal(t, 1, inv.n)
	assert.False(t, m.Pending())

	want := []mutation.Notification{{Level: mutation.LevelSuccess, Message: "Task created"}}
	if diff := cmp.Diff(want, rec.All()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestMutation_Notifications(t *testing.T) {
	tests := []struct {
		name    string
		message string
		err     error
		want    mutation.Notification
	}{
		{
			name: "default success message",
			want: mutation.Notification{Level: mutation.LevelSuccess, Message: "User deleted successfully"},
		},
		{
			name: "server error message",
			err:  &apiclient.Error{Kind: apiclient.ErrValidation, Status: 409, Message: "Email already exists"},
			want: mutation.Notification{Level: mutation.LevelError, Message: "Email already exists"},
		},
		{
			name: "default error message",
			err:  &apiclient.Error{Kind: apiclient.ErrNetwork, Err: errors.New("dial tcp")},
			want: mutation.Notification{Level: mutation.LevelError, Message: "Failed to delete user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &countingInvalidator{}
			rec := &mutation.Recorder{}
			m := mutation.New("delete user",
				func(ctx context.Context, id string) (model.Envelope[struct{}], error) {
					return model.Envelope[struct{}]{Message: tt.message}, tt.err
				},
				mutation.Invalidates(inv),
				mutation.WithNotifier(rec),
				mutation.WithMessages("User deleted successfully", "Failed to delete user"),
			)

			_, err := m.Run(context.Background(), "u1")
			if tt.err != nil {
				require.Error(t, err)
				assert.Equal(t, 0, inv.n, "failed mutation must not invalidate")
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, inv.n)
			}

			last, ok := rec.Last()
			require.True(t, ok)
			assert.Equal(t, tt.want, last)
		})
	}
}

func TestMutation_PendingDuringRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	m := mutation.New("delete task",
		func(ctx context.Context, id string) (model.Envelope[struct{}], error) {
			close(started)
			<-release
			return model.Envelope[struct{}]{}, nil
		},
		mutation.WithNotifier(&mutation.Recorder{}),
	)

	done := make(chan struct{})
	go func() {
		_, _ = m.Run(context.Background(), "t1")
		close(done)
	}()

	<-started
	assert.True(t, m.Pending())
	close(release)
	<-done
	assert.False(t, m.Pending())
}
