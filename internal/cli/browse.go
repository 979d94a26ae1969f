package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/todo-console/internal/console"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/session"
	"github.com/jaekwang-park/todo-console/internal/tui"
)

func newBrowseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a collection interactively",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tasks",
		Short: "Browse tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.quiet = true
			return app.run(cmd, session.RouteTasks, func(ctx context.Context, c *console.App) error {
				return tui.Run(ctx, tui.New(ctx, c.TaskView, tui.Config[model.Task]{
					Title:    "Tasks",
					Columns:  tui.TaskColumns,
					Filter:   tui.TaskFilter,
					Debounce: app.cfg.SearchDebounce,
					Notes:    app.notes,
				}))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "users",
		Short: "Browse users (ADMIN only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.quiet = true
			return app.run(cmd, session.RouteUsers, func(ctx context.Context, c *console.App) error {
				return tui.Run(ctx, tui.New(ctx, c.UserView, tui.Config[model.User]{
					Title:    "Users",
					Columns:  tui.UserColumns,
					Filter:   tui.UserFilter,
					Debounce: app.cfg.SearchDebounce,
					Notes:    app.notes,
				}))
			})
		},
	})

	return cmd
}
