package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/todo-console/internal/console"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/session"
)

var errNothingToUpdate = errors.New("nothing to update: pass at least one field flag")

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}

	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))

	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of tasks",
	}
	flags := newListFlags(cmd, "status", "priority", "dueDate")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return app.run(cmd, session.RouteTasks, func(ctx context.Context, c *console.App) error {
			page, err := listPage(ctx, c.TaskView, flags)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, page)
		})
	}
	return cmd
}

func addTaskFlags(cmd *cobra.Command, f *console.TaskForm, status, priority *string) {
	cmd.Flags().StringVar(&f.Title, "title", "", "Title")
	cmd.Flags().StringVar(&f.Description, "description", "", "Description")
	cmd.Flags().StringVar(status, "status", string(model.TaskStatusPending), "Status (PENDING|INPROGRESS|COMPLETED|BLOCKER)")
	cmd.Flags().StringVar(priority, "priority", string(model.TaskPriorityMedium), "Priority (LOW|MEDIUM|HIGH|URGENT)")
	cmd.Flags().StringVar(&f.DueDate, "due-date", "", "Due date (YYYY-MM-DD)")
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var form console.TaskForm
	var status, priority string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Status = model.TaskStatus(status)
			form.Priority = model.TaskPriority(priority)
			return app.run(cmd, session.RouteTasks, func(ctx context.Context, c *console.App) error {
				if err := c.CreateTask(ctx, form); err != nil {
					return err
				}
				return writeOut(cmd, app, result{Message: app.message("Task created")})
			})
		},
	}
	addTaskFlags(cmd, &form, &status, &priority)
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var form console.TaskForm
	var status, priority string

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update the given fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in model.UpdateTaskInput
			changed := cmd.Flags().Changed
			if changed("title") {
				in.Title = &form.Title
			}
			if changed("description") {
				in.Description = &form.Description
			}
			if changed("status") {
				s := model.TaskStatus(status)
				in.Status = &s
			}
			if changed("priority") {
				p := model.TaskPriority(priority)
				in.Priority = &p
			}
			if changed("due-date") {
				in.DueDate = &form.DueDate
			}
			if in.IsEmpty() {
				return writeErr(cmd, errNothingToUpdate)
			}

			return app.run(cmd, session.RouteTasks, func(ctx context.Context, c *console.App) error {
				task, err := c.PatchTask(ctx, args[0], in)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, result{Message: app.message("Task updated"), Data: task})
			})
		},
	}
	addTaskFlags(cmd, &form, &status, &priority)
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, session.RouteTasks, func(ctx context.Context, c *console.App) error {
				if err := c.DeleteTask(ctx, model.Task{ID: args[0]}); err != nil {
					return err
				}
				return writeOut(cmd, app, result{Message: app.message("Task deleted")})
			})
		},
	}
}
