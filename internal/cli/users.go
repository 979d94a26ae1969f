package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/todo-console/internal/console"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/session"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User administration (ADMIN only)",
	}

	cmd.AddCommand(newUsersListCmd(app))
	cmd.AddCommand(newUsersCreateCmd(app))
	cmd.AddCommand(newUsersUpdateCmd(app))
	cmd.AddCommand(newUsersDeleteCmd(app))

	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of users",
	}
	flags := newListFlags(cmd, "role")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return app.run(cmd, session.RouteUsers, func(ctx context.Context, c *console.App) error {
			page, err := listPage(ctx, c.UserView, flags)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, page)
		})
	}
	return cmd
}

func addUserFlags(cmd *cobra.Command, f *console.UserForm, role *string) {
	cmd.Flags().StringVar(&f.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&f.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&f.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.Password, "password", "", "Password")
	cmd.Flags().StringVar(role, "role", string(model.RoleUser), "Role (ADMIN|USER)")
}

func newUsersCreateCmd(app *App) *cobra.Command {
	var form console.UserForm
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Role = model.Role(role)
			return app.run(cmd, session.RouteUsers, func(ctx context.Context, c *console.App) error {
				if err := c.CreateUser(ctx, form); err != nil {
					return err
				}
				return writeOut(cmd, app, result{Message: app.message("User created")})
			})
		},
	}
	addUserFlags(cmd, &form, &role)
	return cmd
}

func newUsersUpdateCmd(app *App) *cobra.Command {
	var form console.UserForm
	var role string

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update the given fields of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in model.UpdateUserInput
			changed := cmd.Flags().Changed
			if changed("first-name") {
				in.FirstName = &form.FirstName
			}
			if changed("last-name") {
				in.LastName = &form.LastName
			}
			if changed("email") {
				in.Email = &form.Email
			}
			if changed("password") && form.Password != "" {
				in.Password = &form.Password
			}
			if changed("role") {
				r := model.Role(role)
				in.Role = &r
			}
			if in.IsEmpty() {
				return writeErr(cmd, errNothingToUpdate)
			}

			return app.run(cmd, session.RouteUsers, func(ctx context.Context, c *console.App) error {
				user, err := c.PatchUser(ctx, args[0], in)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, result{Message: app.message("User updated"), Data: user})
			})
		},
	}
	addUserFlags(cmd, &form, &role)
	return cmd
}

func newUsersDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, session.RouteUsers, func(ctx context.Context, c *console.App) error {
				if err := c.DeleteUser(ctx, model.User{ID: args[0]}); err != nil {
					return err
				}
				return writeOut(cmd, app, result{Message: app.message("User deleted")})
			})
		},
	}
}
