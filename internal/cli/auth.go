package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/todo-console/internal/console"
	"github.com/jaekwang-park/todo-console/internal/model"
	"github.com/jaekwang-park/todo-console/internal/session"
)

func newSignupCmd(app *App) *cobra.Command {
	var in model.SignupInput
	var role string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Role = model.Role(role)
			return app.run(cmd, session.RouteSignUp, func(ctx context.Context, c *console.App) error {
				user, err := c.Signup(ctx, in)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, result{Message: app.message("Signed up"), Data: user})
			})
		},
	}
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password")
	cmd.Flags().StringVar(&role, "role", string(model.RoleUser), "Role (ADMIN|USER)")
	return cmd
}

func newSigninCmd(app *App) *cobra.Command {
	var in model.SigninInput

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, session.RouteSignIn, func(ctx context.Context, c *console.App) error {
				if err := c.Signin(ctx, in); err != nil {
					return err
				}
				id, err := c.Session.UserID()
				if err != nil {
					return err
				}
				return writeOut(cmd, app, result{
					Message: app.message("Signed in"),
					Data:    map[string]string{"userId": id, "landing": c.Session.Landing()},
				})
			})
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password")
	return cmd
}

func newSignoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, session.RouteSignIn, func(ctx context.Context, c *console.App) error {
				if err := c.Signout(ctx); err != nil {
					return err
				}
				return writeOut(cmd, app, result{Message: console.LogoutMessage})
			})
		},
	}
}

func newMeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, session.RouteTasks, func(ctx context.Context, c *console.App) error {
				user, err := c.Me(ctx)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, result{Data: user})
			})
		},
	}
}
