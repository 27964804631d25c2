package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/coachhub/platform/internal/auth/app"
	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/pkg/cryptox"
)

func main() {
	// A missing .env is fine; the environment wins over the file anyway.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "auth",
		Short:         "Coaching platform authentication service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       app.BuildVersion,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newUsersCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(commandContext(cmd), app.LoadConfig())
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig()
			db, err := app.OpenDatabase(cfg, app.NewLogger(cfg))
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

func newUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Operator account management",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newUsersCreateCommand())
	cmd.AddCommand(newUsersSetActiveCommand("activate", "Re-enable an account", true))
	cmd.AddCommand(newUsersSetActiveCommand("deactivate", "Disable an account and revoke its refresh token", false))
	return cmd
}

func newUsersCreateCommand() *cobra.Command {
	var in service.RegisterInput
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with any role",
		RunE: func(cmd *cobra.Command, args []string) error {
			generated := in.Password == ""
			if generated {
				p, err := cryptox.GeneratePassword()
				if err != nil {
					return err
				}
				in.Password = p
			}
			in.Role = domain.Role(role)

			return withUserService(cmd, func(ctx context.Context, users *service.UserService) error {
				u, err := users.CreateUser(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", u.Role, u.Email, u.ID)
				if generated {
					fmt.Fprintf(cmd.OutOrStdout(), "password: %s\n", in.Password)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Account phone number")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (generated and printed when empty)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "Role: client, coach or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

func newUsersSetActiveCommand(use, short string, active bool) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserService(cmd, func(ctx context.Context, users *service.UserService) error {
				u, err := users.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				if _, err := users.SetActive(ctx, u.ID, active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: isActive=%t\n", u.Email, active)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// withUserService opens the database for a one-shot operator command. Events
// go to the log since the CLI has no broker connection.
func withUserService(cmd *cobra.Command, fn func(context.Context, *service.UserService) error) error {
	cfg := app.LoadConfig()
	cfg.EventsBackend = "log"
	logger := app.NewLogger(cfg)

	db, err := app.OpenDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := app.OpenEvents(cfg, logger)
	if err != nil {
		return err
	}
	defer events.Close()

	return fn(commandContext(cmd), &service.UserService{Store: db, Events: events})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
