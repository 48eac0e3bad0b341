// Command main manages admin accounts from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"homestead/internal/config"
	"homestead/internal/database"
	"homestead/internal/models"
	"homestead/internal/repository"
	"homestead/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Manage Homestead admin accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		roleCmd("promote", "Promote a user to admin", models.RoleAdmin),
		roleCmd("demote", "Demote an admin to a regular user", models.RoleUser),
		listAdminsCmd(),
		createAdminCmd(),
	)
	return cmd
}

func connect() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return database.Connect(cfg)
}

// userRef resolves a numeric ID or an email address.
func userRef(ctx context.Context, users *service.UserService, ref string) (uint, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil && id > 0 {
		return uint(id), nil
	}
	u, err := users.GetByEmail(ctx, ref)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

func roleCmd(use, short string, role models.Role) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user_id|email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			users := service.NewUserService(repository.NewUserRepository(db))

			id, err := userRef(ctx, users, args[0])
			if err != nil {
				return err
			}
			u, err := users.SetRole(ctx, nil, id, string(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s (ID: %d) is now %s\n", u.Email, u.ID, u.Role)
			return nil
		},
	}
}

func listAdminsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-admins",
		Short: "List all admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			admins, err := service.NewUserService(repository.NewUserRepository(db)).ListAdmins(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(admins) == 0 {
				fmt.Fprintln(out, "No admins found in the system")
				return nil
			}
			for _, a := range admins {
				fmt.Fprintf(out, "ID: %d | Name: %s | Email: %s\n", a.ID, a.DisplayName(), a.Email)
			}
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a new admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			auth := service.NewAuthService(repository.NewUserRepository(db))
			id, err := auth.CreateAdmin(cmd.Context(), service.SignupInput{Name: name, Email: email, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (ID: %d)\n", id.Email, id.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Admin", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
