package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abayahaven/marketplace-backend/internal/config"
	"github.com/abayahaven/marketplace-backend/internal/database"
	"github.com/abayahaven/marketplace-backend/internal/user"
)

type adminOptions struct {
	email    string
	username string
	phone    string
	password string
}

func (o adminOptions) validate() error {
	var errs []error
	if o.email == "" {
		errs = append(errs, errors.New("--email is required"))
	}
	if o.username == "" {
		errs = append(errs, errors.New("--username is required"))
	}
	if o.password == "" {
		errs = append(errs, errors.New("--password is required"))
	}
	return errors.Join(errs...)
}

func newCreateAdminCommand() *cobra.Command {
	opts := adminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account or promote an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			newLogger(cfg.LogLevel)

			db, err := database.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := user.NewService(user.NewPostgresRepository(db))
			admin, created, err := svc.EnsureAdmin(cmd.Context(), user.User{
				Username: opts.username,
				Email:    opts.email,
				Phone:    opts.phone,
				Password: opts.password,
			})
			if err != nil {
				return fmt.Errorf("failed to ensure admin: %w", err)
			}

			verb := "promoted"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s %s (id %d)\n", admin.Email, verb, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "admin email")
	cmd.Flags().StringVar(&opts.username, "username", "", "admin username")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "admin phone number")
	cmd.Flags().StringVar(&opts.password, "password", "", "admin password")
	return cmd
}
