package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/sololink/pkg/core/services"
)

func newCreateUserCmd(open storeOpener) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register an email/password account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := services.NewUserService(store).Signup(ctx, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Name, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "username, also the subdomain label")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	for _, f := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
