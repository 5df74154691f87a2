package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/repository"
	"github.com/nurpe/rentflow/internal/service"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(userCreateCmd(), userListCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var input struct {
		name  string
		email string
		phone string
		role  string
	}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user, e.g. the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(database *dbHandle) error {
				users := service.NewUserService(repository.NewUserRepository(database.db))
				user, err := users.Create(cmd.Context(), service.CreateUserInput{
					FullName: input.name,
					Email:    input.email,
					Phone:    input.phone,
					Role:     model.Role(input.role),
				})
				if err != nil {
					return err
				}
				database.log.Info().
					Str("user_id", user.ID.String()).
					Str("role", string(user.Role)).
					Msg("user created")
				fmt.Fprintln(cmd.OutOrStdout(), user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.name, "name", "", "Full name")
	cmd.Flags().StringVar(&input.email, "email", "", "Email address")
	cmd.Flags().StringVar(&input.phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&input.role, "role", string(model.RoleTenant), "Role: tenant, owner or admin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func userListCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(database *dbHandle) error {
				users, err := repository.NewUserRepository(database.db).List(cmd.Context(), model.Role(role))
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tROLE\tEMAIL\tNAME")
				for _, u := range users {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Role, u.Email, u.FullName)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Only list users with this role")
	return cmd
}
