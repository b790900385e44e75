package admincli

import (
	"fmt"

	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/spf13/cobra"
)

func newUserCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd(opts))
	cmd.AddCommand(newUserPasswdCmd(opts))
	return cmd
}

func newUserCreateCmd(opts *globalOptions) *cobra.Command {
	var in services.NewUserInput
	var role string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user, prompting for the password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username = args[0]
			in.Role = models.Role(role)

			pw, err := promptPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			in.Password = pw

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close(cmd.Context())

			u, err := s.svc.Users.CreateUser(cmd.Context(), s.actor, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) with role %s\n", u.Username, u.ID, u.Role)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&role, "role", string(models.RoleAdmin), "role of the new user")
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&in.Prison, "prison", "", "prison id the user belongs to")
	return cmd
}

func newUserPasswdCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <user-id>",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := promptPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close(cmd.Context())

			if err := s.svc.Users.SetPassword(cmd.Context(), s.actor, args[0], pw); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password updated")
			return nil
		},
	}
}
