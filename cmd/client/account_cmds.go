package main

import (
	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Login(cmd.Context(), args[0], password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (not checked)")
	return cmd
}

func (a *app) registerCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <name> <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Register(cmd.Context(), args[0], args[1], password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (not checked)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Logout()
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.WhoAmI()
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <name> <email>",
		Short: "Change the name and email of the signed-in user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Profile(args[0], args[1])
		},
	}
}

func (a *app) addressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "address",
		Aliases: []string{"addresses"},
		Short:   "Show or change the address book",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.AddressList()
		},
	}
	byRef := func(use, short string, run func(ref string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <no|id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(args[0])
			},
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show saved addresses",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shell.AddressList()
			},
		},
		&cobra.Command{
			Use:   "add",
			Short: "Save a new address",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shell.AddressAdd()
			},
		},
		byRef("update", "Change a saved address", func(ref string) error { return a.shell.AddressUpdate(ref) }),
		byRef("remove", "Delete a saved address", func(ref string) error { return a.shell.AddressRemove(ref) }),
		byRef("default", "Use an address to prefill checkout", func(ref string) error { return a.shell.AddressDefault(ref) }),
	)
	return cmd
}
