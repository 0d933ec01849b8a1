package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func (a *app) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.CartShow()
		},
	}

	var variant string
	var qty int
	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.CartAdd(args[0], variant, qty)
		},
	}
	add.Flags().IntVarP(&qty, "qty", "q", 1, "quantity")
	add.Flags().StringVar(&variant, "variant", "", "product variant")

	update := &cobra.Command{
		Use:   "update <id> <qty>",
		Short: "Set the quantity of a line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return a.shell.CartUpdate(args[0], variant, n)
		},
	}
	update.Flags().StringVar(&variant, "variant", "", "product variant")

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.CartRemove(args[0], variant)
		},
	}
	remove.Flags().StringVar(&variant, "variant", "", "product variant")

	cmd.AddCommand(add, update, remove,
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shell.CartClear()
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shell.CartShow()
			},
		},
	)
	return cmd
}

func (a *app) wishlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show or change the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.WishlistShow()
		},
	}
	byID := func(use, short string, run func(id string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(args[0])
			},
		}
	}
	cmd.AddCommand(
		byID("add", "Save a product", func(id string) error { return a.shell.WishlistAdd(id) }),
		byID("remove", "Drop a saved product", func(id string) error { return a.shell.WishlistRemove(id) }),
		byID("toggle", "Save a product or drop it when already saved", func(id string) error { return a.shell.WishlistToggle(id) }),
		&cobra.Command{
			Use:   "show",
			Short: "Show the wishlist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shell.WishlistShow()
			},
		},
	)
	return cmd
}
