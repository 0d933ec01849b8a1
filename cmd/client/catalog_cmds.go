package main

import (
	"github.com/spf13/cobra"

	"github.com/atinyakov/storefront/internal/catalog"
)

func (a *app) productsCmd() *cobra.Command {
	q := catalog.DefaultQuery()
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Long: `List one page of the catalog.

Sort orders: featured, price-low, price-high, rating, newest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Products(q)
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Category, "category", "all", "category to show")
	f.Float64Var(&q.MinPrice, "min", q.MinPrice, "lowest price")
	f.Float64Var(&q.MaxPrice, "max", q.MaxPrice, "highest price")
	f.StringVar(&q.Sort, "sort", q.Sort, "sort order")
	f.IntVar(&q.Page, "page", q.Page, "page number")
	return cmd
}

func (a *app) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Product(args[0])
		},
	}
}

func (a *app) featuredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "featured",
		Short: "List featured products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Featured()
		},
	}
}

func (a *app) ordersCmd() *cobra.Command {
	var status, sortBy string
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Show the order history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.OrderHistory(status, sortBy)
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "processing, shipped, delivered, cancelled or all")
	cmd.Flags().StringVar(&sortBy, "sort", "date-desc", "date-desc, date-asc, total-desc or total-asc")
	return cmd
}

func (a *app) trackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track <number>",
		Short: "Track a shipment by order or tracking number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Track(cmd.Context(), args[0])
		},
	}
}

func (a *app) checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.PlaceOrder(cmd.Context())
		},
	}
}

func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Run(cmd.Context())
		},
	}
}
