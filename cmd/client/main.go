// Package main is the storefront command-line client. It keeps the cart,
// wishlist, account and order history in a local store and talks to the
// storefront server only to place orders and track shipments.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root, cleanup := newRootCmd(os.Stdin, os.Stdout)
	root.Version = fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
	err := root.ExecuteContext(ctx)
	if cerr := cleanup(); cerr != nil {
		fmt.Fprintln(os.Stderr, "close store:", cerr)
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}
