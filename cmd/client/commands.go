package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/catalog"
	"github.com/atinyakov/storefront/internal/client/api"
	"github.com/atinyakov/storefront/internal/client/shell"
	"github.com/atinyakov/storefront/internal/client/storage"
	"github.com/atinyakov/storefront/internal/logger"
	"github.com/atinyakov/storefront/internal/state"
)

// clientFlags are the persistent flags of the root command.
type clientFlags struct {
	store      string
	path       string
	passphrase string
	url        string
	caFile     string
	logLevel   string
}

// app is what every subcommand runs against. It is built by the root
// command's PersistentPreRunE.
type app struct {
	flags clientFlags
	in    io.Reader
	out   io.Writer

	shell *shell.Shell
	log   *zap.Logger
	close func() error
}

// newRootCmd returns the root command and a func releasing what the
// executed command opened.
func newRootCmd(in io.Reader, out io.Writer) (*cobra.Command, func() error) {
	a := &app{in: in, out: out}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront client: browse, fill a cart and check out",
		Long: `storefront keeps your cart, wishlist, account and order history in a
local store. Orders are placed on the storefront server when --url is set and
locally otherwise.

Run "storefront shell" for an interactive session.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
	}
	root.SetIn(in)
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.store, "store", "file", "local store: file, sqlite or memory")
	pf.StringVar(&a.flags.path, "path", "", "store location (default storefront.json or storefront.db)")
	pf.StringVar(&a.flags.passphrase, "passphrase", os.Getenv("STOREFRONT_PASSPHRASE"), "encrypt stored values with this passphrase")
	pf.StringVar(&a.flags.url, "url", os.Getenv("STOREFRONT_URL"), "storefront server base URL; empty places orders locally")
	pf.StringVar(&a.flags.caFile, "ca", "", "CA certificate for an HTTPS server")
	pf.StringVar(&a.flags.logLevel, "log-level", "error", "log level")

	root.AddCommand(
		a.productsCmd(),
		a.productCmd(),
		a.featuredCmd(),
		a.loginCmd(),
		a.registerCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.profileCmd(),
		a.cartCmd(),
		a.wishlistCmd(),
		a.addressCmd(),
		a.checkoutCmd(),
		a.ordersCmd(),
		a.trackCmd(),
		a.shellCmd(),
	)
	return root, a.shutdown
}

// open builds the logger, the local store, the state and the shell.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	log := logger.New()
	if err := log.Init(a.flags.logLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log.Log

	store, closeStore, err := openStore(a.flags)
	if err != nil {
		return err
	}
	a.close = closeStore

	st, err := state.Open(store, state.WithLogger(a.log))
	if err != nil {
		_ = closeStore()
		return fmt.Errorf("open state: %w", err)
	}

	var remote shell.Remote
	if a.flags.url != "" {
		c, err := api.New(a.flags.url, a.flags.caFile)
		if err != nil {
			_ = closeStore()
			return err
		}
		remote = c
	}

	a.shell = shell.New(st, catalog.Default(), remote, a.in, a.out)
	a.shell.Log = a.log
	return nil
}

func (a *app) shutdown() error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.close == nil {
		return nil
	}
	release := a.close
	a.close = nil
	return release()
}

// openStore returns the store chosen by flags and a func releasing it.
func openStore(f clientFlags) (state.Store, func() error, error) {
	noop := func() error { return nil }

	var (
		kv      storage.KV
		release = noop
	)
	switch f.store {
	case "file", "":
		fs, err := storage.NewFileStore(f.path)
		if err != nil {
			return nil, nil, err
		}
		kv = fs
	case "sqlite":
		path := f.path
		if path == "" {
			path = "storefront.db"
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, nil, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		s, err := storage.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		kv, release = s, s.Close
	case "memory":
		kv = storage.NewMemoryStore()
	default:
		return nil, nil, fmt.Errorf("unknown store %q: want file, sqlite or memory", f.store)
	}

	if f.passphrase == "" {
		return kv, release, nil
	}
	aead, err := storage.NewAEADFromPassphrase([]byte(f.passphrase))
	if err != nil {
		return nil, nil, errors.Join(err, release())
	}
	return storage.NewSealedStore(kv, aead), release, nil
}
