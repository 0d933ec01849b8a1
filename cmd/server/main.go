// Package main initializes and starts the storefront API server, setting up
// configuration, logging, the database, session state, services, handlers
// and metrics.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/atinyakov/storefront/internal/catalog"
	"github.com/atinyakov/storefront/internal/config"
	"github.com/atinyakov/storefront/internal/db"
	"github.com/atinyakov/storefront/internal/logger"
	"github.com/atinyakov/storefront/internal/metrics"
	"github.com/atinyakov/storefront/internal/middleware"
	"github.com/atinyakov/storefront/internal/repository"
	"github.com/atinyakov/storefront/internal/server/handler/http"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/atinyakov/storefront/internal/state"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if err := run(options, zapLogger); err != nil {
		zapLogger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(options *config.Options, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer postgresDB.Close()

	// Drop the state of sessions nobody has touched for a while.
	if options.CleanupInterval > 0 && options.SessionTTL > 0 {
		db.StartSessionCleaner(ctx, postgresDB, options.CleanupInterval, options.SessionTTL, zapLogger)
	}

	// Per-session state lives in the kv table.
	kvRepo := repository.NewPostgresKVRepository(postgresDB)
	opener := http.Opener{
		Store: func(ctx context.Context, sid string) state.Store { return kvRepo.ForSession(ctx, sid) },
		Log:   zapLogger,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	limiterConfig := middleware.DefaultRateLimiterConfig()
	if options.RateLimit > 0 {
		limiterConfig.Rate = rate.Limit(float64(options.RateLimit) / 60)
	}
	limiter := middleware.NewRateLimiter(limiterConfig, zapLogger)
	defer limiter.Stop()

	// Initialize business-logic services.
	cat := catalog.Default()
	authService := service.NewAuthService(options.AuthDelay)
	checkoutService := service.NewCheckoutService(options.CheckoutDelay)
	orderService := service.NewOrderService(cat, options.TrackingDelay)

	// Create HTTP handlers.
	deps := http.Deps{Opener: opener, Metrics: collector, Log: zapLogger}
	router := http.NewRouter(http.Handlers{
		Auth:      &http.AuthHandler{Deps: deps, AuthService: authService},
		Cart:      &http.CartHandler{Deps: deps, Catalog: cat},
		Wishlist:  &http.WishlistHandler{Deps: deps, Catalog: cat},
		Addresses: &http.AddressHandler{Deps: deps},
		Catalog:   &http.CatalogHandler{Catalog: cat},
		Checkout:  &http.CheckoutHandler{Deps: deps, Checkout: checkoutService, Orders: orderService},
	}, http.RouterOptions{
		Limiter:       limiter,
		Metrics:       collector,
		SecureCookies: options.TLS(),
	}, zapLogger)

	servers := []*nethttp.Server{{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}}
	if options.MetricsAddr != "" {
		servers = append(servers, &nethttp.Server{
			Addr:              options.MetricsAddr,
			Handler:           metrics.SetupMetricsRoute(reg),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		g.Go(func() error {
			var err error
			if i == 0 && options.TLS() {
				zapLogger.Info("starting HTTPS server", zap.String("addr", srv.Addr))
				err = srv.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			} else {
				zapLogger.Info("starting HTTP server", zap.String("addr", srv.Addr))
				err = srv.ListenAndServe()
			}
			if errors.Is(err, nethttp.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve %s: %w", srv.Addr, err)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var err error
		for _, srv := range servers {
			err = errors.Join(err, srv.Shutdown(shutdownCtx))
		}
		return err
	})
	return g.Wait()
}
