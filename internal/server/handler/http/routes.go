package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/metrics"
	"github.com/atinyakov/storefront/internal/middleware"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Auth      *AuthHandler
	Cart      *CartHandler
	Wishlist  *WishlistHandler
	Addresses *AddressHandler
	Catalog   *CatalogHandler
	Checkout  *CheckoutHandler
}

// RouterOptions tunes the middleware chain.
type RouterOptions struct {
	// Limiter guards sign-in and checkout. Nil disables rate limiting.
	Limiter *middleware.RateLimiter
	// Metrics receives the status and latency of every request.
	Metrics metrics.Recorder
	// SecureCookies marks the session cookie Secure (HTTPS only).
	SecureCookies bool
}

// NewRouter constructs and returns an HTTP handler that serves the
// storefront API under /api.
//
// Middleware chain (applied in order):
//  1. Recoverer: turns panics into 500
//  2. AllowContentType("application/json"): rejects non-JSON bodies
//  3. Session: assigns the sid cookie
//  4. WithRequestLogging(logger): logs every request
//  5. metrics.Middleware: counts statuses and latency
//
// Sign-in, registration and checkout are additionally rate limited per
// session.
func NewRouter(h Handlers, opts RouterOptions, logger *zap.Logger) http.Handler {
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.Session(opts.SecureCookies))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(metrics.Middleware(rec))

	limited := func(r chi.Router) chi.Router {
		if opts.Limiter == nil {
			return r
		}
		return r.With(opts.Limiter.Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Catalog.Products)
		r.Get("/products/featured", h.Catalog.Featured)
		r.Get("/products/{id}", h.Catalog.Product)
		r.Get("/categories", h.Catalog.Categories)

		r.Get("/session", h.Auth.Session)
		r.Delete("/session", h.Auth.Reset)
		r.Route("/auth", func(r chi.Router) {
			limited(r).Post("/login", h.Auth.Login)
			limited(r).Post("/register", h.Auth.Register)
			r.Post("/logout", h.Auth.Logout)
		})
		r.Put("/profile", h.Auth.UpdateProfile)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.Get)
			r.Put("/", h.Cart.Replace)
			r.Delete("/", h.Cart.Clear)
			r.Post("/items", h.Cart.AddItem)
			r.Patch("/items", h.Cart.UpdateQuantity)
			r.Delete("/items", h.Cart.RemoveItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.Wishlist.Get)
			r.Post("/items", h.Wishlist.AddItem)
			r.Post("/toggle", h.Wishlist.Toggle)
			r.Delete("/items/{id}", h.Wishlist.RemoveItem)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", h.Addresses.List)
			r.Post("/", h.Addresses.Add)
			r.Put("/{id}", h.Addresses.Update)
			r.Delete("/{id}", h.Addresses.Remove)
			r.Post("/{id}/default", h.Addresses.SetDefault)
		})

		r.Post("/checkout/quote", h.Checkout.Quote)
		limited(r).Post("/checkout", h.Checkout.Place)
		r.Get("/orders", h.Checkout.List)
		r.Get("/tracking/{number}", h.Checkout.Track)
	})

	return r
}
