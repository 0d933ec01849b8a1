package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/atinyakov/storefront/internal/state"
)

// CheckoutService defines the pricing and order placement operations
// required by the CheckoutHandler.
type CheckoutService interface {
	Quote(subtotal float64, method, promo string) (models.Quote, error)
	PlaceOrder(ctx context.Context, cart service.CartState, orders service.OrderBook, req models.CheckoutRequest) (models.Order, error)
}

// OrderService defines the order history and tracking operations required
// by the CheckoutHandler.
type OrderService interface {
	List(orders service.OrderBook, status, sortBy string) []models.Order
	Track(ctx context.Context, orders service.OrderBook, number string) (models.TrackingInfo, error)
}

// CheckoutHandler handles checkout, order history and shipment tracking.
type CheckoutHandler struct {
	Deps
	Checkout CheckoutService
	Orders   OrderService
}

// Quote handles POST /api/checkout/quote. It prices the session's cart for
// the shipping method and promo code of the body without placing an order.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	q, err := h.Checkout.Quote(app.Cart.Total(), req.ShippingMethod, req.PromoCode)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Place handles POST /api/checkout. On success the cart is empty, the order
// is in the session's history and the response is 201 with the order.
func (h *CheckoutHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}

	order, err := h.Checkout.PlaceOrder(r.Context(), app.Cart, app.Orders, req)
	if err != nil && !errors.Is(err, state.ErrPersist) {
		writeErr(w, err)
		return
	}
	h.recorder().RecordOrderPlaced(order.Total)
	h.logger().Info("order placed",
		zap.String("order", order.OrderNumber),
		zap.Float64("total", order.Total),
	)
	if err != nil {
		h.logger().Warn("order state not persisted", zap.Error(err))
		h.recorder().RecordPersistFailure(state.KeyOrders)
		w.Header().Set(PersistWarningHeader, state.KeyOrders)
	}
	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders?status=&sort=.
func (h *CheckoutHandler) List(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	orders := h.Orders.List(app.Orders, r.URL.Query().Get("status"), r.URL.Query().Get("sort"))
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// Track handles GET /api/tracking/{number}.
func (h *CheckoutHandler) Track(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	number := chi.URLParam(r, "number")
	if r.URL.RawPath != "" {
		// chi matched the escaped path, so the segment is still escaped
		if unescaped, err := url.PathUnescape(number); err == nil {
			number = unescaped
		}
	}
	info, err := h.Orders.Track(r.Context(), app.Orders, number)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
