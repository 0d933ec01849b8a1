package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/atinyakov/storefront/internal/models"
)

// Order history sort orders.
const (
	SortDateDesc  = "date-desc"
	SortDateAsc   = "date-asc"
	SortTotalDesc = "total-desc"
	SortTotalAsc  = "total-asc"
)

// ErrTrackingNotFound is returned when no shipment matches a number.
var ErrTrackingNotFound = errors.New("tracking number not found")

// Catalog is the read-only source of demo orders and shipments.
type Catalog interface {
	DemoOrders() []models.Order
	Tracking(number string) (models.TrackingInfo, bool)
}

// OrderService lists order history and tracks shipments.
type OrderService struct {
	catalog Catalog
	delay   time.Duration
}

// NewOrderService constructs an OrderService. Tracking lookups wait delay
// before answering.
func NewOrderService(catalog Catalog, delay time.Duration) *OrderService {
	return &OrderService{catalog: catalog, delay: delay}
}

// List returns the session's orders followed by the demo orders, filtered
// by status (empty or "all" keeps everything, case is ignored) and sorted.
// An unknown sort keeps newest first.
func (s *OrderService) List(orders OrderBook, status, sortBy string) []models.Order {
	all := append(orders.Items(), s.catalog.DemoOrders()...)

	out := all[:0]
	for _, o := range all {
		if status == "" || strings.EqualFold(status, "all") || strings.EqualFold(status, o.Status) {
			out = append(out, o)
		}
	}

	slices.SortStableFunc(out, func(a, b models.Order) int {
		switch sortBy {
		case SortDateAsc:
			return a.Date.Compare(b.Date)
		case SortTotalDesc:
			return cmp.Compare(b.Total, a.Total)
		case SortTotalAsc:
			return cmp.Compare(a.Total, b.Total)
		default:
			return b.Date.Compare(a.Date)
		}
	})
	return out
}

// Track looks a shipment up by order number or tracking number. Orders
// placed in this session that have no carrier record yet are reported as
// awaiting pickup.
func (s *OrderService) Track(ctx context.Context, orders OrderBook, number string) (models.TrackingInfo, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return models.TrackingInfo{}, ErrTrackingNotFound
	}
	if err := wait(ctx, s.delay); err != nil {
		return models.TrackingInfo{}, err
	}

	if info, ok := s.catalog.Tracking(number); ok {
		return info, nil
	}
	o, ok := orders.Find(number)
	if !ok {
		return models.TrackingInfo{}, ErrTrackingNotFound
	}
	return models.TrackingInfo{
		OrderNumber:       o.OrderNumber,
		TrackingNumber:    o.TrackingNumber,
		Status:            o.Status,
		EstimatedDelivery: o.Date.AddDate(0, 0, transitDays(o.ShippingMethod)),
		Carrier:           "FedEx",
		Timeline: []models.TrackingEvent{{
			Date:        o.Date,
			Status:      "Order Placed",
			Location:    "Online",
			Description: "Your order has been received and is being prepared",
		}},
	}, nil
}

// transitDays is the upper bound of the delivery window of a shipping method.
func transitDays(method string) int {
	switch method {
	case ShippingOvernight:
		return 1
	case ShippingExpress:
		return 3
	default:
		return 7
	}
}
