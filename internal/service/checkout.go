package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/atinyakov/storefront/internal/models"
)

// Shipping methods and their flat prices.
const (
	ShippingStandard  = "standard"
	ShippingExpress   = "express"
	ShippingOvernight = "overnight"
)

var shippingRates = map[string]float64{
	ShippingStandard:  0,
	ShippingExpress:   15.99,
	ShippingOvernight: 29.99,
}

const (
	// TaxRate applies to the subtotal before any discount.
	TaxRate = 0.08
	// PromoCode takes PromoRate off the subtotal. Matched ignoring case.
	PromoCode = "SAVE10"
	PromoRate = 0.10
)

var (
	// ErrEmptyCart is returned when checking out a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnknownShipping is returned for a shipping method outside the rate table.
	ErrUnknownShipping = errors.New("unknown shipping method")
)

var (
	phoneRe  = regexp.MustCompile(`^[0-9]{10}$`)
	zipRe    = regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`)
	cardRe   = regexp.MustCompile(`^[0-9]{16}$`)
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvvRe    = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// ValidationError lists the checkout form fields that were rejected, keyed
// by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid checkout form: " + strings.Join(parts, "; ")
}

// CheckoutService prices carts and places simulated orders.
type CheckoutService struct {
	delay time.Duration
	now   func() time.Time
	// digits returns n random decimal digits.
	digits func(n int) string
}

// NewCheckoutService constructs a CheckoutService that spends delay
// "processing the payment" on every order.
func NewCheckoutService(delay time.Duration) *CheckoutService {
	return &CheckoutService{delay: delay, now: time.Now, digits: randomDigits}
}

// Quote prices a subtotal for the given shipping method and promo code.
// An empty method is standard shipping.
func (s *CheckoutService) Quote(subtotal float64, method, promo string) (models.Quote, error) {
	if method == "" {
		method = ShippingStandard
	}
	rate, ok := shippingRates[method]
	if !ok {
		return models.Quote{}, fmt.Errorf("%q: %w", method, ErrUnknownShipping)
	}

	q := models.Quote{
		Subtotal: cents(subtotal),
		Shipping: rate,
		Tax:      cents(subtotal * TaxRate),
	}
	var discount float64
	if strings.EqualFold(strings.TrimSpace(promo), PromoCode) {
		discount = subtotal * PromoRate
		q.PromoApplied = true
		q.Discount = cents(discount)
	}
	q.Total = cents(subtotal + rate + subtotal*TaxRate - discount)
	return q, nil
}

// Validate checks the shipping and payment forms. Card fields are only
// required when paying by card.
func (s *CheckoutService) Validate(req models.CheckoutRequest) error {
	fields := map[string]string{}
	check := func(field string, ok bool, msg string) {
		if !ok {
			if _, seen := fields[field]; !seen {
				fields[field] = msg
			}
		}
	}

	sh := req.Shipping
	check("firstName", len(strings.TrimSpace(sh.FirstName)) >= 2, "must be at least 2 characters")
	check("lastName", len(strings.TrimSpace(sh.LastName)) >= 2, "must be at least 2 characters")
	_, err := mail.ParseAddress(sh.Email)
	check("email", sh.Email != "" && err == nil, "invalid email address")
	check("phone", phoneRe.MatchString(sh.Phone), "must be 10 digits")
	check("address", len(strings.TrimSpace(sh.Address)) >= 5, "must be at least 5 characters")
	check("city", strings.TrimSpace(sh.City) != "", "is required")
	check("state", strings.TrimSpace(sh.State) != "", "is required")
	check("zipCode", zipRe.MatchString(sh.ZipCode), "invalid ZIP code format")
	check("country", strings.TrimSpace(sh.Country) != "", "is required")

	pay := req.Payment
	if pay.Method == "" || pay.Method == "card" {
		check("cardNumber", cardRe.MatchString(strings.ReplaceAll(pay.CardNumber, " ", "")), "must be 16 digits")
		check("expiryDate", expiryRe.MatchString(pay.ExpiryDate), "invalid expiry date format (MM/YY)")
		check("cvv", cvvRe.MatchString(pay.CVV), "must be 3 or 4 digits")
		check("cardName", len(strings.TrimSpace(pay.CardName)) >= 2, "must be at least 2 characters")
	} else {
		check("method", pay.Method == "paypal", "unsupported payment method")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// PlaceOrder turns the cart into an order: the cart is priced and validated,
// the payment is "processed", the order is recorded in orders and the cart
// is emptied. A failure to persist the cleared cart or the recorded order is
// returned together with the placed order.
func (s *CheckoutService) PlaceOrder(ctx context.Context, cart CartState, orders OrderBook, req models.CheckoutRequest) (models.Order, error) {
	lines := cart.Items()
	if len(lines) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	quote, err := s.Quote(cart.Total(), req.ShippingMethod, req.PromoCode)
	if err != nil {
		return models.Order{}, err
	}
	if err := s.Validate(req); err != nil {
		return models.Order{}, err
	}
	if err := wait(ctx, s.delay); err != nil {
		return models.Order{}, err
	}

	now := s.now()
	method := req.ShippingMethod
	if method == "" {
		method = ShippingStandard
	}
	order := models.Order{
		ID:          fmt.Sprintf("%d", now.UnixMilli()),
		OrderNumber: fmt.Sprintf("HD%06d", now.UnixMilli()%1_000_000),
		Date:        now.UTC(),
		Status:      models.StatusProcessing,
		ShippingAddress: models.ShippingAddress{
			Name:    strings.TrimSpace(req.Shipping.FirstName + " " + req.Shipping.LastName),
			Address: req.Shipping.Address,
			City:    req.Shipping.City,
			State:   req.Shipping.State,
			ZipCode: req.Shipping.ZipCode,
		},
		TrackingNumber: "TRK" + s.digits(9),
		ShippingMethod: method,
		Quote:          &quote,
		Total:          quote.Total,
	}
	for _, l := range lines {
		order.Items = append(order.Items, models.OrderLine{
			ID:       l.ID,
			Name:     l.Name,
			Image:    l.Image,
			Variant:  l.Variant,
			Quantity: l.Quantity,
			Price:    l.Price,
		})
	}

	err = multierr.Append(orders.Record(order), cart.Clear())
	return order, err
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}

func randomDigits(n int) string {
	var b strings.Builder
	for range n {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}
