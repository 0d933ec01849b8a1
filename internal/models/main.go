// Package models defines the core data structures shared by the storefront
// state, the HTTP API and the command-line client.
package models

import "time"

// User is the authenticated shopper. It is fabricated client-side on login or
// registration; when present, ID and Email are non-empty.
type User struct {
	// ID identifies the user within a session.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is the login address.
	Email string `json:"email"`
}

// CartItem describes a product as it is added to the cart.
type CartItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
	// Variant is optional; the empty string means "no variant" and is a
	// distinct identity from every named variant.
	Variant string `json:"variant,omitempty"`
}

// CartLine is one row of the cart. Lines are identified by (ID, Variant).
type CartLine struct {
	CartItem
	// Quantity is always >= 1 for a stored line.
	Quantity int `json:"quantity"`
}

// Key returns the identity key of the line.
func (l CartLine) Key() LineKey {
	return LineKey{ID: l.ID, Variant: l.Variant}
}

// LineKey is the (id, variant) identity of a cart line.
type LineKey struct {
	ID      string
	Variant string
}

// WishlistEntry is a saved product reference, identified by ID alone.
type WishlistEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
}

// Address is an entry of the address book.
type Address struct {
	ID        string `json:"id"`
	Type      string `json:"type"` // "Home", "Work", ...
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"isDefault"`
}

// ShippingAddress is the short address printed on an order.
type ShippingAddress struct {
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
	City    string `json:"city" yaml:"city"`
	State   string `json:"state" yaml:"state"`
	ZipCode string `json:"zipCode" yaml:"zip_code"`
}

// OrderLine is a purchased product on an order.
type OrderLine struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Image    string  `json:"image,omitempty" yaml:"image"`
	Variant  string  `json:"variant,omitempty" yaml:"variant"`
	Quantity int     `json:"quantity" yaml:"quantity"`
	Price    float64 `json:"price" yaml:"price"`
}

// Order is a placed (simulated) order.
type Order struct {
	ID              string          `json:"id" yaml:"id"`
	OrderNumber     string          `json:"orderNumber" yaml:"order_number"`
	Date            time.Time       `json:"date" yaml:"date"`
	Status          string          `json:"status" yaml:"status"`
	Items           []OrderLine     `json:"items" yaml:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress" yaml:"shipping_address"`
	TrackingNumber  string          `json:"trackingNumber,omitempty" yaml:"tracking_number"`
	ShippingMethod  string          `json:"shippingMethod,omitempty" yaml:"shipping_method"`
	Quote           *Quote          `json:"quote,omitempty" yaml:"-"`
	Total           float64         `json:"total" yaml:"total"`
}

// Order statuses used by the storefront.
const (
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
)

// TrackingEvent is one step of a shipment timeline.
type TrackingEvent struct {
	Date        time.Time `json:"date" yaml:"date"`
	Status      string    `json:"status" yaml:"status"`
	Location    string    `json:"location" yaml:"location"`
	Description string    `json:"description" yaml:"description"`
}

// TrackingInfo is the shipment state of an order.
type TrackingInfo struct {
	OrderNumber       string          `json:"orderNumber" yaml:"order_number"`
	TrackingNumber    string          `json:"trackingNumber" yaml:"tracking_number"`
	Status            string          `json:"status" yaml:"status"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery" yaml:"estimated_delivery"`
	Carrier           string          `json:"carrier" yaml:"carrier"`
	Timeline          []TrackingEvent `json:"timeline" yaml:"timeline"`
}

// ShippingDetails is the shipping form of the checkout.
type ShippingDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// PaymentDetails is the payment form of the checkout. Nothing is charged.
type PaymentDetails struct {
	Method     string `json:"method"` // "card" or "paypal"
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"` // MM/YY
	CVV        string `json:"cvv"`
	CardName   string `json:"cardName"`
}

// CheckoutRequest is what the shopper submits to place an order.
type CheckoutRequest struct {
	Shipping       ShippingDetails `json:"shipping"`
	Payment        PaymentDetails  `json:"payment"`
	ShippingMethod string          `json:"shippingMethod"`
	PromoCode      string          `json:"promoCode,omitempty"`
}

// Quote is the price breakdown of a cart at checkout.
type Quote struct {
	Subtotal     float64 `json:"subtotal"`
	Shipping     float64 `json:"shipping"`
	Tax          float64 `json:"tax"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`
	PromoApplied bool    `json:"promoApplied"`
}
