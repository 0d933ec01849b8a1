// Package catalog holds the read-only product data of the storefront: the
// products and categories, plus the demo orders and shipment record the shop
// shows before anything has been bought.
package catalog

import (
	"bytes"
	"cmp"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/atinyakov/storefront/internal/models"
)

//go:embed catalog.yaml
var defaultDocument []byte

// Defaults of a product listing query.
const (
	DefaultPerPage  = 12
	DefaultMinPrice = 0
	DefaultMaxPrice = 500
)

// Sort orders accepted by Query.
const (
	SortFeatured  = "featured"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// ErrNotFound is returned when a product id is unknown.
var ErrNotFound = errors.New("product not found")

// Product is an immutable catalog record.
type Product struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Price         float64  `json:"price" yaml:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty" yaml:"original_price"`
	Category      string   `json:"category" yaml:"category"`
	Rating        float64  `json:"rating" yaml:"rating"`
	Reviews       int      `json:"reviews" yaml:"reviews"`
	IsNew         bool     `json:"isNew" yaml:"new"`
	OnSale        bool     `json:"onSale" yaml:"on_sale"`
	Featured      bool     `json:"featured" yaml:"featured"`
	Image         string   `json:"image" yaml:"image"`
	Description   string   `json:"description" yaml:"description"`
}

// CartItem is the cart form of the product.
func (p Product) CartItem(variant string) models.CartItem {
	return models.CartItem{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image, Variant: variant}
}

// WishlistEntry is the wishlist form of the product.
func (p Product) WishlistEntry() models.WishlistEntry {
	return models.WishlistEntry{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image, Category: p.Category}
}

// Category groups products on the home page.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
	Image string `json:"image" yaml:"image"`
}

type document struct {
	Products   []Product             `yaml:"products"`
	Categories []Category            `yaml:"categories"`
	DemoOrders []models.Order        `yaml:"demo_orders"`
	Tracking   []models.TrackingInfo `yaml:"tracking"`
}

// Catalog is the loaded data. It is never modified after Load, so a single
// value may be shared by every request.
type Catalog struct {
	products   []Product
	byID       map[string]int
	categories []Category
	orders     []models.Order
	tracking   []models.TrackingInfo
}

// Load parses a catalog document.
func Load(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		products:   doc.Products,
		byID:       make(map[string]int, len(doc.Products)),
		categories: doc.Categories,
		orders:     doc.DemoOrders,
		tracking:   doc.Tracking,
	}
	for i, p := range doc.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %d: empty id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("product %s: duplicate id", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultDocument)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Featured returns the products shown on the home page.
func (c *Catalog) Featured() []Product {
	var out []Product
	for _, p := range c.products {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the product categories.
func (c *Catalog) Categories() []Category {
	return slices.Clone(c.categories)
}

// Product looks a product up by id.
func (c *Catalog) Product(id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return c.products[i], nil
}

// Related returns up to n other products of the same category.
func (c *Catalog) Related(id string, n int) []Product {
	p, err := c.Product(id)
	if err != nil {
		return nil
	}
	var out []Product
	for _, o := range c.products {
		if len(out) == n {
			break
		}
		if o.ID != p.ID && o.Category == p.Category {
			out = append(out, o)
		}
	}
	return out
}

// Query selects a page of products.
type Query struct {
	// Category matches the product category case-insensitively; empty or
	// "all" matches everything.
	Category string
	MinPrice float64
	MaxPrice float64
	Sort     string
	// Page is 1-based.
	Page    int
	PerPage int
}

// DefaultQuery is the listing shown before the shopper touches a filter.
func DefaultQuery() Query {
	return Query{
		MinPrice: DefaultMinPrice,
		MaxPrice: DefaultMaxPrice,
		Sort:     SortFeatured,
		Page:     1,
		PerPage:  DefaultPerPage,
	}
}

// Page is one page of a product listing.
type Page struct {
	Items []Product `json:"items"`
	// Total counts every product matching the filters.
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// Query filters, sorts and paginates the catalog. Out of range pages are
// empty, not an error.
func (c *Catalog) Query(q Query) Page {
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.MaxPrice <= 0 {
		q.MaxPrice = DefaultMaxPrice
	}

	matched := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if q.Category != "" && !strings.EqualFold(q.Category, "all") && !strings.EqualFold(q.Category, p.Category) {
			continue
		}
		if p.Price < q.MinPrice || p.Price > q.MaxPrice {
			continue
		}
		matched = append(matched, p)
	}

	switch q.Sort {
	case SortPriceLow:
		slices.SortStableFunc(matched, func(a, b Product) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(matched, func(a, b Product) int { return cmp.Compare(b.Price, a.Price) })
	case SortRating:
		slices.SortStableFunc(matched, func(a, b Product) int { return cmp.Compare(b.Rating, a.Rating) })
	case SortNewest:
		slices.SortStableFunc(matched, func(a, b Product) int { return boolRank(b.IsNew) - boolRank(a.IsNew) })
	}

	page := Page{
		Total: len(matched),
		Page:  q.Page,
		Pages: int(math.Ceil(float64(len(matched)) / float64(q.PerPage))),
		Items: []Product{},
	}
	if q.Page > page.Pages {
		return page
	}
	start := (q.Page - 1) * q.PerPage
	end := start + min(q.PerPage, len(matched)-start)
	page.Items = matched[start:end]
	return page
}

// DemoOrders returns the sample order history.
func (c *Catalog) DemoOrders() []models.Order {
	return slices.Clone(c.orders)
}

// Tracking returns the shipment record whose order or tracking number
// matches number, ignoring case.
func (c *Catalog) Tracking(number string) (models.TrackingInfo, bool) {
	for _, t := range c.tracking {
		if strings.EqualFold(t.OrderNumber, number) || strings.EqualFold(t.TrackingNumber, number) {
			return t, true
		}
	}
	return models.TrackingInfo{}, false
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
