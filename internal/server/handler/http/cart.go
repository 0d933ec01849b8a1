package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/storefront/internal/catalog"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/state"
)

// Catalog is the read-only product source of the handlers.
type Catalog interface {
	Query(q catalog.Query) catalog.Page
	Product(id string) (catalog.Product, error)
	Related(id string, n int) []catalog.Product
	Categories() []catalog.Category
	Featured() []catalog.Product
}

// CartHandler handles the cart of the session.
type CartHandler struct {
	Deps
	// Catalog completes items that are given by product id alone.
	Catalog Catalog
}

// cartView is the answer of every cart endpoint.
type cartView struct {
	Items     []models.CartLine `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"itemCount"`
}

func viewCart(c *state.Cart) cartView {
	items := c.Items()
	if items == nil {
		items = []models.CartLine{}
	}
	return cartView{Items: items, Total: c.Total(), ItemCount: c.ItemCount()}
}

// addItemRequest is the payload of POST /api/cart/items. A missing quantity
// adds one unit.
type addItemRequest struct {
	models.CartItem
	Quantity *int `json:"quantity"`
}

// quantityRequest is the payload of PATCH /api/cart/items.
type quantityRequest struct {
	ID       string `json:"id"`
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity"`
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewCart(app.Cart))
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.complete(req.CartItem)
	if err != nil {
		writeErr(w, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.recorder().RecordCartOp("add")
	h.mutated(w, state.KeyCart, app.Cart.AddItem(item, qty), viewCart(app.Cart))
}

// UpdateQuantity handles PATCH /api/cart/items. A quantity of zero or less
// removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decode(w, r, &req) {
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.recorder().RecordCartOp("update")
	h.mutated(w, state.KeyCart, app.Cart.UpdateQuantity(req.ID, req.Variant, req.Quantity), viewCart(app.Cart))
}

// RemoveItem handles DELETE /api/cart/items?id=..&variant=..
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.recorder().RecordCartOp("remove")
	h.mutated(w, state.KeyCart, app.Cart.RemoveItem(id, r.URL.Query().Get("variant")), viewCart(app.Cart))
}

// Replace handles PUT /api/cart. The body is the full list of lines.
func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var lines []models.CartLine
	if !decode(w, r, &lines) {
		return
	}
	for _, l := range lines {
		if l.Price < 0 {
			writeErr(w, fmt.Errorf("line %s: %w", l.ID, state.ErrInvalidPrice))
			return
		}
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.recorder().RecordCartOp("replace")
	h.mutated(w, state.KeyCart, app.Cart.Replace(lines), viewCart(app.Cart))
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.recorder().RecordCartOp("clear")
	h.mutated(w, state.KeyCart, app.Cart.Clear(), viewCart(app.Cart))
}

// complete fills an item given by id alone from the catalog.
func (h *CartHandler) complete(item models.CartItem) (models.CartItem, error) {
	if item.Name != "" || h.Catalog == nil {
		return item, nil
	}
	p, err := h.Catalog.Product(item.ID)
	if err != nil {
		return models.CartItem{}, err
	}
	return p.CartItem(item.Variant), nil
}

// WishlistHandler handles the wishlist of the session.
type WishlistHandler struct {
	Deps
	// Catalog completes entries that are given by product id alone.
	Catalog Catalog
}

// wishlistView is the answer of every wishlist endpoint.
type wishlistView struct {
	Items []models.WishlistEntry `json:"items"`
	Count int                    `json:"count"`
	// Added is set by toggle: true when the entry was added.
	Added *bool `json:"added,omitempty"`
}

func viewWishlist(wl *state.Wishlist) wishlistView {
	items := wl.Items()
	if items == nil {
		items = []models.WishlistEntry{}
	}
	return wishlistView{Items: items, Count: wl.Count()}
}

// Get handles GET /api/wishlist.
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewWishlist(app.Wishlist))
}

// AddItem handles POST /api/wishlist/items. Adding a saved product is a no-op.
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.recorder().RecordCartOp("wishlist_add")
	h.mutated(w, state.KeyWishlist, app.Wishlist.AddItem(entry), viewWishlist(app.Wishlist))
}

// Toggle handles POST /api/wishlist/toggle.
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.entry(w, r)
	if !ok {
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.recorder().RecordCartOp("wishlist_toggle")
	added, err := app.Wishlist.Toggle(entry)
	view := viewWishlist(app.Wishlist)
	view.Added = &added
	h.mutated(w, state.KeyWishlist, err, view)
}

// RemoveItem handles DELETE /api/wishlist/items/{id}.
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.recorder().RecordCartOp("wishlist_remove")
	h.mutated(w, state.KeyWishlist, app.Wishlist.RemoveItem(chi.URLParam(r, "id")), viewWishlist(app.Wishlist))
}

func (h *WishlistHandler) entry(w http.ResponseWriter, r *http.Request) (models.WishlistEntry, bool) {
	var e models.WishlistEntry
	if !decode(w, r, &e) {
		return e, false
	}
	if e.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return e, false
	}
	if e.Name == "" && h.Catalog != nil {
		p, err := h.Catalog.Product(e.ID)
		if err != nil {
			writeErr(w, err)
			return e, false
		}
		e = p.WishlistEntry()
	}
	return e, true
}
