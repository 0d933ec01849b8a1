package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/storefront/internal/catalog"
)

const relatedProducts = 4

// CatalogHandler serves the read-only product catalog. It needs no session.
type CatalogHandler struct {
	Catalog Catalog
}

// productView is a product with its related products.
type productView struct {
	catalog.Product
	Related []catalog.Product `json:"related"`
}

// Products handles GET /api/products?category=&min=&max=&sort=&page=.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	q := catalog.DefaultQuery()
	params := r.URL.Query()
	q.Category = params.Get("category")
	if s := params.Get("sort"); s != "" {
		q.Sort = s
	}

	var err error
	if q.MinPrice, err = floatParam(params.Get("min"), q.MinPrice); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "min must be a number")
		return
	}
	if q.MaxPrice, err = floatParam(params.Get("max"), q.MaxPrice); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "max must be a number")
		return
	}
	if p := params.Get("page"); p != "" {
		if q.Page, err = strconv.Atoi(p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "page must be an integer")
			return
		}
	}

	writeJSON(w, http.StatusOK, h.Catalog.Query(q))
}

// Product handles GET /api/products/{id}.
func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.Catalog.Product(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	related := h.Catalog.Related(id, relatedProducts)
	if related == nil {
		related = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, productView{Product: p, Related: related})
}

// Featured handles GET /api/products/featured.
func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	items := h.Catalog.Featured()
	if items == nil {
		items = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Categories handles GET /api/categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Categories())
}

func floatParam(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}
