package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/state"
)

// AddressHandler handles the address book of the session.
type AddressHandler struct {
	Deps
}

func addressList(a *state.Addresses) []models.Address {
	items := a.Items()
	if items == nil {
		items = []models.Address{}
	}
	return items
}

// List handles GET /api/addresses.
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, addressList(app.Addresses))
}

// Add handles POST /api/addresses and answers with the stored address.
func (h *AddressHandler) Add(w http.ResponseWriter, r *http.Request) {
	var addr models.Address
	if !decode(w, r, &addr) {
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	stored, err := app.Addresses.Add(addr)
	h.mutated(w, state.KeyAddresses, err, stored)
}

// Update handles PUT /api/addresses/{id}.
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	var addr models.Address
	if !decode(w, r, &addr) {
		return
	}
	addr.ID = chi.URLParam(r, "id")
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	found, err := app.Addresses.Update(addr)
	if !found {
		writeError(w, http.StatusNotFound, "address_not_found", "address not found")
		return
	}
	h.mutated(w, state.KeyAddresses, err, addressList(app.Addresses))
}

// Remove handles DELETE /api/addresses/{id}.
func (h *AddressHandler) Remove(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.mutated(w, state.KeyAddresses, app.Addresses.Remove(chi.URLParam(r, "id")), addressList(app.Addresses))
}

// SetDefault handles POST /api/addresses/{id}/default.
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	found, err := app.Addresses.SetDefault(chi.URLParam(r, "id"))
	if !found {
		writeError(w, http.StatusNotFound, "address_not_found", "address not found")
		return
	}
	h.mutated(w, state.KeyAddresses, err, addressList(app.Addresses))
}
