// Package http provides the HTTP handlers and routing of the storefront
// API. Each request opens the state container of its session, applies one
// operation and answers with the resulting state.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/catalog"
	"github.com/atinyakov/storefront/internal/metrics"
	"github.com/atinyakov/storefront/internal/middleware"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/atinyakov/storefront/internal/state"
)

// PersistWarningHeader is set on a successful response whose change could
// not be written to the store.
const PersistWarningHeader = "X-Persist-Warning"

const maxBodyBytes = 1 << 20

// StateOpener opens the state container of a session.
type StateOpener interface {
	Open(ctx context.Context, sessionID string) (*state.App, error)
}

// StoreFunc returns the store of a session, bound to ctx.
type StoreFunc func(ctx context.Context, sessionID string) state.Store

// Opener opens state containers over the stores returned by Store.
type Opener struct {
	Store StoreFunc
	Log   *zap.Logger
}

// Open implements StateOpener.
func (o Opener) Open(ctx context.Context, sessionID string) (*state.App, error) {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	return state.Open(o.Store(ctx, sessionID), state.WithLogger(log.With(zap.String("session", sessionID))))
}

// Deps is what every stateful handler needs.
type Deps struct {
	Opener  StateOpener
	Metrics metrics.Recorder
	Log     *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func (d Deps) recorder() metrics.Recorder {
	if d.Metrics == nil {
		return metrics.Nop{}
	}
	return d.Metrics
}

// open loads the caller's session state. On failure the response has been
// written and ok is false.
func (d Deps) open(w http.ResponseWriter, r *http.Request) (app *state.App, ok bool) {
	sid := middleware.GetSessionIDFromContext(r.Context())
	if sid == "" {
		writeError(w, http.StatusInternalServerError, "no_session", "session missing")
		return nil, false
	}
	app, err := d.Opener.Open(r.Context(), sid)
	if err != nil {
		d.logger().Error("cannot open session state", zap.String("session", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "state_unavailable", "session state unavailable")
		return nil, false
	}
	return app, true
}

// mutated answers a state change. A change that was applied but not
// persisted still succeeds, flagged by PersistWarningHeader.
func (d Deps) mutated(w http.ResponseWriter, key string, err error, body any) {
	if err != nil && !errors.Is(err, state.ErrPersist) {
		writeErr(w, err)
		return
	}
	if err != nil {
		d.logger().Warn("state change not persisted", zap.String("key", key), zap.Error(err))
		d.recorder().RecordPersistFailure(key)
		w.Header().Set(PersistWarningHeader, key)
	}
	writeJSON(w, http.StatusOK, body)
}

// apiError is the body of every error response.
type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Code: code, Message: message})
}

// writeErr maps err to a status and error code.
func writeErr(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, apiError{Code: "invalid_form", Message: err.Error(), Fields: verr.Fields})
	case errors.Is(err, state.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, state.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.Is(err, state.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "invalid_credentials", err.Error())
	case errors.Is(err, service.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, service.ErrUnknownShipping):
		writeError(w, http.StatusBadRequest, "unknown_shipping", err.Error())
	case errors.Is(err, state.ErrNotLoggedIn):
		writeError(w, http.StatusConflict, "not_logged_in", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, service.ErrTrackingNotFound):
		writeError(w, http.StatusNotFound, "tracking_not_found", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "canceled", "request canceled")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// decode reads a JSON body into v. On failure a 400 has been written.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return false
	}
	return true
}
