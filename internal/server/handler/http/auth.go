package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/atinyakov/storefront/internal/state"
)

// AuthService defines the sign-in operations required by the AuthHandler.
type AuthService interface {
	Login(ctx context.Context, sess service.SessionState, email, password string) (models.User, error)
	Register(ctx context.Context, sess service.SessionState, name, email, password string) (models.User, error)
	UpdateProfile(sess service.SessionState, name, email string) (models.User, error)
	Logout(sess service.SessionState) error
}

// AuthHandler handles the session user: sign-in, registration, sign-out and
// profile changes.
type AuthHandler struct {
	Deps
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// credentials is the JSON payload of login and registration.
type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionView is the answer of every session endpoint.
type sessionView struct {
	User       *models.User `json:"user"`
	IsLoggedIn bool         `json:"isLoggedIn"`
}

func viewSession(s *state.Session) sessionView {
	u, ok := s.User()
	if !ok {
		return sessionView{}
	}
	return sessionView{User: &u, IsLoggedIn: true}
}

// Session handles GET /api/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewSession(app.Session))
}

// Reset handles DELETE /api/session. The user is signed out and every
// collection of the session is cleared.
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.mutated(w, "session", app.Reset(), viewSession(app.Session))
}

// Login handles POST /api/auth/login.
// It expects a JSON body with "email" and "password". Any non-empty email
// signs in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	_, err := h.AuthService.Login(r.Context(), app.Session, req.Email, req.Password)
	h.mutated(w, state.KeyUser, err, viewSession(app.Session))
}

// Register handles POST /api/auth/register.
// It expects a JSON body with "name", "email" and "password".
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	_, err := h.AuthService.Register(r.Context(), app.Session, req.Name, req.Email, req.Password)
	h.mutated(w, state.KeyUser, err, viewSession(app.Session))
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	h.mutated(w, state.KeyUser, h.AuthService.Logout(app.Session), viewSession(app.Session))
}

// UpdateProfile handles PUT /api/profile.
// Empty fields keep their current value.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	app, ok := h.open(w, r)
	if !ok {
		return
	}
	_, err := h.AuthService.UpdateProfile(app.Session, req.Name, req.Email)
	h.mutated(w, state.KeyUser, err, viewSession(app.Session))
}
