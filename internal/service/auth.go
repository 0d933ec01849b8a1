package service

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/atinyakov/storefront/internal/models"
)

// AuthService signs shoppers in and out. No credentials are checked.
type AuthService struct {
	delay  time.Duration
	policy *bluemonday.Policy
}

// NewAuthService constructs an AuthService that waits delay before each
// sign-in, the way a remote identity provider would.
func NewAuthService(delay time.Duration) *AuthService {
	return &AuthService{delay: delay, policy: bluemonday.StrictPolicy()}
}

// Login signs the shopper in with email.
func (s *AuthService) Login(ctx context.Context, sess SessionState, email, password string) (models.User, error) {
	if err := wait(ctx, s.delay); err != nil {
		return models.User{}, err
	}
	return sess.Login(strings.TrimSpace(email), password)
}

// Register creates a new shopper and signs them in.
func (s *AuthService) Register(ctx context.Context, sess SessionState, name, email, password string) (models.User, error) {
	if err := wait(ctx, s.delay); err != nil {
		return models.User{}, err
	}
	return sess.Register(s.clean(name), strings.TrimSpace(email), password)
}

// UpdateProfile changes the display name and email of the signed-in shopper.
func (s *AuthService) UpdateProfile(sess SessionState, name, email string) (models.User, error) {
	return sess.UpdateProfile(s.clean(name), strings.TrimSpace(email))
}

// Logout signs the shopper out.
func (s *AuthService) Logout(sess SessionState) error {
	return sess.Logout()
}

// clean strips markup from a display name. The policy escapes the text it
// keeps, so the result is unescaped back to plain text.
func (s *AuthService) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}
