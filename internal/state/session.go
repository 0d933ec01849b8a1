package state

import (
	"strings"
	"sync"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session tracks at most one authenticated user.
type Session struct {
	mu   sync.Mutex
	user *models.User
	repo *Repository[*models.User]
	log  *zap.Logger
	// newID generates ids for registered users.
	newID func() string
}

func openSession(store Store, log *zap.Logger) (*Session, error) {
	repo := NewRepository[*models.User](store, KeyUser, log)
	u, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if u != nil && (u.ID == "" || u.Email == "") {
		log.Warn("ignoring stored user without id or email")
		u = nil
	}
	return &Session{user: u, repo: repo, log: log, newID: uuid.NewString}, nil
}

// Login sets the session user. No credential check is performed: the user is
// derived from the email alone and the password is ignored.
func (s *Session) Login(email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.User{}, ErrInvalidCredentials
	}
	name, _, _ := strings.Cut(email, "@")
	return s.set(models.User{ID: "1", Name: name, Email: email})
}

// Register sets the session user to a new user with a fresh id.
func (s *Session) Register(name, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.User{}, ErrInvalidCredentials
	}
	return s.set(models.User{ID: s.newID(), Name: strings.TrimSpace(name), Email: email})
}

// UpdateProfile changes the name and email of the current user.
func (s *Session) UpdateProfile(name, email string) (models.User, error) {
	s.mu.Lock()
	cur := s.user
	s.mu.Unlock()
	if cur == nil {
		return models.User{}, ErrNotLoggedIn
	}
	u := *cur
	if name = strings.TrimSpace(name); name != "" {
		u.Name = name
	}
	if email = strings.TrimSpace(email); email != "" {
		u.Email = email
	}
	return s.set(u)
}

func (s *Session) set(u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	if err := s.repo.Save(s.user); err != nil {
		s.log.Warn("session not persisted", zap.Error(err))
		return u, err
	}
	return u, nil
}

// Logout clears the session user and its persisted entry.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	if err := s.repo.Clear(); err != nil {
		s.log.Warn("logout not persisted", zap.Error(err))
		return err
	}
	return nil
}

// User returns the current user, if any.
func (s *Session) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// IsLoggedIn reports whether a user is present.
func (s *Session) IsLoggedIn() bool {
	_, ok := s.User()
	return ok
}
