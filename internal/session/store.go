// ABOUTME: Session store owning the authenticated token and role
// ABOUTME: Login, register, logout and current-user resolution with persistence

package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/markalston/crediteval/internal/client"
	"github.com/markalston/crediteval/internal/forms"
)

// Session is the persisted credential. A session with a token always has a role.
type Session struct {
	Token string      `json:"token"`
	Role  client.Role `json:"role"`

	// User is the profile from the last auth response; it is not persisted
	User *client.User `json:"-"`
}

// API is the subset of the backend client the store needs
type API interface {
	Login(ctx context.Context, creds client.Credentials) (*client.AuthResponse, error)
	Register(ctx context.Context, profile client.Profile) (*client.AuthResponse, error)
	Me(ctx context.Context) (*client.User, error)
	SetToken(token string)
}

// Store is the single owner of session state
type Store struct {
	api     API
	persist Persister
	now     func() time.Time

	mu      sync.Mutex
	current *Session
}

// Open restores any persisted session and installs its token on the client.
// An unreadable session file is treated as no session.
func Open(api API, persist Persister) *Store {
	s := &Store{
		api:     api,
		persist: persist,
		now:     time.Now,
	}

	sess, err := persist.Load()
	if err != nil {
		slog.Warn("discarding unreadable session", "error", err)
		sess = nil
	}
	if sess != nil && sess.Token != "" {
		sess.Role = sess.Role.OrDefault()
		sess.User = nil
		s.current = sess
		api.SetToken(sess.Token)
	}
	return s
}

// Session returns a copy of the current session, or nil when logged out
func (s *Store) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Login authenticates and persists the resulting session
func (s *Store) Login(ctx context.Context, creds client.Credentials) (*Session, error) {
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		slog.Info("login failed", "email", creds.Email, "error", err)
		return nil, err
	}
	return s.establish(resp)
}

// Register validates the form locally, creates the account and logs in.
// Validation failures never reach the backend.
func (s *Store) Register(ctx context.Context, reg forms.Registration) (*Session, error) {
	profile, err := forms.ValidateRegistration(reg)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.Register(ctx, profile)
	if err != nil {
		slog.Info("registration failed", "email", profile.Email, "error", err)
		return nil, err
	}
	return s.establish(resp)
}

// Logout clears the session and the client's credential
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// CurrentUser resolves the logged-in user. It never fails: an expired token
// or any backend error clears the session and returns nil.
func (s *Store) CurrentUser(ctx context.Context) *client.User {
	sess := s.Session()
	if sess == nil {
		return nil
	}

	if s.expired(sess.Token) {
		slog.Info("session token expired")
		s.clearIfToken(sess.Token)
		return nil
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		slog.Warn("current user lookup failed, clearing session", "error", err)
		s.clearIfToken(sess.Token)
		return nil
	}

	if !user.Role.Valid() {
		user.Role = sess.Role.OrDefault()
	} else if user.Role != sess.Role {
		s.updateRole(sess.Token, user.Role)
	}

	s.mu.Lock()
	if s.current != nil && s.current.Token == sess.Token {
		u := *user
		s.current.User = &u
	}
	s.mu.Unlock()
	return user
}

func (s *Store) establish(resp *client.AuthResponse) (*Session, error) {
	if resp.Token == "" {
		return nil, &client.BackendError{Status: http.StatusOK, Message: "No token received from server"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	role := resp.User.Role
	if !role.Valid() {
		if s.current != nil {
			role = s.current.Role
		}
		role = role.OrDefault()
	}
	user := resp.User
	user.Role = role

	s.current = &Session{Token: resp.Token, Role: role, User: &user}
	s.api.SetToken(resp.Token)
	slog.Info("session established", "username", user.Username, "role", role)

	if err := s.persist.Save(Session{Token: resp.Token, Role: role}); err != nil {
		cp := *s.current
		return &cp, fmt.Errorf("failed to save session: %w", err)
	}
	cp := *s.current
	return &cp, nil
}

// expired reports whether token is a JWT whose exp claim has passed.
// Tokens that are not JWTs are left to the backend to judge.
func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

func (s *Store) updateRole(token string, role client.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Token != token {
		return
	}
	s.current.Role = role
	if err := s.persist.Save(Session{Token: token, Role: role}); err != nil {
		slog.Warn("failed to persist refreshed role", "error", err)
	}
}

// clearIfToken logs out only if the session was not replaced meanwhile
func (s *Store) clearIfToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.Token == token {
		s.clearLocked()
	}
}

func (s *Store) clearLocked() {
	s.current = nil
	s.api.SetToken("")
	if err := s.persist.Clear(); err != nil {
		slog.Warn("failed to clear session file", "error", err)
	}
}
