// Package session owns the client's authentication state. Every data call
// goes through Guard.Do, which is the one place a 401 is turned into a
// forced return to the login screen.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/naveenspark/homedash/pkg/client"
	"github.com/naveenspark/homedash/pkg/domain"
)

var (
	// ErrExpired is returned by Do when the server answered 401. The session
	// has already been cleared and listeners notified.
	ErrExpired = errors.New("session expired")

	// ErrInvalidCredentials is returned by Login on a 401.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Transport is the subset of *client.Client the guard needs.
type Transport interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// Status is the result of a session probe.
type Status struct {
	Authenticated bool
	User          *domain.User
}

type checkAuthResponse struct {
	LoggedIn bool         `json:"loggedIn"`
	User     *domain.User `json:"user"`
}

// Guard tracks the session subject and enforces the 401 policy.
// It is safe for concurrent use.
type Guard struct {
	transport Transport
	logger    *slog.Logger
	probe     singleflight.Group

	mu         sync.RWMutex
	state      domain.SessionState
	user       *domain.User
	generation uint64
	listeners  []func()
}

// New creates a Guard over the given transport. A nil logger discards logs.
func New(t Transport, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Guard{transport: t, logger: logger}
}

// OnExpired registers fn to be called once for every guarded call that
// receives a 401. Typically fn routes the UI to the login view.
func (g *Guard) OnExpired(fn func()) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

// State returns the current lifecycle state.
func (g *Guard) State() domain.SessionState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// User returns the session subject, or nil when anonymous.
func (g *Guard) User() *domain.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return nil
	}
	u := *g.user
	return &u
}

// Generation increments each time a session is established, so callers can
// do something at most once per session.
func (g *Guard) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.generation
}

// CheckSession probes the server for an existing session. Any failure counts
// as unauthenticated. Concurrent calls share a single probe, which is not
// cancelled with the caller that started it.
func (g *Guard) CheckSession(ctx context.Context) Status {
	ctx = context.WithoutCancel(ctx)
	v, _, _ := g.probe.Do("check-auth", func() (any, error) {
		g.mu.Lock()
		prev := g.state
		g.state = domain.SessionChecking
		g.mu.Unlock()

		var resp checkAuthResponse
		err := g.transport.Do(ctx, http.MethodGet, "/users/check-auth", nil, &resp)
		if err == nil && resp.LoggedIn && resp.User != nil {
			err = resp.User.Validate()
		}
		if err != nil || !resp.LoggedIn {
			if err != nil {
				g.logger.Debug("session probe failed", "error", err)
			}
			g.clear()
			return Status{}, nil
		}

		g.mu.Lock()
		g.state = domain.SessionAuthenticated
		if prev != domain.SessionAuthenticated || g.user == nil || g.user.ID != resp.User.ID {
			g.generation++
		}
		g.user = resp.User
		g.mu.Unlock()
		g.logger.Debug("session restored", "user", resp.User.Username)
		return Status{Authenticated: true, User: resp.User}, nil
	})
	st := v.(Status)
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Login exchanges credentials for a session.
func (g *Guard) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, &domain.ValidationError{Field: "credentials", Reason: "username and password are required"}
	}
	var u domain.User
	body := map[string]string{"username": username, "password": password}
	if err := g.transport.Do(ctx, http.MethodPost, "/users/login", body, &u); err != nil {
		if client.IsStatus(err, http.StatusUnauthorized) {
			return nil, fmt.Errorf("session.Login: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("session.Login: %w", err)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("session.Login: %w", err)
	}

	g.mu.Lock()
	g.state = domain.SessionAuthenticated
	g.user = &u
	g.generation++
	g.mu.Unlock()
	g.logger.Debug("logged in", "user", u.Username)

	out := u
	return &out, nil
}

// Logout ends the session on the server and always clears it locally, even
// when the server call fails. The server error is returned for reporting.
func (g *Guard) Logout(ctx context.Context) error {
	err := g.transport.Do(ctx, http.MethodGet, "/users/logout", nil, nil)
	g.clear()
	if err != nil {
		g.logger.Warn("logout request failed; local session cleared", "error", err)
		return fmt.Errorf("session.Logout: %w", err)
	}
	return nil
}

// Do performs a guarded API call. A 401 clears the session, notifies the
// expiry listeners and returns ErrExpired; out is left untouched.
func (g *Guard) Do(ctx context.Context, method, path string, body, out any) error {
	err := g.transport.Do(ctx, method, path, body, out)
	if err == nil {
		return nil
	}
	if client.IsStatus(err, http.StatusUnauthorized) {
		g.expire(method, path)
		return ErrExpired
	}
	return err
}

// Get is Do with GET and no body.
func (g *Guard) Get(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodGet, path, nil, out)
}

func (g *Guard) expire(method, path string) {
	g.clear()
	g.mu.RLock()
	listeners := append([]func(){}, g.listeners...)
	g.mu.RUnlock()
	g.logger.Info("session expired", "method", method, "path", path)
	for _, fn := range listeners {
		fn()
	}
}

func (g *Guard) clear() {
	g.mu.Lock()
	g.state = domain.SessionAnonymous
	g.user = nil
	g.mu.Unlock()
}
