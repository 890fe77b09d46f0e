// Package notify registers this device for push notifications once per
// signed-in session.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
)

// PermissionRequester asks the platform for notification permission.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// TokenSource yields the device push token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Session is the guarded transport plus the session generation counter.
// *session.Guard satisfies it.
type Session interface {
	Do(ctx context.Context, method, path string, body, out any) error
	Generation() uint64
}

// Outcome is what a Subscribe call did.
type Outcome int

const (
	Skipped Outcome = iota // already attempted in this session, or no session
	Denied
	Failed
	Registered
)

func (o Outcome) String() string {
	switch o {
	case Denied:
		return "denied"
	case Failed:
		return "failed"
	case Registered:
		return "registered"
	}
	return "skipped"
}

// StaticPermission grants or denies without asking.
type StaticPermission bool

func (p StaticPermission) RequestPermission(context.Context) (bool, error) {
	return bool(p), nil
}

// FileTokenSource reads the push token from a file.
type FileTokenSource struct {
	Path string
}

func (f FileTokenSource) Token(context.Context) (string, error) {
	if f.Path == "" {
		return "", errors.New("no push token file configured")
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read push token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("push token file %s is empty", f.Path)
	}
	return token, nil
}

// Subscriber performs the permission, token and register handshake.
type Subscriber struct {
	session    Session
	permission PermissionRequester
	tokens     TokenSource
	logger     *slog.Logger

	mu        sync.Mutex
	attempted uint64
}

// New creates a Subscriber. A nil logger discards logs.
func New(s Session, p PermissionRequester, t TokenSource, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Subscriber{session: s, permission: p, tokens: t, logger: logger}
}

// Subscribe runs the handshake for userID at most once per session
// generation. Denial and failures are logged and never retried.
func (s *Subscriber) Subscribe(ctx context.Context, userID string) Outcome {
	gen := s.session.Generation()
	s.mu.Lock()
	if gen == 0 || gen == s.attempted {
		s.mu.Unlock()
		return Skipped
	}
	s.attempted = gen
	s.mu.Unlock()

	granted, err := s.permission.RequestPermission(ctx)
	if err != nil {
		s.logger.Warn("notification permission request failed", "error", err)
		return Failed
	}
	if !granted {
		s.logger.Warn("notification permission denied")
		return Denied
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Warn("push token unavailable", "error", err)
		return Failed
	}
	if err := s.RegisterToken(ctx, userID, token); err != nil {
		s.logger.Warn("push token registration failed", "user", userID, "error", err)
		return Failed
	}
	s.logger.Debug("push token registered", "user", userID)
	return Registered
}

// RegisterToken stores token on the user's account.
func (s *Subscriber) RegisterToken(ctx context.Context, userID, token string) error {
	if userID == "" || token == "" {
		return errors.New("notify.RegisterToken: user id and token are required")
	}
	path := "/users/" + url.PathEscape(userID) + "/notifications-token"
	if err := s.session.Do(ctx, http.MethodPatch, path, map[string]string{"token": token}, nil); err != nil {
		return fmt.Errorf("notify.RegisterToken: %w", err)
	}
	return nil
}
