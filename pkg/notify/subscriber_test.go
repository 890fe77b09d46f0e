package notify

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/naveenspark/homedash/internal/fakeapi"
	"github.com/naveenspark/homedash/pkg/client"
	"github.com/naveenspark/homedash/pkg/session"
)

type staticToken string

func (t staticToken) Token(context.Context) (string, error) { return string(t), nil }

type failingToken struct{}

func (failingToken) Token(context.Context) (string, error) {
	return "", errors.New("messaging unavailable")
}

type countingPermission struct {
	grant bool
	asked int
}

func (p *countingPermission) RequestPermission(context.Context) (bool, error) {
	p.asked++
	return p.grant, nil
}

func loggedIn(t *testing.T) (*session.Guard, *fakeapi.Server) {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL, client.Options{IncludeCredentials: true})
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	g := session.New(c, nil)
	if _, err := g.Login(context.Background(), "ana", fakeapi.Password); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	return g, srv
}

func TestSubscribeRegistersOncePerSession(t *testing.T) {
	g, srv := loggedIn(t)
	perm := &countingPermission{grant: true}
	s := New(g, perm, staticToken("tok-1"), nil)
	ctx := context.Background()

	if got := s.Subscribe(ctx, fakeapi.UserAna); got != Registered {
		t.Fatalf("Subscribe() = %v, want registered", got)
	}
	if tok := srv.User(fakeapi.UserAna).PushToken; tok != "tok-1" {
		t.Errorf("server token = %q, want tok-1", tok)
	}

	// Re-renders call Subscribe again within the same session.
	for range 3 {
		if got := s.Subscribe(ctx, fakeapi.UserAna); got != Skipped {
			t.Errorf("repeat Subscribe() = %v, want skipped", got)
		}
	}
	if perm.asked != 1 {
		t.Errorf("permission asked %d times, want 1", perm.asked)
	}

	if _, err := g.Login(ctx, "ana", fakeapi.Password); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if got := s.Subscribe(ctx, fakeapi.UserAna); got != Registered {
		t.Errorf("Subscribe() after new login = %v, want registered", got)
	}
	if n := srv.Calls("PATCH /users/{id}/notifications-token"); n != 2 {
		t.Errorf("register calls = %d, want 2", n)
	}
}

func TestSubscribeDeniedIsNotRetried(t *testing.T) {
	g, srv := loggedIn(t)
	perm := &countingPermission{grant: false}
	s := New(g, perm, staticToken("tok"), nil)
	ctx := context.Background()

	if got := s.Subscribe(ctx, fakeapi.UserAna); got != Denied {
		t.Errorf("Subscribe() = %v, want denied", got)
	}
	perm.grant = true
	if got := s.Subscribe(ctx, fakeapi.UserAna); got != Skipped {
		t.Errorf("second Subscribe() = %v, want skipped", got)
	}
	if n := srv.Calls("PATCH /users/{id}/notifications-token"); n != 0 {
		t.Errorf("register calls = %d, want 0", n)
	}
}

func TestSubscribeFailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name   string
		tokens TokenSource
		fail   bool
	}{
		{"token unavailable", failingToken{}, false},
		{"register rejected", staticToken("tok"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, srv := loggedIn(t)
			if tt.fail {
				srv.Fail("PATCH /users/{id}/notifications-token", http.StatusInternalServerError)
			}
			s := New(g, StaticPermission(true), tt.tokens, nil)
			if got := s.Subscribe(context.Background(), fakeapi.UserAna); got != Failed {
				t.Errorf("Subscribe() = %v, want failed", got)
			}
			if got := s.Subscribe(context.Background(), fakeapi.UserAna); got != Skipped {
				t.Errorf("retry Subscribe() = %v, want skipped", got)
			}
		})
	}
}

func TestSubscribeWithoutSession(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	c, err := client.New(srv.URL, client.Options{IncludeCredentials: true})
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	s := New(session.New(c, nil), StaticPermission(true), staticToken("tok"), nil)
	if got := s.Subscribe(context.Background(), fakeapi.UserAna); got != Skipped {
		t.Errorf("Subscribe() = %v, want skipped", got)
	}
}

func TestFileTokenSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	if err := os.WriteFile(path, []byte("  device-token\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := FileTokenSource{Path: path}.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if got != "device-token" {
		t.Errorf("Token() = %q, want device-token", got)
	}

	if _, err := (FileTokenSource{Path: filepath.Join(dir, "missing")}).Token(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := (FileTokenSource{}).Token(context.Background()); err == nil {
		t.Error("expected error for unset path")
	}
}
