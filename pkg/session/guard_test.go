package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/naveenspark/homedash/internal/fakeapi"
	"github.com/naveenspark/homedash/pkg/client"
	"github.com/naveenspark/homedash/pkg/domain"
)

func newGuard(t *testing.T) (*Guard, *fakeapi.Server) {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL, client.Options{IncludeCredentials: true})
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	return New(c, nil), srv
}

// stubTransport answers every call with fn.
type stubTransport func(method, path string, out any) error

func (f stubTransport) Do(_ context.Context, method, path string, _, out any) error {
	return f(method, path, out)
}

func TestLoginEstablishesSession(t *testing.T) {
	g, _ := newGuard(t)
	ctx := context.Background()

	if st := g.CheckSession(ctx); st.Authenticated {
		t.Fatal("fresh client should not be authenticated")
	}
	if g.State() != domain.SessionAnonymous {
		t.Errorf("State() = %v, want anonymous", g.State())
	}

	u, err := g.Login(ctx, "ana", fakeapi.Password)
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if u.ID != fakeapi.UserAna {
		t.Errorf("user id = %q, want %q", u.ID, fakeapi.UserAna)
	}
	if g.State() != domain.SessionAuthenticated {
		t.Errorf("State() = %v, want authenticated", g.State())
	}
	if g.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", g.Generation())
	}

	st := g.CheckSession(ctx)
	if !st.Authenticated || st.User == nil || st.User.Username != "ana" {
		t.Errorf("CheckSession() = %+v, want ana", st)
	}
	if g.Generation() != 1 {
		t.Errorf("probe of the same session bumped generation to %d", g.Generation())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	g, _ := newGuard(t)
	_, err := g.Login(context.Background(), "ana", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if g.User() != nil {
		t.Error("failed login must not set a user")
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	calls := 0
	g := New(stubTransport(func(string, string, any) error {
		calls++
		return nil
	}), nil)
	_, err := g.Login(context.Background(), "", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
	if calls != 0 {
		t.Errorf("made %d network calls, want 0", calls)
	}
}

func TestUnauthorizedClearsSessionAndSignalsOncePerCall(t *testing.T) {
	g, srv := newGuard(t)
	ctx := context.Background()
	if _, err := g.Login(ctx, "ana", fakeapi.Password); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	var signals int
	g.OnExpired(func() { signals++ })

	srv.ExpireSessions()

	out := []domain.Task{{ID: "sentinel"}}
	err := g.Get(ctx, "/tasks?showDone=false", &out)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if len(out) != 1 || out[0].ID != "sentinel" {
		t.Errorf("response body was decoded into out: %+v", out)
	}
	if g.State() != domain.SessionAnonymous || g.User() != nil {
		t.Errorf("session not cleared: state=%v user=%v", g.State(), g.User())
	}
	if signals != 1 {
		t.Errorf("signals = %d, want 1", signals)
	}

	if err := g.Get(ctx, "/shopping/items", nil); !errors.Is(err, ErrExpired) {
		t.Fatalf("second call err = %v, want ErrExpired", err)
	}
	if signals != 2 {
		t.Errorf("signals after second 401 = %d, want 2", signals)
	}
}

func TestServerErrorLeavesSession(t *testing.T) {
	g, srv := newGuard(t)
	ctx := context.Background()
	if _, err := g.Login(ctx, "ana", fakeapi.Password); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	var signals int
	g.OnExpired(func() { signals++ })
	srv.Fail("GET /tasks", http.StatusInternalServerError)

	err := g.Get(ctx, "/tasks", nil)
	if !client.IsStatus(err, http.StatusInternalServerError) {
		t.Errorf("err = %v, want HTTP 500", err)
	}
	if signals != 0 {
		t.Errorf("signals = %d, want 0", signals)
	}
	if g.State() != domain.SessionAuthenticated {
		t.Errorf("State() = %v, want authenticated", g.State())
	}
}

func TestLogout(t *testing.T) {
	g, srv := newGuard(t)
	ctx := context.Background()
	if _, err := g.Login(ctx, "ana", fakeapi.Password); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if err := g.Logout(ctx); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if g.State() != domain.SessionAnonymous {
		t.Errorf("State() = %v, want anonymous", g.State())
	}
	if srv.Calls("GET /users/logout") != 1 {
		t.Errorf("logout calls = %d, want 1", srv.Calls("GET /users/logout"))
	}
	if st := g.CheckSession(ctx); st.Authenticated {
		t.Error("server session survived logout")
	}
}

func TestLogoutClearsLocallyOnNetworkFailure(t *testing.T) {
	g := New(stubTransport(func(method, path string, out any) error {
		if path == "/users/login" {
			u := out.(*domain.User)
			*u = domain.User{ID: "u1", Username: "ana"}
			return nil
		}
		return &client.TransportError{Op: method + " " + path, Err: errors.New("connection refused")}
	}), nil)
	ctx := context.Background()
	if _, err := g.Login(ctx, "ana", "pw"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	err := g.Logout(ctx)
	if !client.IsTransport(err) {
		t.Errorf("err = %v, want the transport error reported", err)
	}
	if g.State() != domain.SessionAnonymous || g.User() != nil {
		t.Errorf("local session survived failed logout: state=%v", g.State())
	}
}

func TestCheckSessionFailureIsUnauthenticated(t *testing.T) {
	g := New(stubTransport(func(method, path string, _ any) error {
		return &client.TransportError{Op: method + " " + path, Err: errors.New("decode response: empty body")}
	}), nil)
	if st := g.CheckSession(context.Background()); st.Authenticated {
		t.Error("probe failure reported as authenticated")
	}
	if g.State() != domain.SessionAnonymous {
		t.Errorf("State() = %v, want anonymous", g.State())
	}
}

func TestCheckSessionIsCheckingWhileProbing(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var probes atomic.Int32
	g := New(stubTransport(func(_, _ string, out any) error {
		if probes.Add(1) == 1 {
			close(entered)
		}
		<-release
		resp := out.(*checkAuthResponse)
		resp.LoggedIn = true
		resp.User = &domain.User{ID: "u1", Username: "ana"}
		return nil
	}), nil)

	var wg sync.WaitGroup
	results := make([]Status, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = g.CheckSession(context.Background())
		}()
	}

	<-entered
	if g.State() != domain.SessionChecking {
		t.Errorf("State() during probe = %v, want checking", g.State())
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := probes.Load(); n != 1 {
		t.Errorf("probes = %d, want 1 shared probe", n)
	}
	for i, st := range results {
		if !st.Authenticated {
			t.Errorf("results[%d] not authenticated", i)
		}
	}
	if g.State() != domain.SessionAuthenticated {
		t.Errorf("State() = %v, want authenticated", g.State())
	}
}

// ctxTransport fails like net/http when the request context is done.
type ctxTransport struct{}

func (ctxTransport) Do(ctx context.Context, _, _ string, _, out any) error {
	if err := ctx.Err(); err != nil {
		return &client.TransportError{Op: "GET /users/check-auth", Err: err}
	}
	*out.(*checkAuthResponse) = checkAuthResponse{LoggedIn: true, User: &domain.User{ID: "u1", Username: "ana"}}
	return nil
}

func TestCheckSessionIgnoresCallerCancellation(t *testing.T) {
	g := New(ctxTransport{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := g.CheckSession(ctx)
	if !st.Authenticated || st.User == nil || st.User.ID != "u1" {
		t.Fatalf("CheckSession() = %+v, want authenticated as u1", st)
	}
	if g.State() != domain.SessionAuthenticated {
		t.Errorf("State() = %v, want authenticated", g.State())
	}
}
