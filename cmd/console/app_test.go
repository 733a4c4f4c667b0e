package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/telco-console/auth"
	"github.com/jrsteele09/telco-console/internal/config"
	"github.com/jrsteele09/telco-console/pipeline"
	"github.com/jrsteele09/telco-console/server"
	"github.com/jrsteele09/telco-console/sessions"
	"github.com/stretchr/testify/require"
)

const testPassword = "Passw0rd!"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupConsole(t *testing.T) (config.Config, *server.Server, *clock) {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("SESSION_STORE", "file")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("SESSION_PASSPHRASE", "console-test")
	t.Setenv("SEED_PASSWORD", testPassword)
	t.Setenv("SIGNING_SECRET", "console-test-secret")
	t.Setenv("ACCESS_TOKEN_TTL", "1m")
	t.Setenv("OIDC_ISSUER", "")

	cfg := config.New()
	c := &clock{now: time.Now()}
	srv, err := server.New(cfg, server.WithNowFunc(c.Now))
	require.NoError(t, err)
	httpSrv := httptest.NewServer(srv)
	t.Cleanup(httpSrv.Close)
	t.Setenv("BASE_URL", httpSrv.URL)

	return cfg, srv, c
}

func runCommand(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), cfg, args, &out)
	return out.String(), err
}

func TestConsole_SessionAcrossCommands(t *testing.T) {
	cfg, srv, c := setupConsole(t)

	out, err := runCommand(t, cfg, "login", "-u", "admin", "-p", testPassword)
	require.NoError(t, err)
	require.Contains(t, out, "logged in as admin (administrator)")

	out, err = runCommand(t, cfg, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "administrator")

	out, err = runCommand(t, cfg, "list", "offers")
	require.NoError(t, err)
	require.Contains(t, out, "ESSENTIEL")

	c.Advance(2 * time.Minute)

	out, err = runCommand(t, cfg, "list", "invoices", "-customer", "1")
	require.NoError(t, err, "an expired token is refreshed transparently")
	require.Contains(t, out, "FAC-2025-0002")
	require.EqualValues(t, 1, srv.RefreshCalls())

	out, err = runCommand(t, cfg, "logout")
	require.NoError(t, err)
	require.Contains(t, out, "logged out")

	out, err = runCommand(t, cfg, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "not logged in")

	_, err = runCommand(t, cfg, "list", "offers")
	require.Error(t, err)
	require.True(t, pipeline.IsTerminal(err))
	require.EqualValues(t, 1, srv.RefreshCalls(), "no refresh without a refresh token")
}

func TestConsole_CustomerPortal(t *testing.T) {
	cfg, _, _ := setupConsole(t)

	out, err := runCommand(t, cfg, "login", "-customer", "-u", "CUST-001", "-p", testPassword)
	require.NoError(t, err)
	require.Contains(t, out, "ACME Telecom (customer)")

	out, err = runCommand(t, cfg, "list", "subscriptions")
	require.NoError(t, err, "customers list their own subscriptions by default")
	require.Contains(t, out, "ACTIVE")
}

func TestConsole_RefreshThroughOIDCIssuer(t *testing.T) {
	cfg, srv, c := setupConsole(t)
	t.Setenv("OIDC_ISSUER", cfg.GetBaseURL())

	_, err := runCommand(t, cfg, "login", "-u", "mmartin", "-p", testPassword)
	require.NoError(t, err)

	c.Advance(2 * time.Minute)

	out, err := runCommand(t, cfg, "list", "services")
	require.NoError(t, err)
	require.Contains(t, out, "DATA")
	require.EqualValues(t, 1, srv.RefreshCalls())

	out, err = runCommand(t, cfg, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "shop-manager")
}

// lockedBuffer lets a test read what a running command has printed so far.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConsole_WatchStopsWithContext(t *testing.T) {
	cfg, _, _ := setupConsole(t)
	_, err := runCommand(t, cfg, "login", "-u", "admin", "-p", testPassword)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var out bytes.Buffer

	require.NoError(t, run(ctx, cfg, []string{"watch", "-resource", "offers", "-interval", "20ms"}, &out))
	require.GreaterOrEqual(t, strings.Count(out.String(), "ESSENTIEL"), 2, "polled more than once")
}

func TestConsole_WatchEndsWithSession(t *testing.T) {
	cfg, _, c := setupConsole(t)
	_, err := runCommand(t, cfg, "login", "-u", "admin", "-p", testPassword)
	require.NoError(t, err)

	var out lockedBuffer
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(context.Background(), cfg, []string{"watch", "-interval", "20ms"}, &out)
	}()
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "ESSENTIEL") }, 2*time.Second, 10*time.Millisecond)

	// Another login replaces the watched session's refresh token, then its
	// access token expires.
	other, err := auth.NewService(cfg.GetBaseURL(), sessions.NewStore(context.Background(), nil))
	require.NoError(t, err)
	_, err = other.Login(context.Background(), "admin", testPassword, false)
	require.NoError(t, err)
	c.Advance(2 * time.Minute)

	select {
	case err := <-errCh:
		require.ErrorContains(t, err, "session ended")
		require.True(t, pipeline.IsTerminal(err))
	case <-time.After(5 * time.Second):
		t.Fatal("watch kept polling after the session ended")
	}
}

func TestConsole_WatchRejectsBadInterval(t *testing.T) {
	cfg, _, _ := setupConsole(t)

	for _, interval := range []string{"0", "-5s"} {
		_, err := runCommand(t, cfg, "watch", "-interval", interval)
		require.ErrorContains(t, err, "positive -interval", "interval %s", interval)
	}
}

func TestConsole_WhoamiSkipsOIDCDiscovery(t *testing.T) {
	cfg, _, _ := setupConsole(t)
	t.Setenv("OIDC_ISSUER", "http://127.0.0.1:1")

	out, err := runCommand(t, cfg, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "not logged in")

	_, err = runCommand(t, cfg, "list", "offers")
	require.ErrorContains(t, err, "discovery failed")
}

func TestConsole_BadUsage(t *testing.T) {
	cfg, _, _ := setupConsole(t)

	_, err := runCommand(t, cfg)
	require.Error(t, err)

	_, err = runCommand(t, cfg, "dance")
	require.ErrorContains(t, err, "unknown command")

	_, err = runCommand(t, cfg, "login", "-u", "admin", "-p", "Wr0ngPassword")
	require.Error(t, err)

	_, err = runCommand(t, cfg, "list", "widgets")
	require.ErrorContains(t, err, "unknown resource")
}
