package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/telco-console/auth"
	"github.com/jrsteele09/telco-console/backend"
	apperrors "github.com/jrsteele09/telco-console/internal/errors"
	"github.com/jrsteele09/telco-console/pipeline"
	"github.com/jrsteele09/telco-console/server"
	"github.com/jrsteele09/telco-console/sessions"
	"github.com/stretchr/testify/require"
)

const testPassword = "Passw0rd!"

type testConfig struct{}

func (testConfig) GetEnv() string                    { return "TEST" }
func (testConfig) GetPort() string                   { return ":0" }
func (testConfig) GetSigningSecret() string          { return "test-signing-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return time.Minute }
func (testConfig) GetRefreshTokenLength() int        { return 32 }
func (testConfig) GetRefreshTokenTTL() time.Duration { return time.Hour }
func (testConfig) GetSeedPassword() string           { return testPassword }

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

type testFixture struct {
	clock  *clock
	server *server.Server
	http   *httptest.Server
}

func setupFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{clock: &clock{now: time.Now()}}

	var err error
	f.server, err = server.New(testConfig{}, server.WithNowFunc(f.clock.Now))
	require.NoError(t, err)

	f.http = httptest.NewServer(f.server)
	t.Cleanup(f.http.Close)
	return f
}

// console is one logged in console: a session store, its auth service and a
// backend client going through the pipeline.
type console struct {
	store *sessions.Store
	auth  *auth.Service
	api   *backend.Client
}

func (f *testFixture) newConsole(t *testing.T) *console {
	t.Helper()
	store := sessions.NewStore(context.Background(), nil)
	service, err := auth.NewService(f.http.URL, store, auth.WithHTTPClient(f.http.Client()))
	require.NoError(t, err)

	client := pipeline.NewClient(store, service.Refresher(), pipeline.WithBase(f.http.Client().Transport))
	return &console{store: store, auth: service, api: backend.NewClient(f.http.URL, client)}
}

func (f *testFixture) login(t *testing.T, username string, asCustomer bool) *console {
	t.Helper()
	c := f.newConsole(t)
	_, err := c.auth.Login(context.Background(), username, testPassword, asCustomer)
	require.NoError(t, err)
	return c
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr), "expected an APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
}

func TestLogin_DemoUsers(t *testing.T) {
	f := setupFixture(t)

	tests := []struct {
		username   string
		asCustomer bool
		expected   sessions.Identity
	}{
		{"admin", false, sessions.Identity{DisplayName: "admin", Role: sessions.RoleAdministrator}},
		{"mmartin", false, sessions.Identity{DisplayName: "mmartin", Role: sessions.RoleShopManager, ScopeID: "BTQ-1"}},
		{"jdupont", false, sessions.Identity{DisplayName: "jdupont", Role: sessions.RoleAgent, ScopeID: "BTQ-1"}},
		{"CUST-001", true, sessions.Identity{DisplayName: "ACME Telecom", Role: sessions.RoleCustomer, ScopeID: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			c := f.newConsole(t)

			identity, err := c.auth.Login(context.Background(), tt.username, testPassword, tt.asCustomer)

			require.NoError(t, err)
			require.Equal(t, tt.expected, *identity)
			_, ok := c.store.RefreshToken()
			require.True(t, ok)
		})
	}
	require.EqualValues(t, len(tests), f.server.LoginCalls())
}

func TestLogin_Rejected(t *testing.T) {
	f := setupFixture(t)
	c := f.newConsole(t)

	_, err := c.auth.Login(context.Background(), "nobody", testPassword, false)
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = c.auth.Login(context.Background(), "admin", "Wr0ngPassword", false)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.False(t, c.store.Session().Authenticated())
}

func TestProtectedRoutes_RequireValidToken(t *testing.T) {
	f := setupFixture(t)

	for name, authorization := range map[string]string{
		"missing":    "",
		"not bearer": "Basic YWRtaW46YWRtaW4=",
		"garbage":    "Bearer not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, f.http.URL+server.RouteOffers, nil)
			require.NoError(t, err)
			if authorization != "" {
				req.Header.Set("Authorization", authorization)
			}

			resp, err := f.http.Client().Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.NotEmpty(t, resp.Header.Get(server.RequestIDHeader))
		})
	}
}

func TestHealth(t *testing.T) {
	f := setupFixture(t)

	resp, err := f.http.Client().Get(f.http.URL + server.RouteHealth)

	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCustomerSeesOnlyOwnAccount(t *testing.T) {
	f := setupFixture(t)
	c := f.login(t, "CUST-001", true)
	ctx := context.Background()

	_, err := c.api.ListCustomers(ctx)
	requireStatus(t, err, http.StatusForbidden)

	invoices, err := c.api.ListCustomerInvoices(ctx, "1")
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	_, err = c.api.ListCustomerInvoices(ctx, "2")
	requireStatus(t, err, http.StatusForbidden)

	details, err := c.api.GetCustomer(ctx, "CUST-001")
	require.NoError(t, err)
	require.Len(t, details.Subscriptions, 1)

	_, err = c.api.GetCustomer(ctx, "CUST-002")
	requireStatus(t, err, http.StatusForbidden)

	require.True(t, c.store.Session().Authenticated(), "a 403 is not an authentication failure")
}

func TestStaffResources(t *testing.T) {
	f := setupFixture(t)
	c := f.login(t, "admin", false)
	ctx := context.Background()

	customers, err := c.api.ListActiveCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)

	offers, err := c.api.ListActiveOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 2)

	svc, err := c.api.GetServiceByCode(ctx, "DATA")
	require.NoError(t, err)
	require.Equal(t, int64(3), svc.ID)

	_, err = c.api.GetService(ctx, 99)
	requireStatus(t, err, http.StatusNotFound)
}

func TestInvoicePaymentUpdatesBalance(t *testing.T) {
	f := setupFixture(t)
	c := f.login(t, "admin", false)
	ctx := context.Background()

	balance, err := c.api.OutstandingBalance(ctx, "1")
	require.NoError(t, err)
	require.InDelta(t, 19.99, balance, 0.001)

	paid, err := c.api.MarkInvoicePaid(ctx, 2, "PAY-42")
	require.NoError(t, err)
	require.Equal(t, server.InvoicePaid, paid.Status)

	balance, err = c.api.OutstandingBalance(ctx, "1")
	require.NoError(t, err)
	require.Zero(t, balance)

	unpaid, err := c.api.ListUnpaidInvoices(ctx, "1")
	require.NoError(t, err)
	require.Empty(t, unpaid)
}

func TestSubscriptionTransitions(t *testing.T) {
	f := setupFixture(t)
	c := f.login(t, "mmartin", false)
	ctx := context.Background()

	sub, err := c.api.SuspendSubscription(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, server.StatusSuspended, sub.Status)

	sub, err = c.api.TerminateSubscription(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, server.StatusTerminated, sub.Status)
	require.NotEmpty(t, sub.EndDate)

	_, err = c.api.ActivateSubscription(ctx, 1)
	requireStatus(t, err, http.StatusConflict)

	created, err := c.api.CreateSubscription(ctx, backend.NewSubscription{CustomerID: 2, OfferID: 2, StartDate: "2026-01-01"})
	require.NoError(t, err)
	require.Equal(t, server.StatusActive, created.Status)

	_, err = c.api.CreateSubscription(ctx, backend.NewSubscription{CustomerID: 42, OfferID: 2})
	requireStatus(t, err, http.StatusNotFound)
}

func TestExpiredToken_ConcurrentRequestsShareOneRefresh(t *testing.T) {
	f := setupFixture(t)
	c := f.login(t, "jdupont", false)
	before := c.store.Session()

	f.clock.Advance(2 * time.Minute)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.api.ListOffers(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, f.server.RefreshCalls())

	after := c.store.Session()
	require.NotEqual(t, before.AccessToken, after.AccessToken)
	require.NotEqual(t, before.RefreshToken, after.RefreshToken)
	require.Equal(t, before.Identity, after.Identity, "refresh keeps the identity")
}

func TestRefreshRejected_LogsOut(t *testing.T) {
	f := setupFixture(t)
	first := f.login(t, "admin", false)
	// A second login of the same user replaces the first refresh token.
	f.login(t, "admin", false)

	f.clock.Advance(2 * time.Minute)

	_, err := first.api.ListOffers(context.Background())

	require.ErrorIs(t, err, apperrors.ErrRefreshRejected)
	require.True(t, pipeline.IsTerminal(err))
	require.False(t, first.store.Session().Authenticated())
	require.EqualValues(t, 1, f.server.RefreshCalls())
}

func TestRefreshRotatesToken(t *testing.T) {
	f := setupFixture(t)
	c := f.login(t, "admin", false)
	refreshToken, _ := c.store.RefreshToken()
	refresher := c.auth.Refresher()

	pair, err := refresher.Refresh(context.Background(), refreshToken)
	require.NoError(t, err)
	require.NotEqual(t, refreshToken, pair.RefreshToken)
	require.Equal(t, "admin", pair.Role)

	_, err = refresher.Refresh(context.Background(), refreshToken)
	require.Error(t, err, "a rotated refresh token cannot be used again")
	require.EqualValues(t, 2, f.server.RefreshCalls())
}

func TestLogout_RevokesAccessToken(t *testing.T) {
	f := setupFixture(t)
	c := f.login(t, "admin", false)
	accessToken, _ := c.store.AccessToken()
	refreshToken, _ := c.store.RefreshToken()

	c.auth.Logout(context.Background())
	c.auth.Wait()

	req, err := http.NewRequest(http.MethodGet, f.http.URL+server.RouteOffers, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := f.http.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, err = c.auth.Refresher().Refresh(context.Background(), refreshToken)
	require.Error(t, err)
}

func TestLogin_MalformedBody(t *testing.T) {
	f := setupFixture(t)

	resp, err := f.http.Client().Post(f.http.URL+server.RouteAuthLogin, "application/json", strings.NewReader("{"))

	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupFixture(t)
	handler := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, f.server.APIMiddleware()...)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotEmpty(t, rec.Header().Get(server.RequestIDHeader))
}
