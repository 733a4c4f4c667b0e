package refresh_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/telco-console/token/refresh"
	"github.com/stretchr/testify/require"
)

// newTokenEndpoint serves an OIDC discovery document and a refresh_token grant
// that accepts only R1.
func newTokenEndpoint(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") != "R1" || r.PostForm.Get("client_id") != "console" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "T2",
			"token_type":    "Bearer",
			"refresh_token": "R2",
			"expires_in":    60,
			"role":          "agent",
		})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuth2Refresher_Success(t *testing.T) {
	var calls atomic.Int32
	srv := newTokenEndpoint(t, &calls)

	r := refresh.NewOAuth2Refresher("console", "", srv.URL+"/token").WithHTTPClient(srv.Client())
	pair, err := r.Refresh(context.Background(), "R1")

	require.NoError(t, err)
	require.Equal(t, &refresh.TokenPair{AccessToken: "T2", RefreshToken: "R2", Role: "agent"}, pair)
	require.EqualValues(t, 1, calls.Load())
}

func TestOAuth2Refresher_InvalidGrant(t *testing.T) {
	var calls atomic.Int32
	srv := newTokenEndpoint(t, &calls)

	_, err := refresh.NewOAuth2Refresher("console", "", srv.URL+"/token").Refresh(context.Background(), "stale")

	var statusErr *refresh.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "invalid_grant")
}

func TestNewOIDCRefresher_DiscoversTokenEndpoint(t *testing.T) {
	var calls atomic.Int32
	srv := newTokenEndpoint(t, &calls)

	r, err := refresh.NewOIDCRefresher(context.Background(), srv.URL, "console", "")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/token", r.TokenURL())

	pair, err := r.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	require.Equal(t, "T2", pair.AccessToken)
}

func TestNewOIDCRefresher_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := refresh.NewOIDCRefresher(context.Background(), srv.URL, "console", "")
	require.Error(t, err)
}
