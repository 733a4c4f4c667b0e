package refresh_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/jrsteele09/telco-console/internal/errors"
	"github.com/jrsteele09/telco-console/token/refresh"
	"github.com/stretchr/testify/require"
)

func TestBackendRefresher_Success(t *testing.T) {
	var method, path, authorization string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, authorization = r.Method, r.URL.Path, r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "T2", "refreshToken": "R2", "role": "admin"})
	}))
	defer srv.Close()

	r := refresh.NewBackendRefresher(srv.URL+"/", "/api/auth/refresh", srv.Client())
	pair, err := r.Refresh(context.Background(), "R1")

	require.NoError(t, err)
	require.Equal(t, &refresh.TokenPair{AccessToken: "T2", RefreshToken: "R2", Role: "admin"}, pair)
	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "/api/auth/refresh", path)
	require.Equal(t, "Bearer R1", authorization)
}

func TestBackendRefresher_RefreshTokenOptional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"T2"}`))
	}))
	defer srv.Close()

	pair, err := refresh.NewBackendRefresher(srv.URL, "/api/auth/refresh", nil).Refresh(context.Background(), "R1")

	require.NoError(t, err)
	require.Equal(t, "T2", pair.AccessToken)
	require.Empty(t, pair.RefreshToken)
}

func TestBackendRefresher_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "refresh token expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := refresh.NewBackendRefresher(srv.URL, "/api/auth/refresh", nil).Refresh(context.Background(), "R1")

	var statusErr *refresh.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	require.Equal(t, "refresh token expired", statusErr.Body)
}

func TestBackendRefresher_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json": "<html>oops</html>",
		"no token": `{"refreshToken":"R2"}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := refresh.NewBackendRefresher(srv.URL, "/api/auth/refresh", nil).Refresh(context.Background(), "R1")
			require.ErrorIs(t, err, apperrors.ErrMalformedResponse)
		})
	}
}

func TestBackendRefresher_Unreachable(t *testing.T) {
	_, err := refresh.NewBackendRefresher("http://127.0.0.1:1", "/api/auth/refresh", nil).Refresh(context.Background(), "R1")

	require.ErrorIs(t, err, apperrors.ErrTransientNetwork)
}
