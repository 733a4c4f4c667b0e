package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/telco-console/internal/errors"
)

const maxResponseBody = 1 << 20

// TokenPair is what a successful refresh returns. RefreshToken is empty when
// the backend did not rotate it; Role is empty when it was not reported.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// StatusError is returned when the refresh endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("refresh endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("refresh endpoint returned %d: %s", e.StatusCode, e.Body)
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role"`
}

var _ Refresher = (*BackendRefresher)(nil)

// BackendRefresher speaks the console backend's refresh protocol: an empty
// JSON POST carrying the refresh token as a bearer credential.
type BackendRefresher struct {
	url    string
	client *http.Client
}

// NewBackendRefresher targets baseURL+path. client must not be a pipeline
// client; nil means http.DefaultClient.
func NewBackendRefresher(baseURL, path string, client *http.Client) *BackendRefresher {
	if client == nil {
		client = http.DefaultClient
	}
	return &BackendRefresher{
		url:    strings.TrimRight(baseURL, "/") + path,
		client: client,
	}
}

func (r *BackendRefresher) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, strings.NewReader("{}"))
	if err != nil {
		return nil, fmt.Errorf("[BackendRefresher Refresh] failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[BackendRefresher Refresh] %w: %w", apperrors.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("[BackendRefresher Refresh] %w: %w", apperrors.ErrTransientNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload refreshResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("[BackendRefresher Refresh] %w: %w", apperrors.ErrMalformedResponse, err)
	}
	if payload.Token == "" {
		return nil, fmt.Errorf("[BackendRefresher Refresh] %w: no token in response", apperrors.ErrMalformedResponse)
	}

	return &TokenPair{
		AccessToken:  payload.Token,
		RefreshToken: payload.RefreshToken,
		Role:         payload.Role,
	}, nil
}
