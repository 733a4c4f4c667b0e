package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/telco-console/internal/config"
	apperrors "github.com/jrsteele09/telco-console/internal/errors"
	"github.com/jrsteele09/telco-console/sessions"
	"github.com/jrsteele09/telco-console/token/refresh"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxResponseBody = 1 << 20

// Credentials is the login request body.
type Credentials struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// LoginResponse is the backend's answer to a login. UserName and Password
// report which of the two matched when Login is false.
type LoginResponse struct {
	Login        bool   `json:"login"`
	UserName     bool   `json:"userName"`
	Password     bool   `json:"password"`
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Role         string `json:"role,omitempty"`
	CustomerID   string `json:"customerId,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
}

// Paths are the auth endpoint paths relative to the base URL.
type Paths struct {
	Login   string
	Refresh string
	Logout  string
}

// Service logs users in and out against the console backend and keeps the
// session store in step.
type Service struct {
	baseURL       string
	paths         Paths
	client        *http.Client
	store         *sessions.Store
	logoutTimeout time.Duration
	logger        zerolog.Logger
	pending       sync.WaitGroup
}

type ServiceOption func(*Service)

// WithHTTPClient sets the client used for the auth endpoints.
func WithHTTPClient(client *http.Client) ServiceOption {
	return func(s *Service) {
		s.client = client
	}
}

func WithPaths(paths Paths) ServiceOption {
	return func(s *Service) {
		s.paths = paths
	}
}

// WithConfig takes the paths and logout timeout from cfg.
func WithConfig(cfg config.AuthConfig) ServiceOption {
	return func(s *Service) {
		s.paths = Paths{
			Login:   cfg.GetLoginPath(),
			Refresh: cfg.GetRefreshPath(),
			Logout:  cfg.GetLogoutPath(),
		}
		s.logoutTimeout = cfg.GetLogoutTimeout()
	}
}

func WithLogoutTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.logoutTimeout = d
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(baseURL string, store *sessions.Store, options ...ServiceOption) (*Service, error) {
	if baseURL == "" {
		return nil, errors.New("[NewService] base URL is required")
	}
	if store == nil {
		return nil, errors.New("[NewService] session store is required")
	}

	s := &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		paths: Paths{
			Login:   "/api/auth/login",
			Refresh: "/api/auth/refresh",
			Logout:  "/api/auth/logout",
		},
		client:        http.DefaultClient,
		store:         store,
		logoutTimeout: 5 * time.Second,
		logger:        log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "auth_service").Logger()
	return s, nil
}

// Login authenticates and, on success, replaces the current session.
// asCustomer selects the customer portal: it decides the role when neither
// the response nor the token carries one, and makes the username the
// customer id when the backend does not send it.
func (s *Service) Login(ctx context.Context, username, password string, asCustomer bool) (*sessions.Identity, error) {
	payload, err := json.Marshal(Credentials{UserName: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("[Service Login] failed to encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+s.paths.Login, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("[Service Login] failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[Service Login] %w: %w", apperrors.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("[Service Login] %w: %w", apperrors.ErrTransientNetwork, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("[Service Login] %w", apperrors.ErrInvalidCredentials)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("[Service Login] login endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var loginResp LoginResponse
	if err := json.Unmarshal(body, &loginResp); err != nil {
		return nil, fmt.Errorf("[Service Login] %w: %w", apperrors.ErrMalformedResponse, err)
	}
	if !loginResp.Login {
		if !loginResp.UserName {
			return nil, fmt.Errorf("[Service Login] %w", apperrors.ErrUserNotFound)
		}
		return nil, fmt.Errorf("[Service Login] %w", apperrors.ErrInvalidCredentials)
	}
	if loginResp.Token == "" {
		return nil, fmt.Errorf("[Service Login] %w: no token in response", apperrors.ErrMalformedResponse)
	}

	identity := identityFor(username, asCustomer, &loginResp)
	s.store.SetSession(loginResp.Token, loginResp.RefreshToken, identity)
	s.logger.Info().Str("role", identity.Role.String()).Bool("refreshable", loginResp.RefreshToken != "").Msg("logged in")
	return &identity, nil
}

func identityFor(username string, asCustomer bool, resp *LoginResponse) sessions.Identity {
	claimed, _ := sessions.IdentityFromToken(resp.Token)

	role := sessions.ParseRole(resp.Role)
	if role == sessions.RoleUnknown {
		role = claimed.Role
	}
	if role == sessions.RoleUnknown {
		role = sessions.RoleAdministrator
		if asCustomer {
			role = sessions.RoleCustomer
		}
	}

	scopeID := resp.CustomerID
	if scopeID == "" {
		scopeID = claimed.ScopeID
	}
	if scopeID == "" && asCustomer {
		scopeID = username
	}

	displayName := resp.CustomerName
	if displayName == "" {
		displayName = username
	}

	return sessions.Identity{DisplayName: displayName, Role: role, ScopeID: scopeID}
}

// Logout clears the session at once and tells the backend in the background.
// The backend call is best effort: failures are only logged.
func (s *Service) Logout(ctx context.Context) {
	sess := s.store.Session()
	s.store.Clear()
	s.logger.Info().Msg("logged out")

	if !sess.Authenticated() || s.paths.Logout == "" {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.logoutTimeout)
		defer cancel()
		if err := s.notifyLogout(ctx, sess); err != nil {
			s.logger.Warn().Err(err).Msg("backend logout failed")
		}
	}()
}

// Wait blocks until background logout calls have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) notifyLogout(ctx context.Context, sess sessions.Session) error {
	payload, err := json.Marshal(map[string]string{"refreshToken": sess.RefreshToken})
	if err != nil {
		return fmt.Errorf("[Service Logout] failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+s.paths.Logout, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("[Service Logout] failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("[Service Logout] %w: %w", apperrors.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("[Service Logout] logout endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Refresher returns a refresher for the same backend. It uses the service's
// HTTP client, which must not be a pipeline client.
func (s *Service) Refresher() *refresh.BackendRefresher {
	return refresh.NewBackendRefresher(s.baseURL, s.paths.Refresh, s.client)
}
