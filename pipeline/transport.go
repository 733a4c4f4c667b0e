package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/telco-console/internal/errors"
	"github.com/jrsteele09/telco-console/sessions"
	"github.com/jrsteele09/telco-console/token/refresh"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultRefreshTimeout = 10 * time.Second
	drainLimit            = 64 << 10
)

// TokenStore is the part of the session store the pipeline needs.
type TokenStore interface {
	AccessToken() (string, bool)
	Current() (sessions.Session, uint64)
	RotateTokens(epoch uint64, accessToken, refreshToken string) (uint64, bool)
	ClearIf(epoch uint64) bool
}

var _ TokenStore = (*sessions.Store)(nil)

var _ http.RoundTripper = (*Transport)(nil)

// Transport attaches the session's access token to outgoing requests and
// recovers from expired tokens. Any number of concurrent 401s share a single
// refresh call; each failed request is replayed once with the new token.
type Transport struct {
	base           http.RoundTripper
	store          TokenStore
	refresher      refresh.Refresher
	endpoints      AuthEndpoints
	refreshTimeout time.Duration
	logger         zerolog.Logger
	metrics        *Metrics
	tracer         trace.Tracer

	mu    sync.Mutex
	cycle *refreshCycle // nil while idle
}

type Option func(*Transport)

// WithBase sets the transport requests are dispatched on. Defaults to
// http.DefaultTransport.
func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

func WithAuthEndpoints(endpoints AuthEndpoints) Option {
	return func(t *Transport) {
		t.endpoints = endpoints
	}
}

// WithRefreshTimeout bounds each refresh call. A timeout counts as a rejected refresh.
func WithRefreshTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.refreshTimeout = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(t *Transport) {
		t.tracer = tracer
	}
}

func New(store TokenStore, refresher refresh.Refresher, options ...Option) *Transport {
	t := &Transport{
		base:           http.DefaultTransport,
		store:          store,
		refresher:      refresher,
		endpoints:      DefaultAuthEndpoints(),
		refreshTimeout: defaultRefreshTimeout,
		logger:         log.Logger,
		tracer:         otel.Tracer("github.com/jrsteele09/telco-console/pipeline"),
	}
	for _, opt := range options {
		opt(t)
	}
	t.logger = t.logger.With().Str("component", "pipeline").Logger()
	return t
}

// NewClient returns an http.Client that sends every request through the pipeline.
func NewClient(store TokenStore, refresher refresh.Refresher, options ...Option) *http.Client {
	return &http.Client{Transport: New(store, refresher, options...)}
}

// RoundTrip dispatches req with the current access token. A 401 is handled
// internally; the caller sees either the replayed response or a terminal
// error (see IsTerminal). Network failures are wrapped with
// ErrTransientNetwork and never retried.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.endpoints.Match(req.URL) {
		return t.base.RoundTrip(req)
	}

	outgoing, err := prepare(req)
	if err != nil {
		return nil, err
	}
	requestLog := t.logger.With().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", outgoing.Header.Get(RequestIDHeader)).
		Logger()

	sent, _ := t.store.AccessToken()
	resp, err := t.dispatch(outgoing, sent)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)
	requestLog.Debug().Err(apperrors.ErrAuthorizationExpired).Msg("refreshing before replay")

	token, epoch, err := t.awaitRefresh(req.Context(), sent)
	if err != nil {
		return nil, err
	}

	replay, err := rewind(outgoing)
	if err != nil {
		t.metrics.observeReplay(outcomeError)
		return nil, err
	}
	resp, err = t.dispatch(replay, token)
	if err != nil {
		t.metrics.observeReplay(outcomeError)
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		t.store.ClearIf(epoch)
		t.metrics.observeReplay(outcomeUnauthorized)
		requestLog.Warn().Msg("replay rejected with a fresh token, session cleared")
		return nil, fmt.Errorf("[Transport RoundTrip] %w", apperrors.ErrReplayAuthorizationExpired)
	}

	t.metrics.observeReplay(outcomeSuccess)
	requestLog.Debug().Int("status", resp.StatusCode).Msg("replayed after refresh")
	return resp, nil
}

func (t *Transport) dispatch(req *http.Request, token string) (*http.Response, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("[Transport RoundTrip] %w: %w", apperrors.ErrTransientNetwork, err)
	}
	return resp, nil
}

// prepare clones req so the caller's request is never mutated, makes its body
// replayable and tags it with a request id.
func prepare(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		body, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("[Transport RoundTrip] failed to buffer request body: %w", err)
		}
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		out.Body, _ = out.GetBody()
		out.ContentLength = int64(len(body))
	}

	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return out, nil
}

// rewind returns a copy of a dispatched request with a fresh body.
func rewind(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return out, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("[Transport RoundTrip] request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("[Transport RoundTrip] failed to rewind request body: %w", err)
	}
	out.Body = body
	return out, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}
