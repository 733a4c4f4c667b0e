package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/telco-console/clients"
	fakeclientrepo "github.com/jrsteele09/telco-console/clients/fakerepo"
	"github.com/jrsteele09/telco-console/internal/config"
	"github.com/jrsteele09/telco-console/token"
	"github.com/jrsteele09/telco-console/token/refresh"
	refreshrepofake "github.com/jrsteele09/telco-console/token/refresh/repofake"
	"github.com/jrsteele09/telco-console/users"
	fakeuserrepo "github.com/jrsteele09/telco-console/users/repofake"
	"github.com/rs/zerolog/log"
)

const tokenIssuer = "telco-console-dev"

// Config is the configuration the development backend reads.
type Config interface {
	GetEnv() string
	config.ServerConfig
}

// Server is a development backend speaking the console's auth and resource
// protocol. It keeps everything in memory.
type Server struct {
	env              string
	mux              *http.ServeMux
	routes           []string
	config           Config
	users            users.UserRepo
	clients          clients.Repo
	refreshTokenRepo refresh.Repo
	tokens           *token.Manager
	refreshTokens    *refresh.Manager
	data             *Fixtures
	nowFunc          func() time.Time

	loginCalls   atomic.Int64
	refreshCalls atomic.Int64
}

type Option func(*Server)

func WithUserRepo(repo users.UserRepo) Option {
	return func(s *Server) {
		s.users = repo
	}
}

func WithClientRepo(repo clients.Repo) Option {
	return func(s *Server) {
		s.clients = repo
	}
}

func WithRefreshTokenRepo(repo refresh.Repo) Option {
	return func(s *Server) {
		s.refreshTokenRepo = repo
	}
}

// WithNowFunc sets the clock used to issue and validate access tokens.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithFixtures(f *Fixtures) Option {
	return func(s *Server) {
		s.data = f
	}
}

func New(cfg Config, options ...Option) (*Server, error) {
	s := &Server{
		mux:     http.NewServeMux(),
		config:  cfg,
		env:     cfg.GetEnv(),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.users == nil {
		s.users = fakeuserrepo.NewFakeUserRepo()
	}
	if s.clients == nil {
		s.clients = fakeclientrepo.NewFakeClientRepo()
	}
	if s.refreshTokenRepo == nil {
		s.refreshTokenRepo = refreshrepofake.NewFakeRefreshTokenRepo()
	}
	if s.data == nil {
		s.data = NewFixtures()
	}

	signer, err := token.NewHMACSigner(cfg.GetSigningSecret())
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	s.tokens = token.New(signer,
		token.WithIssuer(tokenIssuer),
		token.WithTokenExpiry(cfg.GetAccessTokenTTL()),
		token.WithNowFunc(s.nowFunc),
	)
	s.refreshTokens = refresh.NewManager(s.refreshTokenRepo, cfg)

	if err := s.InitialiseSystem(cfg.GetSeedPassword()); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// LoginCalls reports how many login requests the server has answered.
func (s *Server) LoginCalls() int64 {
	return s.loginCalls.Load()
}

// RefreshCalls reports how many refresh requests the server has answered,
// successful or not.
func (s *Server) RefreshCalls() int64 {
	return s.refreshCalls.Load()
}

// Tokens exposes the access token manager, e.g. to revoke a token in tests.
func (s *Server) Tokens() *token.Manager {
	return s.tokens
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
