package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/telco-console/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Durable keys, shared with the browser console's local storage layout.
const (
	KeyAccessToken  = "auth_token"
	KeyRefreshToken = "refresh_token"
	KeyDisplayName  = "current_user"
	KeyRole         = "user_role"
	KeyScopeID      = "customer_id"
)

var allKeys = []string{KeyAccessToken, KeyRefreshToken, KeyDisplayName, KeyRole, KeyScopeID}

// Listener receives the session state after every change.
type Listener func(Session)

type listenerEntry struct {
	id int
	fn Listener
}

// Store is the single source of truth for the current credentials.
//
// Reads take a short read lock and never wait on I/O. Mutations are
// serialized by writeMu, which is held while the new state is persisted and
// listeners are notified, so listeners observe changes in the order they were
// made. Listeners run synchronously and must not call SetSession, Clear,
// RotateTokens or Subscribe; calling the unsubscribe func is fine.
type Store struct {
	writeMu sync.Mutex

	mu        sync.RWMutex
	session   Session
	epoch     uint64
	listeners []listenerEntry
	nextID    int

	repo           storage.Repo
	logger         zerolog.Logger
	persistTimeout time.Duration
}

type StoreOption func(*Store)

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithPersistTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.persistTimeout = d
	}
}

// NewStore builds a store seeded from repo. A nil repo keeps everything in memory.
func NewStore(ctx context.Context, repo storage.Repo, options ...StoreOption) *Store {
	s := &Store{
		repo:           repo,
		logger:         log.Logger,
		persistTimeout: 2 * time.Second,
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "session_store").Logger()
	s.seed(ctx)
	return s
}

func (s *Store) seed(ctx context.Context) {
	if s.repo == nil {
		return
	}

	values, err := s.repo.Load(ctx, allKeys...)
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not load persisted session, starting logged out")
		return
	}

	session, ok := sessionFromValues(values)
	if !ok {
		if len(values) > 0 {
			s.logger.Warn().Msg("discarding incomplete persisted session")
			s.persist(Session{})
		}
		return
	}
	s.session = session
	s.logger.Debug().Str("role", session.Identity.Role.String()).Msg("session restored")
}

func sessionFromValues(values map[string]string) (Session, bool) {
	access := values[KeyAccessToken]
	if access == "" {
		return Session{}, false
	}

	id := Identity{
		DisplayName: values[KeyDisplayName],
		Role:        ParseRole(values[KeyRole]),
		ScopeID:     values[KeyScopeID],
	}
	if id.DisplayName == "" && id.Role == RoleUnknown {
		claimed, err := IdentityFromToken(access)
		if err != nil || (claimed.DisplayName == "" && claimed.Role == RoleUnknown) {
			return Session{}, false
		}
		id = claimed
	}

	return Session{
		AccessToken:  access,
		RefreshToken: values[KeyRefreshToken],
		Identity:     &id,
	}, true
}

func (s *Store) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken, s.session.AccessToken != ""
}

func (s *Store) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken, s.session.RefreshToken != ""
}

// Identity returns nil when logged out.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone().Identity
}

func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone()
}

// Current returns the session together with its epoch. The epoch changes on
// every mutation and is what RotateTokens and ClearIf compare against.
func (s *Store) Current() (Session, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone(), s.epoch
}

// SetSession replaces the whole session. An empty access token clears it.
func (s *Store) SetSession(accessToken, refreshToken string, identity Identity) {
	if accessToken == "" {
		s.Clear()
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.apply(Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Identity:     &identity,
	})
}

// Clear logs out. Listeners are notified even if the store was already empty.
func (s *Store) Clear() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.apply(Session{})
}

// ClearIf clears only if nothing changed since epoch.
func (s *Store) ClearIf(epoch uint64) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Epoch() != epoch {
		return false
	}
	s.apply(Session{})
	return true
}

// RotateTokens swaps in refreshed tokens and keeps the identity. It refuses
// (ok is false) when the session was cleared or replaced after epoch was
// read, so a late refresh never resurrects a logged out session. An empty
// refreshToken keeps the current one. The returned epoch is the one of the
// rotated session.
func (s *Store) RotateTokens(epoch uint64, accessToken, refreshToken string) (uint64, bool) {
	if accessToken == "" {
		return 0, false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, currentEpoch := s.Current()
	if currentEpoch != epoch || !current.Authenticated() {
		return 0, false
	}
	if refreshToken == "" {
		refreshToken = current.RefreshToken
	}
	return s.apply(Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Identity:     current.Identity,
	}), true
}

// Subscribe registers l and calls it once with the current session.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	current := s.session.clone()
	s.mu.Unlock()

	l(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, e := range s.listeners {
				if e.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Epoch changes on every SetSession, Clear and RotateTokens.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// apply must be called with writeMu held.
func (s *Store) apply(next Session) uint64 {
	s.mu.Lock()
	s.session = next
	s.epoch++
	epoch := s.epoch
	snapshot := s.session.clone()
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	s.persist(snapshot)

	for _, e := range listeners {
		e.fn(snapshot.clone())
	}
	return epoch
}

func (s *Store) persist(session Session) {
	if s.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	var err error
	if !session.Authenticated() {
		err = s.repo.Delete(ctx, allKeys...)
	} else {
		err = s.save(ctx, map[string]string{
			KeyAccessToken:  session.AccessToken,
			KeyRefreshToken: session.RefreshToken,
			KeyDisplayName:  session.Identity.DisplayName,
			KeyRole:         session.Identity.Role.String(),
			KeyScopeID:      session.Identity.ScopeID,
		})
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("session not persisted, keeping it in memory only")
	}
}

func (s *Store) save(ctx context.Context, values map[string]string) error {
	var empty []string
	for k, v := range values {
		if v == "" {
			empty = append(empty, k)
			delete(values, k)
		}
	}
	if err := s.repo.Save(ctx, values); err != nil {
		return err
	}
	if len(empty) > 0 {
		return s.repo.Delete(ctx, empty...)
	}
	return nil
}
