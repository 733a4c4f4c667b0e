package sessions_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/telco-console/sessions"
	"github.com/jrsteele09/telco-console/storage/repofake"
	"github.com/stretchr/testify/require"
)

var adminIdentity = sessions.Identity{DisplayName: "alice", Role: sessions.RoleAdministrator}

func newStore(t *testing.T) (*sessions.Store, *repofake.FakeRepo) {
	t.Helper()
	repo := repofake.NewFakeRepo()
	return sessions.NewStore(context.Background(), repo), repo
}

// recorder collects every notification a listener receives.
type recorder struct {
	mu   sync.Mutex
	seen []sessions.Session
}

func (r *recorder) listen(s sessions.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
}

func (r *recorder) all() []sessions.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sessions.Session(nil), r.seen...)
}

func TestStore_StartsEmpty(t *testing.T) {
	s, _ := newStore(t)

	_, ok := s.AccessToken()
	require.False(t, ok)
	_, ok = s.RefreshToken()
	require.False(t, ok)
	require.Nil(t, s.Identity())
	require.False(t, s.Session().Authenticated())
}

func TestStore_SetSessionPersistsAndNotifies(t *testing.T) {
	s, repo := newStore(t)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	s.SetSession("T1", "R1", sessions.Identity{DisplayName: "bob", Role: sessions.RoleCustomer, ScopeID: "CUST-42"})

	token, ok := s.AccessToken()
	require.True(t, ok)
	require.Equal(t, "T1", token)
	refresh, ok := s.RefreshToken()
	require.True(t, ok)
	require.Equal(t, "R1", refresh)
	require.Equal(t, "CUST-42", s.Identity().ScopeID)

	require.Equal(t, map[string]string{
		sessions.KeyAccessToken:  "T1",
		sessions.KeyRefreshToken: "R1",
		sessions.KeyDisplayName:  "bob",
		sessions.KeyRole:         "customer",
		sessions.KeyScopeID:      "CUST-42",
	}, repo.Snapshot())

	seen := rec.all()
	require.Len(t, seen, 2)
	require.False(t, seen[0].Authenticated(), "initial callback carries the state at subscription time")
	require.True(t, seen[1].Authenticated())
	require.Equal(t, "T1", seen[1].AccessToken)
}

func TestStore_SessionWithoutRefreshToken(t *testing.T) {
	s, repo := newStore(t)
	s.SetSession("T1", "R1", adminIdentity)
	s.SetSession("T2", "", adminIdentity)

	_, ok := s.RefreshToken()
	require.False(t, ok)
	require.True(t, s.Session().Authenticated())
	require.NotContains(t, repo.Snapshot(), sessions.KeyRefreshToken)
}

func TestStore_ClearIsIdempotentAndAlwaysNotifies(t *testing.T) {
	s, repo := newStore(t)
	s.SetSession("T1", "R1", adminIdentity)

	rec := &recorder{}
	s.Subscribe(rec.listen)

	s.Clear()
	first := s.Session()
	s.Clear()
	second := s.Session()

	require.Equal(t, first, second)
	require.False(t, second.Authenticated())
	require.Nil(t, second.Identity)
	require.Empty(t, repo.Snapshot())

	seen := rec.all()
	require.Len(t, seen, 3) // initial + two clears
	require.False(t, seen[1].Authenticated())
	require.False(t, seen[2].Authenticated())
}

func TestStore_EmptyAccessTokenClears(t *testing.T) {
	s, _ := newStore(t)
	s.SetSession("T1", "R1", adminIdentity)

	s.SetSession("", "R2", adminIdentity)

	sess := s.Session()
	require.Empty(t, sess.AccessToken)
	require.Nil(t, sess.Identity)
	require.Empty(t, sess.RefreshToken)
}

func TestStore_Unsubscribe(t *testing.T) {
	s, _ := newStore(t)
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.listen)

	s.SetSession("T1", "R1", adminIdentity)
	unsubscribe()
	unsubscribe()
	s.Clear()

	require.Len(t, rec.all(), 2)
}

func TestStore_ListenersRunInRegistrationOrder(t *testing.T) {
	s, _ := newStore(t)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		s.Subscribe(func(sessions.Session) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		})
	}
	mu.Lock()
	order = nil
	mu.Unlock()

	s.Clear()

	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestStore_UnsubscribeFromInsideListener(t *testing.T) {
	s, _ := newStore(t)

	calls := 0
	var unsubscribe func()
	unsubscribe = s.Subscribe(func(sessions.Session) {
		calls++
		if calls == 2 {
			unsubscribe()
		}
	})

	s.SetSession("T1", "R1", adminIdentity)
	s.Clear()

	require.Equal(t, 2, calls)
}

func TestStore_WriteFailureKeepsSessionInMemory(t *testing.T) {
	s, repo := newStore(t)
	repo.FailWrites(errors.New("quota exceeded"))

	s.SetSession("T1", "R1", adminIdentity)

	token, ok := s.AccessToken()
	require.True(t, ok)
	require.Equal(t, "T1", token)
	require.Empty(t, repo.Snapshot())

	s.Clear()
	require.False(t, s.Session().Authenticated())
}

func TestStore_RestoresPersistedSession(t *testing.T) {
	repo := repofake.NewFakeRepo()
	first := sessions.NewStore(context.Background(), repo)
	first.SetSession("T1", "R1", sessions.Identity{DisplayName: "carol", Role: sessions.RoleShopManager, ScopeID: "BTQ-7"})

	second := sessions.NewStore(context.Background(), repo)

	sess := second.Session()
	require.True(t, sess.Authenticated())
	require.Equal(t, "T1", sess.AccessToken)
	require.Equal(t, "R1", sess.RefreshToken)
	require.Equal(t, sessions.Identity{DisplayName: "carol", Role: sessions.RoleShopManager, ScopeID: "BTQ-7"}, *sess.Identity)
}

func TestStore_SeedDiscardsIncompleteSession(t *testing.T) {
	repo := repofake.NewSeededFakeRepo(map[string]string{
		sessions.KeyRefreshToken: "R-orphan",
		sessions.KeyRole:         "admin",
	})

	s := sessions.NewStore(context.Background(), repo)

	require.False(t, s.Session().Authenticated())
	_, ok := s.RefreshToken()
	require.False(t, ok)
	require.Empty(t, repo.Snapshot())
}

func TestStore_SeedDerivesIdentityFromToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "u-1", "name": "Dana", "role": "agent", "boutiqueId": "BTQ-3"})
	repo := repofake.NewSeededFakeRepo(map[string]string{sessions.KeyAccessToken: token})

	s := sessions.NewStore(context.Background(), repo)

	id := s.Identity()
	require.NotNil(t, id)
	require.Equal(t, sessions.Identity{DisplayName: "Dana", Role: sessions.RoleAgent, ScopeID: "BTQ-3"}, *id)
}

func TestStore_SeedDiscardsOpaqueTokenWithoutIdentity(t *testing.T) {
	repo := repofake.NewSeededFakeRepo(map[string]string{sessions.KeyAccessToken: "opaque"})

	s := sessions.NewStore(context.Background(), repo)

	require.False(t, s.Session().Authenticated())
}

func TestStore_RotateTokens(t *testing.T) {
	s, _ := newStore(t)
	s.SetSession("T1", "R1", adminIdentity)

	t.Run("keeps identity", func(t *testing.T) {
		_, epoch := s.Current()
		rotated, ok := s.RotateTokens(epoch, "T2", "R2")
		require.True(t, ok)
		require.Equal(t, s.Epoch(), rotated)

		sess := s.Session()
		require.Equal(t, "T2", sess.AccessToken)
		require.Equal(t, "R2", sess.RefreshToken)
		require.Equal(t, adminIdentity, *sess.Identity)
	})

	t.Run("empty refresh token keeps the current one", func(t *testing.T) {
		_, epoch := s.Current()
		_, ok := s.RotateTokens(epoch, "T3", "")
		require.True(t, ok)
		require.Equal(t, "R2", s.Session().RefreshToken)
	})

	t.Run("stale epoch after clear is refused", func(t *testing.T) {
		_, epoch := s.Current()
		s.Clear()
		_, ok := s.RotateTokens(epoch, "T4", "R4")
		require.False(t, ok)
		require.False(t, s.Session().Authenticated())
	})

	t.Run("stale epoch after new login is refused", func(t *testing.T) {
		s.SetSession("A1", "B1", adminIdentity)
		_, epoch := s.Current()
		s.SetSession("A2", "B2", adminIdentity)
		_, ok := s.RotateTokens(epoch, "T5", "R5")
		require.False(t, ok)
		require.Equal(t, "A2", s.Session().AccessToken)
	})
}

func TestStore_ClearIf(t *testing.T) {
	s, _ := newStore(t)
	s.SetSession("T1", "R1", adminIdentity)
	_, epoch := s.Current()

	s.SetSession("T2", "R2", adminIdentity)
	require.False(t, s.ClearIf(epoch))
	require.True(t, s.Session().Authenticated())

	_, epoch = s.Current()
	require.True(t, s.ClearIf(epoch))
	require.False(t, s.Session().Authenticated())
}

func TestStore_InvariantUnderConcurrentMutation(t *testing.T) {
	s, _ := newStore(t)

	violations := 0
	var mu sync.Mutex
	s.Subscribe(func(sess sessions.Session) {
		if (sess.AccessToken != "") != (sess.Identity != nil) {
			mu.Lock()
			violations++
			mu.Unlock()
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch (i + j) % 3 {
				case 0:
					s.SetSession("T", "R", adminIdentity)
				case 1:
					s.Clear()
				default:
					_, epoch := s.Current()
					s.RotateTokens(epoch, "T'", "")
				}
				sess := s.Session()
				if (sess.AccessToken != "") != (sess.Identity != nil) {
					mu.Lock()
					violations++
					mu.Unlock()
				}
			}
		}(i)
	}
	wg.Wait()

	require.Zero(t, violations)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}
