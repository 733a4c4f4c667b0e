package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/telco-console/storage"
	"github.com/stretchr/testify/require"
)

// Runs only when TEST_REDIS_ADDR points at a disposable Redis.
func TestRedisRepo_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r, err := storage.NewRedisRepo(ctx, storage.RedisConfig{
		Addr:      addr,
		Password:  os.Getenv("TEST_REDIS_PASSWORD"),
		KeyPrefix: "telco-console-test:" + uuid.NewString() + ":",
		TTL:       time.Minute,
	})
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Save(ctx, map[string]string{"auth_token": "T1", "user_role": "agent"}))

	values, err := r.Load(ctx, "auth_token", "user_role", "refresh_token")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"auth_token": "T1", "user_role": "agent"}, values)

	require.NoError(t, r.Delete(ctx, "auth_token", "user_role"))
	values, err = r.Load(ctx, "auth_token", "user_role")
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestRedisRepo_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := storage.NewRedisRepo(ctx, storage.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
}
