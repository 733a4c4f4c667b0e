package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/telco-console/internal/config"
)

// Open builds the repo selected by cfg.GetSessionStore(). "memory" returns a
// nil Repo: the session then lives only as long as the process.
func Open(ctx context.Context, cfg config.StorageConfig) (Repo, error) {
	switch kind := strings.ToLower(cfg.GetSessionStore()); kind {
	case "file", "":
		var opts []FileRepoOption
		if passphrase := cfg.GetSessionPassphrase(); passphrase != "" {
			opts = append(opts, WithPassphrase(passphrase))
		}
		return NewFileRepo(cfg.GetSessionFile(), opts...), nil
	case "redis":
		repo, err := NewRedisRepo(ctx, RedisConfig{
			Addr:      cfg.GetRedisAddr(),
			Password:  cfg.GetRedisPassword(),
			DB:        cfg.GetRedisDB(),
			KeyPrefix: cfg.GetRedisKeyPrefix(),
		})
		if err != nil {
			return nil, fmt.Errorf("[storage Open] %w", err)
		}
		return repo, nil
	case "memory":
		return nil, nil
	default:
		return nil, fmt.Errorf("[storage Open] unknown session store %q", kind)
	}
}
