package config

type Storage struct{}

var _ StorageConfig = Storage{}

// GetSessionStore selects the durable session backend: "file", "redis" or "memory".
func (Storage) GetSessionStore() string {
	return GetEnv("SESSION_STORE", "file")
}

func (Storage) GetSessionFile() string {
	return GetEnv("SESSION_FILE", "./data/session.json")
}

// GetSessionPassphrase enables sealing of the session file when set.
func (Storage) GetSessionPassphrase() string {
	return GetEnv("SESSION_PASSPHRASE", "")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (Storage) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "telco-console:")
}
