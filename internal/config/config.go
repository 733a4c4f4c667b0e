package config

import "time"

type Config interface {
	EnvConfig
	AuthConfig
	StorageConfig
	ServerConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	GetLogLevel() string
}

type AuthConfig interface {
	GetLoginPath() string
	GetRefreshPath() string
	GetLogoutPath() string
	GetRegisterPath() string
	GetRefreshTimeout() time.Duration
	GetLogoutTimeout() time.Duration
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
}

type StorageConfig interface {
	GetSessionStore() string
	GetSessionFile() string
	GetSessionPassphrase() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type ServerConfig interface {
	GetPort() string
	GetSigningSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenLength() int
	GetRefreshTokenTTL() time.Duration
	GetSeedPassword() string
}

type mainConfig struct {
	EnvVars
	Auth
	Storage
	Server
}

func New() Config {
	return mainConfig{}
}
