package config

import (
	"fmt"
	"strings"
	"time"
)

type Server struct{}

var _ ServerConfig = Server{}

func (Server) GetPort() string {
	port := GetEnv("PORT", "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (Server) GetSigningSecret() string {
	return GetEnv("SIGNING_SECRET", "dev-signing-secret")
}

// GetAccessTokenTTL is the lifetime of access tokens issued by the development backend.
func (Server) GetAccessTokenTTL() time.Duration {
	return GetEnvDuration("ACCESS_TOKEN_TTL", time.Minute)
}

func (Server) GetRefreshTokenLength() int {
	return GetEnvInt("REFRESH_TOKEN_LENGTH", 32) // 32 bytes = 256 bits
}

func (Server) GetRefreshTokenTTL() time.Duration {
	return GetEnvDuration("REFRESH_TOKEN_TTL", 24*time.Hour)
}

// GetSeedPassword is the password of the demo users the development backend
// creates at startup.
func (Server) GetSeedPassword() string {
	return GetEnv("SEED_PASSWORD", "Passw0rd!")
}
