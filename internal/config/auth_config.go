package config

import "time"

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetLoginPath() string {
	return GetEnv("AUTH_LOGIN_PATH", "/api/auth/login")
}

func (Auth) GetRefreshPath() string {
	return GetEnv("AUTH_REFRESH_PATH", "/api/auth/refresh")
}

func (Auth) GetLogoutPath() string {
	return GetEnv("AUTH_LOGOUT_PATH", "/api/auth/logout")
}

func (Auth) GetRegisterPath() string {
	return GetEnv("AUTH_REGISTER_PATH", "/api/auth/register")
}

// GetRefreshTimeout bounds a single refresh call. A timeout counts as a
// rejected refresh and logs the user out.
func (Auth) GetRefreshTimeout() time.Duration {
	return GetEnvDuration("REFRESH_TIMEOUT", 10*time.Second)
}

func (Auth) GetLogoutTimeout() time.Duration {
	return GetEnvDuration("LOGOUT_TIMEOUT", 5*time.Second)
}

// GetOIDCIssuer switches refreshes to the OAuth2 refresh grant against the
// token endpoint discovered from this issuer. Empty keeps the backend's own
// refresh endpoint.
func (Auth) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (Auth) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "telco-console")
}

func (Auth) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}
