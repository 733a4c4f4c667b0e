package errors

import "errors"

// Common error types for the console client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// Pipeline errors. Everything except ErrTransientNetwork and
	// ErrAuthorizationExpired is terminal and leaves the session cleared.
	ErrTransientNetwork           = errors.New("transient network error")
	ErrAuthorizationExpired       = errors.New("authorization expired")
	ErrRefreshRejected            = errors.New("refresh rejected")
	ErrReplayAuthorizationExpired = errors.New("replay authorization expired")
	ErrNoRefreshCredential        = errors.New("no refresh credential")
	ErrSessionCleared             = errors.New("session cleared during refresh")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrMalformedResponse   = errors.New("malformed response")

	// Storage errors
	ErrNotFound = errors.New("not found")
	ErrSealed   = errors.New("sealed data could not be opened")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// IsTerminalAuth reports whether err ended the session.
func IsTerminalAuth(err error) bool {
	return errors.Is(err, ErrRefreshRejected) ||
		errors.Is(err, ErrReplayAuthorizationExpired) ||
		errors.Is(err, ErrNoRefreshCredential) ||
		errors.Is(err, ErrSessionCleared)
}
