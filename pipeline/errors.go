package pipeline

import (
	apperrors "github.com/jrsteele09/telco-console/internal/errors"
)

var (
	ErrTransientNetwork           = apperrors.ErrTransientNetwork
	ErrRefreshRejected            = apperrors.ErrRefreshRejected
	ErrReplayAuthorizationExpired = apperrors.ErrReplayAuthorizationExpired
	ErrNoRefreshCredential        = apperrors.ErrNoRefreshCredential
	ErrSessionCleared             = apperrors.ErrSessionCleared
	ErrMalformedResponse          = apperrors.ErrMalformedResponse
)

// IsTerminal reports whether err logged the user out. Callers should show a
// login view when it returns true.
func IsTerminal(err error) bool {
	return apperrors.IsTerminalAuth(err)
}
