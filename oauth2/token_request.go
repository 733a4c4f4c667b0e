package oauth2

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMalformedRequest     = errors.New("malformed token request")
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	ErrMissingRefreshToken  = errors.New("missing refresh_token")
	ErrMissingClientID      = errors.New("missing client_id")
)

// TokenRequest holds the form parameters of a token request. Client
// credentials are only read from the body (client_secret_post).
type TokenRequest struct {
	GrantType    GrantType
	ClientID     string
	ClientSecret string
	RefreshToken string
	Scope        string
}

// ParseTokenRequest reads and checks a refresh_token grant request.
func ParseTokenRequest(r *http.Request) (*TokenRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}

	req := &TokenRequest{
		GrantType:    GrantType(r.PostForm.Get("grant_type")),
		ClientID:     r.PostForm.Get("client_id"),
		ClientSecret: r.PostForm.Get("client_secret"),
		RefreshToken: r.PostForm.Get("refresh_token"),
		Scope:        r.PostForm.Get("scope"),
	}

	switch {
	case req.GrantType != RefreshTokenGrant:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGrantType, req.GrantType)
	case req.ClientID == "":
		return nil, ErrMissingClientID
	case req.RefreshToken == "":
		return nil, ErrMissingRefreshToken
	}
	return req, nil
}

// ErrorCode maps a ParseTokenRequest error to its RFC 6749 error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedGrantType):
		return ErrorUnsupportedGrantType
	case errors.Is(err, ErrMissingClientID):
		return ErrorInvalidClient
	default:
		return ErrorInvalidRequest
	}
}
