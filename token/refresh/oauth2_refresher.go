package refresh

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	apperrors "github.com/jrsteele09/telco-console/internal/errors"
	"golang.org/x/oauth2"
)

var _ Refresher = (*OAuth2Refresher)(nil)

// OAuth2Refresher performs the RFC 6749 refresh_token grant against a token
// endpoint.
type OAuth2Refresher struct {
	config *oauth2.Config
	client *http.Client
}

// NewOAuth2Refresher uses tokenURL directly. Client credentials are sent as
// form parameters so public clients (no secret) work too.
func NewOAuth2Refresher(clientID, clientSecret, tokenURL string, scopes ...string) *OAuth2Refresher {
	return &OAuth2Refresher{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: scopes,
		},
	}
}

// NewOIDCRefresher discovers the token endpoint from the issuer's
// /.well-known/openid-configuration document.
func NewOIDCRefresher(ctx context.Context, issuerURL, clientID, clientSecret string, scopes ...string) (*OAuth2Refresher, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("[NewOIDCRefresher] discovery failed for %s: %w", issuerURL, err)
	}
	return NewOAuth2Refresher(clientID, clientSecret, provider.Endpoint().TokenURL, scopes...), nil
}

// WithHTTPClient sets the client used to reach the token endpoint.
func (r *OAuth2Refresher) WithHTTPClient(client *http.Client) *OAuth2Refresher {
	r.client = client
	return r
}

func (r *OAuth2Refresher) TokenURL() string {
	return r.config.Endpoint.TokenURL
}

func (r *OAuth2Refresher) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if r.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	}

	// A token with no access token is never valid, so the source always hits the endpoint.
	tok, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &StatusError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       strings.TrimSpace(string(retrieveErr.Body)),
			}
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("[OAuth2Refresher Refresh] %w", ctx.Err())
		}
		return nil, fmt.Errorf("[OAuth2Refresher Refresh] %w: %w", apperrors.ErrTransientNetwork, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("[OAuth2Refresher Refresh] %w: no access_token in response", apperrors.ErrMalformedResponse)
	}

	pair := &TokenPair{AccessToken: tok.AccessToken}
	if tok.RefreshToken != refreshToken {
		pair.RefreshToken = tok.RefreshToken
	}
	if role, ok := tok.Extra("role").(string); ok {
		pair.Role = role
	}
	return pair, nil
}
