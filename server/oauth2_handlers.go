package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/telco-console/oauth2"
	"github.com/rs/zerolog/log"
)

// issuerURL is the issuer the request was addressed to, so the discovery
// document matches whatever URL the client used.
func issuerURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// WellKnownOpenIDConfigHandler serves the discovery document for the
// refresh_token grant.
func (s *Server) WellKnownOpenIDConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer := issuerURL(r)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, oauth2.DiscoveryDocument{
			Issuer:                            issuer,
			TokenEndpoint:                     issuer + RouteOAuth2Token,
			JWKSURI:                           issuer + RouteWellKnownJWKS,
			GrantTypesSupported:               []oauth2.GrantType{oauth2.RefreshTokenGrant},
			TokenEndpointAuthMethodsSupported: []string{"client_secret_post", "none"},
			IDTokenSigningAlgValuesSupported:  []string{s.tokens.SigningAlg()},
		})
	}
}

// JWKSHandler publishes an empty key set: access tokens are signed with a
// shared secret.
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]any{"keys": {}})
	}
}

// OAuth2TokenHandler answers the refresh_token grant. It shares the refresh
// token rotation of RefreshHandler.
func (s *Server) OAuth2TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		req, err := oauth2.ParseTokenRequest(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, oauth2.ErrMissingClientID) {
				status = http.StatusUnauthorized
			}
			writeOAuth2Error(w, status, oauth2.ErrorCode(err), err.Error())
			return
		}

		client, err := s.clients.Get(req.ClientID)
		if err != nil {
			writeOAuth2Error(w, http.StatusUnauthorized, oauth2.ErrorInvalidClient, "unknown client")
			return
		}
		if err := client.Authenticate(req.ClientSecret); err != nil {
			writeOAuth2Error(w, http.StatusUnauthorized, oauth2.ErrorInvalidClient, err.Error())
			return
		}
		if err := client.ValidateScopes(req.Scope); err != nil {
			writeOAuth2Error(w, http.StatusBadRequest, "invalid_scope", err.Error())
			return
		}

		user, rotated, err := s.rotateRefreshToken(req.RefreshToken)
		if err != nil {
			log.Debug().Err(err).Str("client", client.ID).Msg("refresh_token grant rejected")
			writeOAuth2Error(w, http.StatusBadRequest, oauth2.ErrorInvalidGrant, "refresh token rejected")
			return
		}

		accessToken, err := s.tokens.CreateAccessToken(user)
		if err != nil {
			log.Error().Err(err).Str("user", user.Username).Msg("failed to create access token")
			writeOAuth2Error(w, http.StatusInternalServerError, "server_error", "could not issue token")
			return
		}

		log.Debug().Str("user", user.Username).Str("client", client.ID).Msg("refresh_token grant")
		writeJSON(w, http.StatusOK, oauth2.TokenResponse{
			AccessToken:  accessToken,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.tokens.AccessTokenExpiry().Seconds()),
			RefreshToken: rotated,
			Scope:        req.Scope,
			Role:         user.Role,
		})
	}
}

func writeOAuth2Error(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, oauth2.ErrorResponse{Error: code, Description: description})
}
