package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/telco-console/auth"
	"github.com/jrsteele09/telco-console/users"
	"github.com/rs/zerolog/log"
)

const maxRequestBody = 1 << 20

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Role         string `json:"role"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginHandler answers POST /api/auth/login. Unknown users and wrong
// passwords get a 200 with login=false, as the console backend does.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.loginCalls.Add(1)

		var creds auth.Credentials
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&creds); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed login request")
			return
		}

		user, err := s.users.GetByUsername(creds.UserName)
		if err != nil {
			writeJSON(w, http.StatusOK, auth.LoginResponse{Login: false, UserName: false})
			return
		}
		if !user.CheckPassword(creds.Password) {
			writeJSON(w, http.StatusOK, auth.LoginResponse{Login: false, UserName: true, Password: false})
			return
		}
		if user.Blocked {
			writeError(w, http.StatusForbidden, "account_blocked", "account is blocked")
			return
		}

		accessToken, err := s.tokens.CreateAccessToken(user)
		if err != nil {
			log.Error().Err(err).Str("user", user.Username).Msg("failed to create access token")
			writeError(w, http.StatusInternalServerError, "internal_error", "could not issue token")
			return
		}
		refreshToken, err := s.refreshTokens.Create(user.ID)
		if err != nil {
			log.Error().Err(err).Str("user", user.Username).Msg("failed to create refresh token")
			writeError(w, http.StatusInternalServerError, "internal_error", "could not issue token")
			return
		}
		_ = s.users.SetLoggedIn(user.Username, true)

		resp := auth.LoginResponse{
			Login:        true,
			UserName:     true,
			Password:     true,
			Token:        accessToken,
			RefreshToken: refreshToken,
			Role:         user.Role,
		}
		if user.IsCustomer() {
			resp.CustomerID = user.CustomerID
			resp.CustomerName = user.DisplayName
		}
		log.Info().Str("user", user.Username).Str("role", user.Role).Msg("login")
		writeJSON(w, http.StatusOK, resp)
	}
}

// RefreshHandler answers POST /api/auth/refresh. The refresh token comes as
// a Bearer credential and is rotated on every successful call.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)

		presented, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid_grant", "missing refresh token")
			return
		}

		user, rotated, err := s.rotateRefreshToken(presented)
		if err != nil {
			log.Debug().Err(err).Msg("refresh rejected")
			writeError(w, http.StatusUnauthorized, "invalid_grant", "refresh token rejected")
			return
		}

		accessToken, err := s.tokens.CreateAccessToken(user)
		if err != nil {
			log.Error().Err(err).Str("user", user.Username).Msg("failed to create access token")
			writeError(w, http.StatusInternalServerError, "internal_error", "could not issue token")
			return
		}

		log.Debug().Str("user", user.Username).Msg("refreshed")
		writeJSON(w, http.StatusOK, refreshResponse{Token: accessToken, RefreshToken: rotated, Role: user.Role})
	}
}

// rotateRefreshToken swaps a presented refresh token for a new one and
// returns its owner. Tokens of unknown or blocked users are revoked.
func (s *Server) rotateRefreshToken(presented string) (*users.User, string, error) {
	userID, rotated, err := s.refreshTokens.Rotate(presented)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		s.refreshTokens.Revoke(rotated)
		return nil, "", fmt.Errorf("[rotateRefreshToken] %w", err)
	}
	if user.Blocked {
		s.refreshTokens.Revoke(rotated)
		return nil, "", fmt.Errorf("[rotateRefreshToken] user %s is blocked", user.Username)
	}
	return user, rotated, nil
}

// LogoutHandler answers POST /api/auth/logout. It revokes whatever it is
// given and always succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body logoutRequest
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&body)
		if body.RefreshToken != "" {
			s.refreshTokens.Revoke(body.RefreshToken)
		}

		if accessToken, ok := bearerToken(r); ok {
			if claims, err := s.tokens.Validate(accessToken); err == nil {
				if user, err := s.users.GetByID(claims.Subject); err == nil {
					_ = s.users.SetLoggedIn(user.Username, false)
				}
			}
			if err := s.tokens.RevokeAccessToken(accessToken); err != nil {
				log.Debug().Err(err).Msg("logout with unusable access token")
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
