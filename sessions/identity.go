package sessions

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/telco-console/internal/errors"
)

// AccessClaims are the identity claims the backend puts in its access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	Name              string   `json:"name,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Role              string   `json:"role,omitempty"`
	Roles             []string `json:"roles,omitempty"`
	CustomerID        string   `json:"customerId,omitempty"`
	BoutiqueID        string   `json:"boutiqueId,omitempty"`
}

// IdentityFromToken reads identity claims from an access token without
// verifying its signature.
func IdentityFromToken(accessToken string) (Identity, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return Identity{}, fmt.Errorf("[IdentityFromToken] %w: %w", apperrors.ErrInvalidToken, err)
	}
	return claims.Identity(), nil
}

func (c *AccessClaims) Identity() Identity {
	id := Identity{
		DisplayName: c.Name,
		Role:        ParseRole(c.Role),
		ScopeID:     c.CustomerID,
	}
	if id.DisplayName == "" {
		id.DisplayName = c.PreferredUsername
	}
	if id.DisplayName == "" {
		id.DisplayName = c.Subject
	}
	if id.Role == RoleUnknown {
		for _, r := range c.Roles {
			if role := ParseRole(r); role != RoleUnknown {
				id.Role = role
				break
			}
		}
	}
	if id.ScopeID == "" && id.Role.IsShopRole() {
		id.ScopeID = c.BoutiqueID
	}
	return id
}
