package clients

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	ErrInvalidScope        = errors.New("scope not allowed for client")
	ErrInvalidClientSecret = errors.New("invalid client secret")
)

type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // holds a secret
	ClientTypePublic       ClientType = "public"       // CLIs and browsers
)

// Client is an application allowed to use the token endpoint.
type Client struct {
	ID          string     `json:"id"`
	Type        ClientType `json:"type"`
	Description string     `json:"description"`
	Secret      string     `json:"-"`
	Scopes      []string   `json:"scopes"`
}

func (c *Client) IsPublic() bool {
	return c.Type == ClientTypePublic
}

// Authenticate checks the presented secret. Public clients have none to check.
func (c *Client) Authenticate(secret string) error {
	if c.IsPublic() {
		return nil
	}
	if c.Secret == "" || subtle.ConstantTimeCompare([]byte(c.Secret), []byte(secret)) != 1 {
		return ErrInvalidClientSecret
	}
	return nil
}

func (c *Client) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ValidateScopes checks a space separated scope parameter. An empty one is
// always allowed.
func (c *Client) ValidateScopes(requested string) error {
	for _, scope := range strings.Fields(requested) {
		if !c.HasScope(scope) {
			return ErrInvalidScope
		}
	}
	return nil
}
