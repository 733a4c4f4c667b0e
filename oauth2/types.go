package oauth2

// GrantType is the grant_type parameter of a token request.
type GrantType string

const (
	// RefreshTokenGrant exchanges a refresh token for a new access token and
	// a rotated refresh token.
	RefreshTokenGrant GrantType = "refresh_token"
)

// Error codes of RFC 6749 section 5.2.
const (
	ErrorInvalidRequest       = "invalid_request"
	ErrorInvalidClient        = "invalid_client"
	ErrorInvalidGrant         = "invalid_grant"
	ErrorUnsupportedGrantType = "unsupported_grant_type"
)

// ErrorResponse is the body of a failed token request.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// DiscoveryDocument is the subset of the OpenID Provider metadata the
// development backend publishes.
type DiscoveryDocument struct {
	Issuer                            string      `json:"issuer"`
	AuthorizationEndpoint             string      `json:"authorization_endpoint,omitempty"`
	TokenEndpoint                     string      `json:"token_endpoint"`
	JWKSURI                           string      `json:"jwks_uri"`
	GrantTypesSupported               []GrantType `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string    `json:"token_endpoint_auth_methods_supported"`
	IDTokenSigningAlgValuesSupported  []string    `json:"id_token_signing_alg_values_supported"`
}
