package oauth2

// TokenResponse is the RFC 6749 token endpoint response. Role is an extra
// member the console reads to refresh the displayed role.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	Role         string `json:"role,omitempty"`
}
