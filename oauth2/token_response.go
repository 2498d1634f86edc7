package oauth2

// TokenResponse represents the response from an OAuth2 token request.
// This is the standard token endpoint response format defined in RFC 6749,
// returned for all grant types.
type TokenResponse struct {
	// AccessToken is the JWT used to access protected resources.
	// Usage: "Authorization: Bearer <access_token>".
	AccessToken *string `json:"access_token,omitempty"`

	// IDToken is the OpenID Connect identity token. Only present when the
	// "openid" scope was granted.
	IDToken *string `json:"id_token,omitempty"`

	// TokenType is always "Bearer" in this implementation.
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds. A hint - the
	// authoritative expiry is the JWT "exp" claim.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Only present when the "offline_access" scope was granted; rotates on
	// each use.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope is the space-separated list of granted scopes.
	Scope string `json:"scope,omitempty"`
}

// ErrorResponse is the wire shape of a failed token-endpoint call.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// DeviceAuthorizationResponse is the response of the device authorization
// endpoint, per RFC 8628 §3.2.
type DeviceAuthorizationResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}
