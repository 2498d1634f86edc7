package oauth2

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// PasswordGrant exchanges resource-owner credentials for tokens.
	// Token request includes: username, password, client_id, scope
	// Returns: access_token, id_token (if "openid" granted), refresh_token (if "offline_access" granted)
	PasswordGrant GrantType = "password"

	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, client_id, client_secret
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// The old refresh token is invalidated and a rotated one is issued.
	RefreshTokenGrant GrantType = "refresh_token"

	// DeviceCodeGrant exchanges a device code obtained from the device
	// authorization endpoint for tokens, once the user has approved it.
	DeviceCodeGrant GrantType = "device_code"

	// ClientCredentialsGrant allows machine-to-machine authentication.
	// No end-user is involved: the principal's subject is the client itself.
	ClientCredentialsGrant GrantType = "client_credentials"
)

// SupportedGrantTypes is the closed set the token endpoint recognises.
// Anything else is rejected with ErrorUnsupportedGrantType before any
// collaborator is invoked.
var SupportedGrantTypes = []GrantType{
	PasswordGrant,
	AuthorizationCodeGrant,
	RefreshTokenGrant,
	DeviceCodeGrant,
	ClientCredentialsGrant,
}

// Supported reports whether gt belongs to the fixed grant-type set.
func (gt GrantType) Supported() bool {
	for _, g := range SupportedGrantTypes {
		if gt == g {
			return true
		}
	}
	return false
}

// Wire-level error codes returned by the token endpoint, per RFC 6749 §5.2.
const (
	ErrorInvalidRequest       = "invalid_request"
	ErrorInvalidGrant         = "invalid_grant"
	ErrorInvalidScope         = "invalid_scope"
	ErrorUnsupportedGrantType = "unsupported_grant_type"
	ErrorInvalidToken         = "invalid_token"
	ErrorServerError          = "server_error"
)

// Standard OIDC scope names.
const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopePhone         = "phone"
	ScopeRoles         = "roles"
	ScopeOfflineAccess = "offline_access"
)
