package oauth2

import "strings"

// TokenRequest holds the parameters of a single token-endpoint call.
// It is constructed from the wire request (form-urlencoded or JSON) and
// lives for the duration of one exchange.
type TokenRequest struct {
	// GrantType selects the exchange mechanism. Must be one of the
	// SupportedGrantTypes; unrecognised values fail fast.
	GrantType GrantType `json:"grant_type"`

	// ClientID identifies the OAuth2 client making the request.
	ClientID string `json:"client_id"`

	// ClientSecret is the secret credential for confidential clients.
	// Security: never log or expose this value.
	ClientSecret string `json:"client_secret,omitempty"`

	// Username and Password carry resource-owner credentials for the
	// password grant. Empty for every other grant type.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// Scope is the space-separated list of requested scopes.
	Scope string `json:"scope,omitempty"`

	// Code is the authorization code being exchanged (authorization_code
	// grant). Single use: redeeming it invalidates it.
	Code string `json:"code,omitempty"`

	// DeviceCode is the code issued by the device authorization endpoint
	// (device_code grant).
	DeviceCode string `json:"device_code,omitempty"`

	// RefreshToken is the opaque token being exchanged for a fresh pair
	// (refresh_token grant). Rotated on every use.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Scopes returns the requested scopes as a slice, preserving request order
// and dropping duplicates.
func (r *TokenRequest) Scopes() []string {
	return SplitScopes(r.Scope)
}

// SplitScopes splits a space-separated scope string into an ordered,
// de-duplicated slice.
func SplitScopes(scope string) []string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	scopes := make([]string, 0, len(fields))
	for _, s := range fields {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		scopes = append(scopes, s)
	}
	return scopes
}

// JoinScopes is the inverse of SplitScopes.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

// HasScope reports whether scope appears in the slice.
func HasScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}
