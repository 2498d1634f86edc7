package clients

import "github.com/nexusweb/go-identity-server/oauth2"

type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // Can keep secrets (server-side apps)
	ClientTypePublic       ClientType = "public"       // Cannot keep secrets (SPAs, mobile apps)
)

// Permission tag prefixes. A client's registered permissions are a flat set
// of "<prefix><name>" tags covering endpoints, grant types, response types
// and scopes.
const (
	PermissionPrefixEndpoint     = "ept:"
	PermissionPrefixGrantType    = "gt:"
	PermissionPrefixResponseType = "rst:"
	PermissionPrefixScope        = "scp:"
)

// Client is a registered client application. Immutable during a request;
// looked up by ID.
type Client struct {
	ID                     string     `json:"id"`
	DisplayName            string     `json:"display_name"`
	Type                   ClientType `json:"type"`
	Secret                 string     `json:"secret,omitempty"`
	RedirectURIs           []string   `json:"redirect_uris,omitempty"`
	PostLogoutRedirectURIs []string   `json:"post_logout_redirect_uris,omitempty"`
	Permissions            []string   `json:"permissions,omitempty"`
}

// IsPublic returns true if the client cannot hold a secret.
func (c *Client) IsPublic() bool {
	return c.Type == ClientTypePublic
}

// HasPermission checks for an exact permission tag.
func (c *Client) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// AllowsGrantType reports whether the client is registered for the grant.
// Clients with no grant-type tags at all are treated as unrestricted, so a
// minimal registration keeps working.
func (c *Client) AllowsGrantType(gt oauth2.GrantType) bool {
	restricted := false
	for _, p := range c.Permissions {
		if len(p) > len(PermissionPrefixGrantType) && p[:len(PermissionPrefixGrantType)] == PermissionPrefixGrantType {
			restricted = true
			if p == PermissionPrefixGrantType+string(gt) {
				return true
			}
		}
	}
	return !restricted
}

// AllowsScope reports whether the client may request the named scope.
// Same unrestricted-when-untagged rule as AllowsGrantType.
func (c *Client) AllowsScope(scope string) bool {
	restricted := false
	for _, p := range c.Permissions {
		if len(p) > len(PermissionPrefixScope) && p[:len(PermissionPrefixScope)] == PermissionPrefixScope {
			restricted = true
			if p == PermissionPrefixScope+scope {
				return true
			}
		}
	}
	return !restricted
}

// AllowsPostLogoutRedirect validates a client-supplied post-logout URI
// against the registered allow-list. An exact match is required.
func (c *Client) AllowsPostLogoutRedirect(uri string) bool {
	for _, u := range c.PostLogoutRedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}
