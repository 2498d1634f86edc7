package auth

import (
	"context"

	"github.com/nexusweb/go-identity-server/claims"
	"github.com/nexusweb/go-identity-server/oauth2"
)

// GrantHandler validates the credentials of one grant-type family and
// produces the principal plus the scopes to grant. Handlers perform all
// collaborator I/O; the router never does.
type GrantHandler interface {
	Handle(ctx context.Context, req *oauth2.TokenRequest) (*claims.Principal, []string, error)
}

// Router classifies a token request into exactly one grant handler.
//
// Routing is a pure mapping with no side effects: an unsupported grant
// type is rejected before any store lookup or credential check happens.
// authorization_code, refresh_token and device_code share one handler
// because they share re-validation semantics.
type Router struct {
	password          GrantHandler
	reauthentication  GrantHandler
	clientCredentials GrantHandler
}

func NewRouter(password, reauthentication, clientCredentials GrantHandler) *Router {
	return &Router{
		password:          password,
		reauthentication:  reauthentication,
		clientCredentials: clientCredentials,
	}
}

// Route returns the handler for the request's grant type, or
// ErrUnsupportedGrantType for anything outside the fixed set.
func (r *Router) Route(req *oauth2.TokenRequest) (GrantHandler, error) {
	switch req.GrantType {
	case oauth2.PasswordGrant:
		return r.password, nil
	case oauth2.AuthorizationCodeGrant, oauth2.RefreshTokenGrant, oauth2.DeviceCodeGrant:
		return r.reauthentication, nil
	case oauth2.ClientCredentialsGrant:
		return r.clientCredentials, nil
	default:
		return nil, ErrUnsupportedGrantType
	}
}
