package auth

import (
	"context"

	"github.com/pkg/errors"

	clientspkg "github.com/nexusweb/go-identity-server/clients"
	"github.com/nexusweb/go-identity-server/claims"
	"github.com/nexusweb/go-identity-server/oauth2"
)

var _ GrantHandler = (*ClientCredentialsGrant)(nil)

// ClientCredentialsGrant handles machine-to-machine token requests. No
// end-user is involved: the principal's subject is the client_id and its
// name the registered display name.
type ClientCredentialsGrant struct {
	clients clientspkg.Repo
}

func NewClientCredentialsGrant(clientRepo clientspkg.Repo) (*ClientCredentialsGrant, error) {
	if clientRepo == nil {
		return nil, errors.New("[NewClientCredentialsGrant] client repo is required")
	}
	return &ClientCredentialsGrant{clients: clientRepo}, nil
}

func (g *ClientCredentialsGrant) Handle(ctx context.Context, req *oauth2.TokenRequest) (*claims.Principal, []string, error) {
	client, err := g.clients.Get(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, clientspkg.ErrNotFound) {
			// An unregistered client_id on this grant is a deployment
			// defect, not a credential failure: only registered machine
			// clients ever reach this endpoint.
			return nil, nil, Configurationf("client %q is not registered", req.ClientID)
		}
		return nil, nil, errors.Wrap(err, "[ClientCredentialsGrant.Handle] Get")
	}

	if !client.IsPublic() && client.Secret != req.ClientSecret {
		return nil, nil, InvalidGrant(DescInvalidClient)
	}
	if !client.AllowsGrantType(oauth2.ClientCredentialsGrant) {
		return nil, nil, InvalidGrant(DescInvalidClient)
	}
	if _, ok := disallowedScope(client, req.Scopes()); ok {
		return nil, nil, InvalidScope(DescScopeNotAllowed)
	}

	p := claims.NewPrincipal(client.ID)
	p.SetClaim(claims.ClaimSubject, client.ID).
		SetClaim(claims.ClaimName, client.DisplayName)

	return p, req.Scopes(), nil
}
