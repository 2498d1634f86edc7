package claims

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nexusweb/go-identity-server/oauth2"
)

// ResourceResolver resolves the API resource identifiers registered against
// a set of scopes. Implemented by the scope registry.
type ResourceResolver interface {
	ListResources(ctx context.Context, scopes []string) ([]string, error)
}

// Assembler attaches scope, resource and destination metadata to a
// principal built by one of the grant handlers. It owns no mutable state
// and is safe for concurrent use.
type Assembler struct {
	resources ResourceResolver
}

// NewAssembler creates an Assembler backed by the given scope registry.
func NewAssembler(resources ResourceResolver) (*Assembler, error) {
	if resources == nil {
		return nil, errors.New("[NewAssembler] resource resolver is required")
	}
	return &Assembler{resources: resources}, nil
}

// Assemble grants the requested scopes to the principal, resolves the
// resources registered against them and computes per-claim destinations.
//
// Granted scopes match the requested scopes verbatim. Narrowing against a
// per-client allow-list happens upstream in the grant handlers, where the
// client registration is at hand.
func (a *Assembler) Assemble(ctx context.Context, p *Principal, requestedScopes []string) error {
	if p == nil {
		return errors.New("[Assembler.Assemble] nil principal")
	}

	p.Scopes = append([]string(nil), requestedScopes...)

	resources, err := a.resources.ListResources(ctx, p.Scopes)
	if err != nil {
		return errors.Wrap(err, "[Assembler.Assemble] ListResources")
	}
	p.Resources = resources

	SetDestinations(p)
	return nil
}

// SetDestinations assigns each claim's destinations according to the
// granted scopes:
//
//   - "sub" goes to both tokens unconditionally
//   - "name" and "preferred_username" reach the identity token only with
//     the "profile" scope
//   - "email" claims reach the identity token only with the "email" scope
//   - "phone_number" claims reach the identity token only with "phone"
//   - "role" reaches the identity token only with the "roles" scope
//   - everything else is access-token only
//
// Claims never reach the identity token unless "openid" itself was granted;
// the issuer skips identity-token minting entirely in that case.
func SetDestinations(p *Principal) {
	for i := range p.Claims {
		c := &p.Claims[i]
		c.Destinations = DestinationAccessToken

		switch c.Name {
		case ClaimSubject:
			c.Destinations |= DestinationIdentityToken
		case ClaimName, ClaimPreferredUsername:
			if p.HasScope(oauth2.ScopeProfile) {
				c.Destinations |= DestinationIdentityToken
			}
		case ClaimEmail, ClaimEmailVerified:
			if p.HasScope(oauth2.ScopeEmail) {
				c.Destinations |= DestinationIdentityToken
			}
		case ClaimPhoneNumber, ClaimPhoneNumberVerified:
			if p.HasScope(oauth2.ScopePhone) {
				c.Destinations |= DestinationIdentityToken
			}
		case ClaimRole:
			if p.HasScope(oauth2.ScopeRoles) {
				c.Destinations |= DestinationIdentityToken
			}
		}
	}
}
