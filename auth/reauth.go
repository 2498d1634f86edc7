package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nexusweb/go-identity-server/authz"
	"github.com/nexusweb/go-identity-server/claims"
	"github.com/nexusweb/go-identity-server/oauth2"
	"github.com/nexusweb/go-identity-server/token/refresh"
	"github.com/nexusweb/go-identity-server/users"
)

var _ GrantHandler = (*ReauthenticationGrant)(nil)

// ReauthenticationGrant re-validates a previously issued authorization
// code, refresh token or device code. The three grants share semantics:
// resolve the presented artifact back to its authorization, re-resolve the
// user it references and rebuild the principal from current user state.
// Scopes come from the original grant, never from the new request.
type ReauthenticationGrant struct {
	users          users.Repo
	authorizations authz.Store
	codes          *authz.CodeStore
	refresh        *refresh.Manager
}

func NewReauthenticationGrant(userRepo users.Repo, store authz.Store, codes *authz.CodeStore, refreshManager *refresh.Manager) (*ReauthenticationGrant, error) {
	if userRepo == nil {
		return nil, errors.New("[NewReauthenticationGrant] user repo is required")
	}
	if store == nil {
		return nil, errors.New("[NewReauthenticationGrant] authorization store is required")
	}
	if codes == nil {
		return nil, errors.New("[NewReauthenticationGrant] code store is required")
	}
	if refreshManager == nil {
		return nil, errors.New("[NewReauthenticationGrant] refresh manager is required")
	}
	return &ReauthenticationGrant{
		users:          userRepo,
		authorizations: store,
		codes:          codes,
		refresh:        refreshManager,
	}, nil
}

func (g *ReauthenticationGrant) Handle(ctx context.Context, req *oauth2.TokenRequest) (*claims.Principal, []string, error) {
	subject, scopes, err := g.resolve(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	// The account may have been deleted since the token was issued.
	user, err := g.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, nil, InvalidGrant(DescTokenNoLongerValid)
		}
		return nil, nil, errors.Wrap(err, "[ReauthenticationGrant.Handle] GetByID")
	}

	if !user.CanSignIn() {
		return nil, nil, InvalidGrant(DescUserCannotSignIn)
	}

	return principalFromUser(user), scopes, nil
}

// resolve maps the presented artifact to (subject, granted scopes).
func (g *ReauthenticationGrant) resolve(ctx context.Context, req *oauth2.TokenRequest) (string, []string, error) {
	switch req.GrantType {
	case oauth2.AuthorizationCodeGrant:
		id, err := g.codes.RedeemAuthorizationCode(req.Code)
		if err != nil {
			return "", nil, InvalidGrant(DescTokenNoLongerValid)
		}
		return g.fromAuthorization(ctx, id, false)

	case oauth2.DeviceCodeGrant:
		id, err := g.codes.LookupDeviceCode(req.DeviceCode)
		if err != nil {
			return "", nil, InvalidGrant(DescTokenNoLongerValid)
		}
		subject, scopes, err := g.fromAuthorization(ctx, id, true)
		if err != nil {
			return "", nil, err
		}
		g.codes.ConsumeDeviceCode(req.DeviceCode)
		return subject, scopes, nil

	case oauth2.RefreshTokenGrant:
		record, err := g.refresh.Redeem(ctx, req.RefreshToken)
		if err != nil {
			if errors.Is(err, refresh.ErrNotFound) {
				return "", nil, InvalidGrant(DescTokenNoLongerValid)
			}
			return "", nil, errors.Wrap(err, "[ReauthenticationGrant.resolve] Redeem")
		}
		return record.Subject, record.Scopes, nil

	default:
		// The router never sends anything else here.
		return "", nil, ErrUnsupportedGrantType
	}
}

func (g *ReauthenticationGrant) fromAuthorization(ctx context.Context, id string, allowPendingError bool) (string, []string, error) {
	a, err := g.authorizations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, authz.ErrNotFound) {
			return "", nil, InvalidGrant(DescTokenNoLongerValid)
		}
		return "", nil, errors.Wrap(err, "[ReauthenticationGrant.fromAuthorization] Get")
	}

	switch a.Status {
	case authz.StatusValid:
		return a.Subject, a.Scopes, nil
	case authz.StatusPending:
		if allowPendingError {
			return "", nil, InvalidGrant(DescDevicePending)
		}
		return "", nil, InvalidGrant(DescTokenNoLongerValid)
	default:
		return "", nil, InvalidGrant(DescTokenNoLongerValid)
	}
}
