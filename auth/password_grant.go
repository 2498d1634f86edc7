package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/nexusweb/go-identity-server/auth/lockout"
	"github.com/nexusweb/go-identity-server/claims"
	clientspkg "github.com/nexusweb/go-identity-server/clients"
	"github.com/nexusweb/go-identity-server/oauth2"
	"github.com/nexusweb/go-identity-server/users"
)

var _ GrantHandler = (*PasswordGrant)(nil)

// PasswordGrant validates resource-owner password credentials. Every
// failure mode - unknown user, wrong password, locked account - returns
// the same generic invalid_grant description.
type PasswordGrant struct {
	users   users.Repo
	clients clientspkg.Repo
	lockout *lockout.Policy
}

func NewPasswordGrant(userRepo users.Repo, clientRepo clientspkg.Repo, lockoutPolicy *lockout.Policy) (*PasswordGrant, error) {
	if userRepo == nil {
		return nil, errors.New("[NewPasswordGrant] user repo is required")
	}
	if clientRepo == nil {
		return nil, errors.New("[NewPasswordGrant] client repo is required")
	}
	if lockoutPolicy == nil {
		return nil, errors.New("[NewPasswordGrant] lockout policy is required")
	}
	return &PasswordGrant{users: userRepo, clients: clientRepo, lockout: lockoutPolicy}, nil
}

func (g *PasswordGrant) Handle(ctx context.Context, req *oauth2.TokenRequest) (*claims.Principal, []string, error) {
	if req.ClientID != "" {
		client, err := g.clients.Get(ctx, req.ClientID)
		if err != nil {
			if errors.Is(err, clientspkg.ErrNotFound) {
				return nil, nil, InvalidGrant(DescInvalidClient)
			}
			return nil, nil, errors.Wrap(err, "[PasswordGrant.Handle] Get client")
		}
		if scope, ok := disallowedScope(client, req.Scopes()); ok {
			log.Warn().Str("client_id", client.ID).Str("scope", scope).Msg("scope not permitted for client")
			return nil, nil, InvalidScope(DescScopeNotAllowed)
		}
	}

	user, err := g.Validate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, nil, err
	}
	return principalFromUser(user), req.Scopes(), nil
}

// disallowedScope returns the first requested scope the client's scope
// permission tags do not cover.
func disallowedScope(client *clientspkg.Client, scopes []string) (string, bool) {
	for _, s := range scopes {
		if !client.AllowsScope(s) {
			return s, true
		}
	}
	return "", false
}

// Validate runs the credential check with lockout-on-failure. Also used by
// the device-approval flow, which authenticates the approving user the same
// way.
func (g *PasswordGrant) Validate(ctx context.Context, username, password string) (*users.User, error) {
	user, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, InvalidGrant(DescInvalidCredentials)
		}
		return nil, errors.Wrap(err, "[PasswordGrant.Validate] GetByUsername")
	}

	locked, err := g.lockout.Locked(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[PasswordGrant.Validate] lockout check")
	}
	if locked {
		// A correct password during the cooldown window still fails, with
		// the same generic description as every other credential failure.
		return nil, InvalidGrant(DescInvalidCredentials)
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		nowLocked, err := g.lockout.RecordFailure(ctx, user.ID)
		if err != nil {
			return nil, errors.Wrap(err, "[PasswordGrant.Validate] record failure")
		}
		if nowLocked {
			log.Warn().Str("user_id", user.ID).Msg("account locked after repeated failed sign-in attempts")
		}
		return nil, InvalidGrant(DescInvalidCredentials)
	}

	if !user.CanSignIn() {
		return nil, InvalidGrant(DescInvalidCredentials)
	}

	if err := g.lockout.Reset(ctx, user.ID); err != nil {
		return nil, errors.Wrap(err, "[PasswordGrant.Validate] lockout reset")
	}
	if err := g.users.SetLastLogin(ctx, user.ID); err != nil {
		return nil, errors.Wrap(err, "[PasswordGrant.Validate] stamp last login")
	}

	return user, nil
}
