package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nexusweb/go-identity-server/auth"
	"github.com/nexusweb/go-identity-server/auth/lockout"
	"github.com/nexusweb/go-identity-server/claims"
	"github.com/nexusweb/go-identity-server/clients"
	clientsinmemory "github.com/nexusweb/go-identity-server/clients/inmemory"
	"github.com/nexusweb/go-identity-server/oauth2"
	"github.com/nexusweb/go-identity-server/users"
	usersinmemory "github.com/nexusweb/go-identity-server/users/inmemory"
)

const (
	testUsername = "administrator"
	testPassword = "demo"
)

type passwordFixture struct {
	userRepo   *usersinmemory.Repo
	clientRepo *clientsinmemory.Repo
	grant      *auth.PasswordGrant
	user       *users.User
}

func setupPasswordFixture(t *testing.T, maxAttempts int) *passwordFixture {
	t.Helper()

	userRepo := usersinmemory.New()
	clientRepo := clientsinmemory.New()
	policy, err := lockout.NewPolicy(lockout.NewMemoryStore(), maxAttempts, 5*time.Minute)
	require.NoError(t, err)

	grant, err := auth.NewPasswordGrant(userRepo, clientRepo, policy)
	require.NoError(t, err)

	hash, err := users.HashPassword(testPassword)
	require.NoError(t, err)
	user := &users.User{
		Username:      testUsername,
		Email:         "administrator@example.com",
		EmailVerified: true,
		PasswordHash:  hash,
		Roles:         []string{"admin"},
	}
	require.NoError(t, userRepo.Upsert(context.Background(), user))

	return &passwordFixture{userRepo: userRepo, clientRepo: clientRepo, grant: grant, user: user}
}

func TestPasswordGrantSuccess(t *testing.T) {
	f := setupPasswordFixture(t, 5)

	principal, scopes, err := f.grant.Handle(context.Background(), &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  testPassword,
		Scope:     "openid profile roles",
	})
	require.NoError(t, err)
	require.Equal(t, f.user.ID, principal.Subject)
	require.Equal(t, []string{"openid", "profile", "roles"}, scopes)

	roleClaim := principal.Claim(claims.ClaimRole)
	require.NotNil(t, roleClaim)
	require.Equal(t, []string{"admin"}, roleClaim.Value)

	// A successful sign-in stamps the last-login time.
	stored, err := f.userRepo.GetByID(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.False(t, stored.LastLogin.IsZero())
}

func TestPasswordGrantUsernameIsCaseInsensitive(t *testing.T) {
	f := setupPasswordFixture(t, 5)

	principal, _, err := f.grant.Handle(context.Background(), &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  "ADMINISTRATOR",
		Password:  testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, f.user.ID, principal.Subject)
}

// Unknown usernames and wrong passwords must be indistinguishable from the
// outside: same error code, same description.
func TestPasswordGrantFailuresAreIndistinguishable(t *testing.T) {
	f := setupPasswordFixture(t, 5)
	ctx := context.Background()

	_, _, unknownUserErr := f.grant.Handle(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  "nobody",
		Password:  testPassword,
	})
	_, _, wrongPasswordErr := f.grant.Handle(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  "not-the-password",
	})

	require.Error(t, unknownUserErr)
	require.Error(t, wrongPasswordErr)
	require.Equal(t, unknownUserErr.Error(), wrongPasswordErr.Error())

	oauthErr, ok := wrongPasswordErr.(*auth.Error)
	require.True(t, ok)
	require.Equal(t, oauth2.ErrorInvalidGrant, oauthErr.Code)
	require.Equal(t, auth.DescInvalidCredentials, oauthErr.Description)
}

func TestPasswordGrantDisabledUserGetsGenericError(t *testing.T) {
	f := setupPasswordFixture(t, 5)
	ctx := context.Background()
	require.NoError(t, f.userRepo.SetDisabled(ctx, f.user.ID, true))

	_, _, err := f.grant.Handle(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  testPassword,
	})
	oauthErr, ok := err.(*auth.Error)
	require.True(t, ok)
	require.Equal(t, auth.DescInvalidCredentials, oauthErr.Description)
}

func TestPasswordGrantLockout(t *testing.T) {
	f := setupPasswordFixture(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := f.grant.Handle(ctx, &oauth2.TokenRequest{
			GrantType: oauth2.PasswordGrant,
			Username:  testUsername,
			Password:  "wrong",
		})
		require.Error(t, err)
	}

	// The account is locked: even the correct password fails now, with the
	// same generic description.
	_, _, err := f.grant.Handle(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  testPassword,
	})
	oauthErr, ok := err.(*auth.Error)
	require.True(t, ok)
	require.Equal(t, auth.DescInvalidCredentials, oauthErr.Description)
}

func TestPasswordGrantSuccessResetsFailureCount(t *testing.T) {
	f := setupPasswordFixture(t, 3)
	ctx := context.Background()

	// Two failures, then a success, then two more failures: the account
	// must not lock, because the success cleared the counter.
	for i := 0; i < 2; i++ {
		_, _, err := f.grant.Handle(ctx, &oauth2.TokenRequest{
			GrantType: oauth2.PasswordGrant,
			Username:  testUsername,
			Password:  "wrong",
		})
		require.Error(t, err)
	}
	_, _, err := f.grant.Handle(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  testPassword,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err := f.grant.Handle(ctx, &oauth2.TokenRequest{
			GrantType: oauth2.PasswordGrant,
			Username:  testUsername,
			Password:  "wrong",
		})
		require.Error(t, err)
	}
	_, _, err = f.grant.Handle(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  testPassword,
	})
	require.NoError(t, err)
}

func TestPasswordGrantScopeTagsEnforced(t *testing.T) {
	f := setupPasswordFixture(t, 5)
	ctx := context.Background()

	require.NoError(t, f.clientRepo.Upsert(ctx, &clients.Client{
		ID:          "scoped-client",
		DisplayName: "Scoped Client",
		Type:        clients.ClientTypePublic,
		Permissions: []string{"scp:openid", "scp:profile"},
	}))

	_, _, err := f.grant.Handle(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  testPassword,
		ClientID:  "scoped-client",
		Scope:     "openid totally-unregistered-scope admin-everything",
	})
	oauthErr := &auth.Error{}
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, oauth2.ErrorInvalidScope, oauthErr.Code)
	require.Equal(t, auth.DescScopeNotAllowed, oauthErr.Description)

	_, scopes, err := f.grant.Handle(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  testPassword,
		ClientID:  "scoped-client",
		Scope:     "openid profile",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"openid", "profile"}, scopes)
}

func TestPasswordGrantUntaggedClientScopesUnrestricted(t *testing.T) {
	f := setupPasswordFixture(t, 5)
	ctx := context.Background()

	// Only grant-type tags registered: the scope category stays open.
	require.NoError(t, f.clientRepo.Upsert(ctx, &clients.Client{
		ID:          "untagged-client",
		DisplayName: "Untagged Client",
		Type:        clients.ClientTypePublic,
		Permissions: []string{"gt:password"},
	}))

	_, scopes, err := f.grant.Handle(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  testPassword,
		ClientID:  "untagged-client",
		Scope:     "openid home-api",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"openid", "home-api"}, scopes)
}

func TestPasswordGrantUnknownClient(t *testing.T) {
	f := setupPasswordFixture(t, 5)

	_, _, err := f.grant.Handle(context.Background(), &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		Username:  testUsername,
		Password:  testPassword,
		ClientID:  "never-registered",
		Scope:     "openid",
	})
	requireInvalidGrant(t, err, auth.DescInvalidClient)
}

type failingLastLoginRepo struct {
	*usersinmemory.Repo
}

func (r *failingLastLoginRepo) SetLastLogin(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestPasswordGrantLastLoginWriteFailureSurfaces(t *testing.T) {
	userRepo := usersinmemory.New()
	policy, err := lockout.NewPolicy(lockout.NewMemoryStore(), 5, 5*time.Minute)
	require.NoError(t, err)
	grant, err := auth.NewPasswordGrant(&failingLastLoginRepo{Repo: userRepo}, clientsinmemory.New(), policy)
	require.NoError(t, err)

	hash, err := users.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, userRepo.Upsert(context.Background(), &users.User{
		Username:     testUsername,
		PasswordHash: hash,
	}))

	_, err = grant.Validate(context.Background(), testUsername, testPassword)
	require.Error(t, err)
	require.Contains(t, err.Error(), "stamp last login")
}
