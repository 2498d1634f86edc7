package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nexusweb/go-identity-server/auth"
	"github.com/nexusweb/go-identity-server/auth/lockout"
	"github.com/nexusweb/go-identity-server/authz"
	authzinmemory "github.com/nexusweb/go-identity-server/authz/inmemory"
	"github.com/nexusweb/go-identity-server/claims"
	"github.com/nexusweb/go-identity-server/clients"
	clientsinmemory "github.com/nexusweb/go-identity-server/clients/inmemory"
	"github.com/nexusweb/go-identity-server/oauth2"
	"github.com/nexusweb/go-identity-server/scopes"
	scopesinmemory "github.com/nexusweb/go-identity-server/scopes/inmemory"
	"github.com/nexusweb/go-identity-server/token"
	"github.com/nexusweb/go-identity-server/token/refresh"
	"github.com/nexusweb/go-identity-server/users"
	usersinmemory "github.com/nexusweb/go-identity-server/users/inmemory"
)

const testIssuerURL = "http://localhost:8080"

type serviceFixture struct {
	userRepo   *usersinmemory.Repo
	clientRepo *clientsinmemory.Repo
	scopeRepo  *scopesinmemory.Repo
	authStore  *authzinmemory.Store
	codes      *authz.CodeStore
	refresh    *refresh.Manager
	issuer     *token.Issuer
	service    *auth.TokenService
	device     *auth.DeviceService
	user       *users.User
}

func setupServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := usersinmemory.New()
	clientRepo := clientsinmemory.New()
	scopeRepo := scopesinmemory.New()
	authStore := authzinmemory.New()
	codes := authz.NewCodeStore(15*time.Minute, 10*time.Minute)

	refreshManager, err := refresh.NewManager(refresh.NewInMemoryRepo(), 7*24*time.Hour)
	require.NoError(t, err)

	keyPair, err := token.GenerateRSAKeyPair("test-key", 2048)
	require.NoError(t, err)
	issuer, err := token.NewIssuer(token.NewKeyPairSigner(keyPair), testIssuerURL,
		token.WithAudience(testIssuerURL),
		token.WithRefreshManager(refreshManager),
	)
	require.NoError(t, err)

	policy, err := lockout.NewPolicy(lockout.NewMemoryStore(), 5, 5*time.Minute)
	require.NoError(t, err)
	passwordGrant, err := auth.NewPasswordGrant(userRepo, clientRepo, policy)
	require.NoError(t, err)
	reauthGrant, err := auth.NewReauthenticationGrant(userRepo, authStore, codes, refreshManager)
	require.NoError(t, err)
	clientCredentialsGrant, err := auth.NewClientCredentialsGrant(clientRepo)
	require.NoError(t, err)

	assembler, err := claims.NewAssembler(scopeRepo)
	require.NoError(t, err)

	service, err := auth.NewTokenService(
		auth.NewRouter(passwordGrant, reauthGrant, clientCredentialsGrant),
		assembler, issuer)
	require.NoError(t, err)

	device, err := auth.NewDeviceService(clientRepo, authStore, codes, passwordGrant)
	require.NoError(t, err)

	hash, err := users.HashPassword(testPassword)
	require.NoError(t, err)
	user := &users.User{
		Username:     testUsername,
		Email:        "administrator@example.com",
		PasswordHash: hash,
		Roles:        []string{"admin"},
	}
	require.NoError(t, userRepo.Upsert(ctx, user))

	require.NoError(t, clientRepo.Upsert(ctx, &clients.Client{
		ID:          testClientID,
		DisplayName: "Home API Client",
		Type:        clients.ClientTypeConfidential,
		Secret:      testClientSecret,
	}))
	require.NoError(t, scopeRepo.Upsert(ctx, &scopes.Scope{
		Name:      "home-api",
		Resources: []string{"Home.API"},
	}))

	return &serviceFixture{
		userRepo:   userRepo,
		clientRepo: clientRepo,
		scopeRepo:  scopeRepo,
		authStore:  authStore,
		codes:      codes,
		refresh:    refreshManager,
		issuer:     issuer,
		service:    service,
		device:     device,
		user:       user,
	}
}

func TestExchangePasswordGrantFullTokenSet(t *testing.T) {
	f := setupServiceFixture(t)

	resp, err := f.service.Exchange(context.Background(), &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		ClientID:  testClientID,
		Username:  testUsername,
		Password:  testPassword,
		Scope:     "openid profile roles offline_access home-api",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.AccessToken)
	require.NotNil(t, resp.IDToken)
	require.NotNil(t, resp.RefreshToken)
	require.Equal(t, "Bearer", resp.TokenType)

	// Granted scopes match the requested scopes verbatim.
	require.Equal(t, "openid profile roles offline_access home-api", resp.Scope)

	introspection, err := f.issuer.Introspect(*resp.AccessToken)
	require.NoError(t, err)
	require.True(t, introspection.Active)
	require.Equal(t, f.user.ID, *introspection.Sub)
	require.Equal(t, testClientID, introspection.ClientID)
	require.Equal(t, []string{"admin"}, introspection.Roles)

	// The home-api scope resolves to its registered resource, which becomes
	// the access token audience.
	require.Equal(t, "Home.API", introspection.Aud)
}

func TestExchangeWithoutOpenIDScopeOmitsIDToken(t *testing.T) {
	f := setupServiceFixture(t)

	resp, err := f.service.Exchange(context.Background(), &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		ClientID:  testClientID,
		Username:  testUsername,
		Password:  testPassword,
		Scope:     "home-api",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.AccessToken)
	require.Nil(t, resp.IDToken)
	require.Nil(t, resp.RefreshToken)
}

func TestExchangeUnsupportedGrantType(t *testing.T) {
	f := setupServiceFixture(t)

	_, err := f.service.Exchange(context.Background(), &oauth2.TokenRequest{
		GrantType: "implicit",
		ClientID:  testClientID,
	})
	require.ErrorIs(t, err, auth.ErrUnsupportedGrantType)
}

func TestExchangeRefreshTokenRotates(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()

	first, err := f.service.Exchange(ctx, &oauth2.TokenRequest{
		GrantType: oauth2.PasswordGrant,
		ClientID:  testClientID,
		Username:  testUsername,
		Password:  testPassword,
		Scope:     "openid offline_access",
	})
	require.NoError(t, err)
	require.NotNil(t, first.RefreshToken)

	second, err := f.service.Exchange(ctx, &oauth2.TokenRequest{
		GrantType:    oauth2.RefreshTokenGrant,
		ClientID:     testClientID,
		RefreshToken: *first.RefreshToken,
	})
	require.NoError(t, err)
	require.NotNil(t, second.RefreshToken)
	require.NotEqual(t, *first.RefreshToken, *second.RefreshToken)
	require.Equal(t, "openid offline_access", second.Scope)

	// The redeemed token is gone.
	_, err = f.service.Exchange(ctx, &oauth2.TokenRequest{
		GrantType:    oauth2.RefreshTokenGrant,
		ClientID:     testClientID,
		RefreshToken: *first.RefreshToken,
	})
	requireInvalidGrant(t, err, auth.DescTokenNoLongerValid)
}

func TestDeviceFlowEndToEnd(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()

	deviceCode, userCode, err := f.device.Begin(ctx, testClientID, []string{"openid", "roles"})
	require.NoError(t, err)
	require.NotEmpty(t, deviceCode)
	require.NotEmpty(t, userCode)

	// The device polls before approval.
	_, err = f.service.Exchange(ctx, &oauth2.TokenRequest{
		GrantType:  oauth2.DeviceCodeGrant,
		ClientID:   testClientID,
		DeviceCode: deviceCode,
	})
	requireInvalidGrant(t, err, auth.DescDevicePending)

	// The user approves with their credentials. A hyphen separator in the
	// typed code is tolerated.
	hyphenated := userCode[:4] + "-" + userCode[4:]
	require.NoError(t, f.device.Approve(ctx, hyphenated, testUsername, testPassword))

	resp, err := f.service.Exchange(ctx, &oauth2.TokenRequest{
		GrantType:  oauth2.DeviceCodeGrant,
		ClientID:   testClientID,
		DeviceCode: deviceCode,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.AccessToken)
	require.Equal(t, "openid roles", resp.Scope)
}

func TestDeviceBeginUnknownClient(t *testing.T) {
	f := setupServiceFixture(t)

	_, _, err := f.device.Begin(context.Background(), "never-registered", []string{"openid"})
	var configErr *auth.ConfigurationError
	require.ErrorAs(t, err, &configErr)
}

func TestDeviceApproveWrongPassword(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()

	_, userCode, err := f.device.Begin(ctx, testClientID, []string{"openid"})
	require.NoError(t, err)

	err = f.device.Approve(ctx, userCode, testUsername, "wrong")
	requireInvalidGrant(t, err, auth.DescInvalidCredentials)
}

func TestDeviceBeginScopeTagsEnforced(t *testing.T) {
	f := setupServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.clientRepo.Upsert(ctx, &clients.Client{
		ID:          "tv-app",
		DisplayName: "TV App",
		Type:        clients.ClientTypePublic,
		Permissions: []string{"gt:device_code", "scp:openid"},
	}))

	_, _, err := f.device.Begin(ctx, "tv-app", []string{"openid", "home-api"})
	oauthErr := &auth.Error{}
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, oauth2.ErrorInvalidScope, oauthErr.Code)
	require.Equal(t, auth.DescScopeNotAllowed, oauthErr.Description)

	_, _, err = f.device.Begin(ctx, "tv-app", []string{"openid"})
	require.NoError(t, err)
}
