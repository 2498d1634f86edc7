package claims_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexusweb/go-identity-server/claims"
	"github.com/nexusweb/go-identity-server/scopes"
	scopesinmemory "github.com/nexusweb/go-identity-server/scopes/inmemory"
)

func setupAssembler(t *testing.T) (*claims.Assembler, *scopesinmemory.Repo) {
	t.Helper()
	scopeRepo := scopesinmemory.New()
	assembler, err := claims.NewAssembler(scopeRepo)
	require.NoError(t, err)
	return assembler, scopeRepo
}

func fullPrincipal() *claims.Principal {
	p := claims.NewPrincipal("user-1")
	p.SetClaim(claims.ClaimSubject, "user-1").
		SetClaim(claims.ClaimName, "administrator").
		SetClaim(claims.ClaimPreferredUsername, "administrator").
		SetClaim(claims.ClaimEmail, "administrator@example.com").
		SetClaim(claims.ClaimEmailVerified, true).
		SetClaim(claims.ClaimRole, []string{"admin"})
	return p
}

func TestAssembleGrantsRequestedScopesVerbatim(t *testing.T) {
	assembler, _ := setupAssembler(t)
	p := fullPrincipal()

	requested := []string{"openid", "profile", "unregistered-scope"}
	require.NoError(t, assembler.Assemble(context.Background(), p, requested))
	require.Equal(t, requested, p.Scopes)
}

func TestAssembleResolvesResources(t *testing.T) {
	assembler, scopeRepo := setupAssembler(t)
	ctx := context.Background()

	require.NoError(t, scopeRepo.Upsert(ctx, &scopes.Scope{
		Name:      "home-api",
		Resources: []string{"Home.API"},
	}))
	require.NoError(t, scopeRepo.Upsert(ctx, &scopes.Scope{
		Name:      "billing-api",
		Resources: []string{"Billing.API", "Home.API"},
	}))

	p := fullPrincipal()
	require.NoError(t, assembler.Assemble(ctx, p, []string{"openid", "home-api", "billing-api"}))

	// Union without duplicates; "openid" maps to no resource and
	// contributes nothing.
	require.ElementsMatch(t, []string{"Home.API", "Billing.API"}, p.Resources)
}

func TestSetDestinationsSubjectAlwaysInBothTokens(t *testing.T) {
	p := fullPrincipal()
	p.Scopes = nil // no scopes at all
	claims.SetDestinations(p)

	sub := p.Claim(claims.ClaimSubject)
	require.True(t, sub.Destinations.Has(claims.DestinationAccessToken))
	require.True(t, sub.Destinations.Has(claims.DestinationIdentityToken))
}

func TestSetDestinationsScopeGating(t *testing.T) {
	tests := []struct {
		name       string
		scopes     []string
		claim      string
		inIdentity bool
	}{
		{"name with profile", []string{"openid", "profile"}, claims.ClaimName, true},
		{"name without profile", []string{"openid"}, claims.ClaimName, false},
		{"preferred_username with profile", []string{"openid", "profile"}, claims.ClaimPreferredUsername, true},
		{"email with email scope", []string{"openid", "email"}, claims.ClaimEmail, true},
		{"email without email scope", []string{"openid", "profile"}, claims.ClaimEmail, false},
		{"email_verified with email scope", []string{"openid", "email"}, claims.ClaimEmailVerified, true},
		{"role with roles scope", []string{"openid", "roles"}, claims.ClaimRole, true},
		{"role without roles scope", []string{"openid", "email"}, claims.ClaimRole, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := fullPrincipal()
			p.Scopes = tc.scopes
			claims.SetDestinations(p)

			c := p.Claim(tc.claim)
			require.NotNil(t, c)
			// Every claim reaches the access token.
			require.True(t, c.Destinations.Has(claims.DestinationAccessToken))
			require.Equal(t, tc.inIdentity, c.Destinations.Has(claims.DestinationIdentityToken))
		})
	}
}

func TestSetClaimDropsEmptyValues(t *testing.T) {
	p := claims.NewPrincipal("user-1")
	p.SetClaim(claims.ClaimEmail, "").
		SetClaim(claims.ClaimPhoneNumber, nil).
		SetClaim(claims.ClaimName, "administrator")

	require.Nil(t, p.Claim(claims.ClaimEmail))
	require.Nil(t, p.Claim(claims.ClaimPhoneNumber))
	require.NotNil(t, p.Claim(claims.ClaimName))
}

func TestTokenClaimsFiltersByDestination(t *testing.T) {
	p := fullPrincipal()
	p.Scopes = []string{"openid", "profile"}
	claims.SetDestinations(p)

	identityClaims := p.TokenClaims(claims.DestinationIdentityToken)
	require.Contains(t, identityClaims, claims.ClaimSubject)
	require.Contains(t, identityClaims, claims.ClaimName)
	require.NotContains(t, identityClaims, claims.ClaimEmail)
	require.NotContains(t, identityClaims, claims.ClaimRole)

	accessClaims := p.TokenClaims(claims.DestinationAccessToken)
	require.Contains(t, accessClaims, claims.ClaimEmail)
	require.Contains(t, accessClaims, claims.ClaimRole)
}
