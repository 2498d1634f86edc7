package token

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nexusweb/go-identity-server/claims"
	"github.com/nexusweb/go-identity-server/internal/utils"
	"github.com/nexusweb/go-identity-server/oauth2"
	"github.com/nexusweb/go-identity-server/token/refresh"
)

// Introspection represents the metadata of an issued token. If Active is
// false no other field is meaningful.
type Introspection struct {
	Active   bool     `json:"active"`
	Sub      *string  `json:"sub,omitempty"`
	Aud      any      `json:"aud,omitempty"`
	Exp      *int64   `json:"exp,omitempty"`
	Iat      *int64   `json:"iat,omitempty"`
	Iss      *string  `json:"iss,omitempty"`
	Jti      *string  `json:"jti,omitempty"`
	Scope    string   `json:"scope,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Scopes returns the token's granted scopes as a slice.
func (i *Introspection) Scopes() []string {
	return oauth2.SplitScopes(i.Scope)
}

// Issuer mints access, identity and refresh tokens from an assembled
// principal, honoring each claim's destinations. It is the last stage of
// the exchange pipeline; the principal is discarded once tokens are signed.
type Issuer struct {
	signer            Signer
	issuer            string
	audience          string // fallback audience when no resources resolved
	accessTokenExpiry time.Duration
	idTokenExpiry     time.Duration
	refreshManager    *refresh.Manager
	revokedCache      *RevokedTokenCache
	nowFunc           func() time.Time
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(accessTokenExpiry, idTokenExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.idTokenExpiry = idTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.nowFunc = now }
}

func WithAudience(audience string) IssuerOption {
	return func(i *Issuer) { i.audience = audience }
}

func WithRefreshManager(m *refresh.Manager) IssuerOption {
	return func(i *Issuer) { i.refreshManager = m }
}

func WithRevokedTokenCache(cache *RevokedTokenCache) IssuerOption {
	return func(i *Issuer) { i.revokedCache = cache }
}

func NewIssuer(signer Signer, issuerURL string, options ...IssuerOption) (*Issuer, error) {
	if signer == nil {
		return nil, errors.New("[NewIssuer] signer is required")
	}
	if issuerURL == "" {
		return nil, errors.New("[NewIssuer] issuer URL is required")
	}

	i := &Issuer{
		signer:       signer,
		issuer:       issuerURL,
		revokedCache: NewRevokedTokenCache(time.Minute),
		nowFunc:      time.Now,
	}
	for _, opt := range options {
		opt(i)
	}

	if i.accessTokenExpiry == 0 {
		i.accessTokenExpiry = time.Hour
	}
	if i.idTokenExpiry == 0 {
		i.idTokenExpiry = time.Hour
	}
	return i, nil
}

// IssueTokens signs the token set for an assembled principal:
//
//   - an access token carrying every access-destined claim
//   - an identity token, only when "openid" was granted, carrying the
//     identity-destined claims
//   - a rotated refresh token, only when "offline_access" was granted
func (i *Issuer) IssueTokens(ctx context.Context, p *claims.Principal, clientID string) (*oauth2.TokenResponse, error) {
	accessToken, err := i.signAccessToken(p, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.IssueTokens] access token")
	}

	resp := &oauth2.TokenResponse{
		AccessToken: utils.Ptr(accessToken),
		TokenType:   "Bearer",
		ExpiresIn:   int(i.accessTokenExpiry.Seconds()),
		Scope:       oauth2.JoinScopes(p.Scopes),
	}

	if p.HasScope(oauth2.ScopeOpenID) {
		idToken, err := i.signIDToken(p, clientID)
		if err != nil {
			return nil, errors.Wrap(err, "[Issuer.IssueTokens] id token")
		}
		resp.IDToken = utils.Ptr(idToken)
	}

	if p.HasScope(oauth2.ScopeOfflineAccess) && i.refreshManager != nil {
		refreshToken, err := i.refreshManager.Issue(ctx, p.Subject, clientID, p.Scopes)
		if err != nil {
			return nil, errors.Wrap(err, "[Issuer.IssueTokens] refresh token")
		}
		resp.RefreshToken = utils.Ptr(refreshToken)
	}

	return resp, nil
}

func (i *Issuer) signAccessToken(p *claims.Principal, clientID string) (string, error) {
	now := i.nowFunc()

	mapClaims := jwt.MapClaims{
		"iss":   i.issuer,
		"sub":   p.Subject,
		"aud":   i.accessTokenAudience(p),
		"azp":   clientID,
		"scope": oauth2.JoinScopes(p.Scopes),
		"iat":   now.Unix(),
		"exp":   now.Add(i.accessTokenExpiry).Unix(),
		"jti":   uuid.New().String(),
	}
	for name, value := range p.TokenClaims(claims.DestinationAccessToken) {
		if name == claims.ClaimSubject {
			continue // registered claim, already set
		}
		mapClaims[name] = value
	}

	return i.signer.Sign(mapClaims)
}

func (i *Issuer) signIDToken(p *claims.Principal, clientID string) (string, error) {
	now := i.nowFunc()

	mapClaims := jwt.MapClaims{
		"iss": i.issuer,
		"sub": p.Subject,
		"aud": clientID,
		"iat": now.Unix(),
		"exp": now.Add(i.idTokenExpiry).Unix(),
		"jti": uuid.New().String(),
	}
	for name, value := range p.TokenClaims(claims.DestinationIdentityToken) {
		if name == claims.ClaimSubject {
			continue
		}
		mapClaims[name] = value
	}

	return i.signer.Sign(mapClaims)
}

// accessTokenAudience returns the resolved resources, or the configured
// fallback audience when the granted scopes map to none.
func (i *Issuer) accessTokenAudience(p *claims.Principal) any {
	switch len(p.Resources) {
	case 0:
		return i.audience
	case 1:
		return p.Resources[0]
	default:
		return p.Resources
	}
}

// Introspect verifies a raw access token and returns its metadata.
// Expired, unverifiable and revoked tokens come back inactive rather than
// as errors: introspection answers "is this token good", it does not fail
// on bad input.
func (i *Issuer) Introspect(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return &Introspection{Active: false}, nil
	}

	parsed, err := jwt.Parse(rawToken, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc))
	if err != nil || !parsed.Valid {
		return &Introspection{Active: false}, nil
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return &Introspection{Active: false}, errors.New("error extracting claims from token")
	}

	iss, _ := mapClaims["iss"].(string)
	sub, _ := mapClaims["sub"].(string)
	jti, _ := mapClaims["jti"].(string)
	azp, _ := mapClaims["azp"].(string)
	scope, _ := mapClaims["scope"].(string)
	iat, _ := mapClaims["iat"].(float64)
	exp, _ := mapClaims["exp"].(float64)

	active := i.nowFunc().Unix() <= int64(exp)
	if jti != "" && i.revokedCache.IsRevoked(jti) {
		active = false
	}

	var roles []string
	if rawRoles, ok := mapClaims[claims.ClaimRole].([]any); ok {
		for _, v := range rawRoles {
			if s, ok := v.(string); ok {
				roles = append(roles, s)
			}
		}
	}

	return &Introspection{
		Active:   active,
		Sub:      utils.Ptr(sub),
		Aud:      mapClaims["aud"],
		Exp:      utils.Ptr(int64(exp)),
		Iat:      utils.Ptr(int64(iat)),
		Iss:      utils.Ptr(iss),
		Jti:      utils.Ptr(jti),
		Scope:    scope,
		ClientID: azp,
		Roles:    roles,
	}, nil
}

// RevokeAccessToken revokes a verified access token by its jti for the
// remainder of its lifetime.
func (i *Issuer) RevokeAccessToken(rawToken string) error {
	parsed, err := jwt.Parse(rawToken, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc))
	if err != nil || !parsed.Valid {
		return errors.Wrap(err, "invalid token")
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("error extracting claims from token")
	}

	jti, ok := mapClaims["jti"].(string)
	if !ok || jti == "" {
		return errors.New("token missing jti claim")
	}
	exp, ok := mapClaims["exp"].(float64)
	if !ok {
		return errors.New("token missing exp claim")
	}

	i.revokedCache.Add(jti, time.Unix(int64(exp), 0))
	return nil
}

// GetJWKS returns the JSON Web Key Set for public key distribution. Only
// asymmetric signers support this.
func (i *Issuer) GetJWKS() (*JWKS, error) {
	keyPairSigner, ok := i.signer.(*KeyPairSigner)
	if !ok {
		return nil, errors.New("JWKS only supported for asymmetric signing")
	}
	return keyPairSigner.GetJWKS()
}

// AccessTokenExpiry exposes the configured access-token lifetime.
func (i *Issuer) AccessTokenExpiry() time.Duration {
	return i.accessTokenExpiry
}
