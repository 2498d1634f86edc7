package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nexusweb/go-identity-server/claims"
	"github.com/nexusweb/go-identity-server/oauth2"
	"github.com/nexusweb/go-identity-server/token"
)

// TokenService drives a token request through the exchange pipeline:
//
//	route -> validate (grant handler) -> assemble claims -> issue tokens
//
// Every failure is terminal per request; retry policy belongs to the
// caller. The service owns no mutable state and handles requests
// independently and concurrently.
type TokenService struct {
	router    *Router
	assembler *claims.Assembler
	issuer    *token.Issuer
}

func NewTokenService(router *Router, assembler *claims.Assembler, issuer *token.Issuer) (*TokenService, error) {
	if router == nil {
		return nil, errors.New("[NewTokenService] router is required")
	}
	if assembler == nil {
		return nil, errors.New("[NewTokenService] assembler is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewTokenService] issuer is required")
	}
	return &TokenService{router: router, assembler: assembler, issuer: issuer}, nil
}

// Exchange handles one token-endpoint call end to end.
func (s *TokenService) Exchange(ctx context.Context, req *oauth2.TokenRequest) (*oauth2.TokenResponse, error) {
	handler, err := s.router.Route(req)
	if err != nil {
		return nil, err
	}

	principal, scopes, err := handler.Handle(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.assembler.Assemble(ctx, principal, scopes); err != nil {
		return nil, errors.Wrap(err, "[TokenService.Exchange] Assemble")
	}

	resp, err := s.issuer.IssueTokens(ctx, principal, req.ClientID)
	if err != nil {
		return nil, errors.Wrap(err, "[TokenService.Exchange] IssueTokens")
	}
	return resp, nil
}
