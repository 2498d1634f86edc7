package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nexusweb/go-identity-server/claims"
	clientspkg "github.com/nexusweb/go-identity-server/clients"
	"github.com/nexusweb/go-identity-server/oauth2"
	userspkg "github.com/nexusweb/go-identity-server/users"
)

const descAccountGone = "The specified access token is bound to an account that no longer exists."

// WellKnownOpenIDConfigHandler serves the OIDC discovery document
func (s *Server) WellKnownOpenIDConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer := s.config.GetIssuerURL()

		grantTypes := make([]string, 0, len(oauth2.SupportedGrantTypes))
		for _, gt := range oauth2.SupportedGrantTypes {
			grantTypes = append(grantTypes, string(gt))
		}

		resp := map[string]any{
			"issuer":                        issuer,
			"token_endpoint":                issuer + RouteToken,
			"userinfo_endpoint":             issuer + RouteUserInfo,
			"jwks_uri":                      issuer + RouteWellKnownJWKS,
			"device_authorization_endpoint": issuer + RouteDevice,
			"introspection_endpoint":        issuer + RouteIntrospect,
			"revocation_endpoint":           issuer + RouteRevoke,
			"end_session_endpoint":          issuer + RouteLogout,

			"grant_types_supported": grantTypes,

			"subject_types_supported":               []string{"public"},
			"id_token_signing_alg_values_supported": []string{"RS256"},

			"scopes_supported": []string{
				oauth2.ScopeOpenID,
				oauth2.ScopeProfile,
				oauth2.ScopeEmail,
				oauth2.ScopePhone,
				oauth2.ScopeRoles,
				oauth2.ScopeOfflineAccess,
			},

			"token_endpoint_auth_methods_supported": []string{
				"client_secret_post",
				"none",
			},

			"claims_supported": []string{
				claims.ClaimSubject,
				claims.ClaimName,
				claims.ClaimPreferredUsername,
				claims.ClaimEmail,
				claims.ClaimEmailVerified,
				claims.ClaimPhoneNumber,
				claims.ClaimPhoneNumberVerified,
				claims.ClaimRole,
			},
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// JWKsHandler returns the JSON Web Key Set used to validate tokens
func (s *Server) JWKsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.issuer.GetJWKS()
		if err != nil {
			writeJSONError(w, oauth2.ErrorServerError, "Failed to build the key set.", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = json.NewEncoder(w).Encode(jwks)
	}
}

// UserInfoHandler returns the caller's identity claims, filtered by the
// scopes granted to the presented access token.
func (s *Server) UserInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := bearerToken(r)
		if !ok {
			recordUserInfo("invalid_token")
			writeJSONError(w, oauth2.ErrorInvalidToken, "Missing or malformed Authorization header.", http.StatusUnauthorized)
			return
		}

		introspection, err := s.issuer.Introspect(accessToken)
		if err != nil || !introspection.Active {
			recordUserInfo("invalid_token")
			writeJSONError(w, oauth2.ErrorInvalidToken, "The access token is invalid or has expired.", http.StatusUnauthorized)
			return
		}

		var subject string
		if introspection.Sub != nil {
			subject = *introspection.Sub
		}

		user, err := s.users.GetByID(r.Context(), subject)
		if err != nil {
			if errors.Is(err, userspkg.ErrNotFound) {
				recordUserInfo("invalid_token")
				writeJSONError(w, oauth2.ErrorInvalidToken, descAccountGone, http.StatusUnauthorized)
				return
			}
			recordUserInfo("server_error")
			log.Error().Err(err).Msg("userinfo user lookup failed")
			writeJSONError(w, oauth2.ErrorServerError, "An internal error occurred.", http.StatusInternalServerError)
			return
		}

		recordUserInfo("success")
		writeJSON(w, http.StatusOK, userInfoClaims(user, introspection.Scopes()))
	}
}

// userInfoClaims assembles the userinfo response. The subject is always
// present; everything else is gated on the token's granted scopes.
func userInfoClaims(user *userspkg.User, scopes []string) map[string]any {
	info := map[string]any{
		claims.ClaimSubject: user.ID,
	}
	if oauth2.HasScope(scopes, oauth2.ScopeProfile) {
		info[claims.ClaimName] = user.Username
		info[claims.ClaimPreferredUsername] = user.Username
	}
	if oauth2.HasScope(scopes, oauth2.ScopeEmail) {
		info[claims.ClaimEmail] = user.Email
		info[claims.ClaimEmailVerified] = user.EmailVerified
	}
	if oauth2.HasScope(scopes, oauth2.ScopePhone) {
		info[claims.ClaimPhoneNumber] = user.PhoneNumber
		info[claims.ClaimPhoneNumberVerified] = user.PhoneNumberVerified
	}
	if oauth2.HasScope(scopes, oauth2.ScopeRoles) && len(user.Roles) > 0 {
		info[claims.ClaimRole] = user.Roles
	}
	return info
}

// LogoutHandler ends a session: it revokes the presented refresh token,
// drops every refresh token the bearer's subject still holds, and redirects
// to the post-logout URI when the client has registered it.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = r.ParseForm()
		}
		refreshToken := formOrQuery(r, "refresh_token")
		clientID := formOrQuery(r, "client_id")
		redirectURI := formOrQuery(r, "post_logout_redirect_uri")

		if refreshToken != "" && s.refresh != nil {
			if err := s.refresh.Revoke(r.Context(), refreshToken); err != nil {
				log.Error().Err(err).Msg("logout refresh token revocation failed")
			}
		}
		if accessToken, ok := bearerToken(r); ok {
			if s.refresh != nil {
				if intro, err := s.issuer.Introspect(accessToken); err == nil && intro.Active && intro.Sub != nil {
					if err := s.refresh.RevokeAllForSubject(r.Context(), *intro.Sub); err != nil {
						log.Error().Err(err).Msg("logout subject refresh token revocation failed")
					}
				}
			}
			_ = s.issuer.RevokeAccessToken(accessToken)
		}

		http.Redirect(w, r, s.postLogoutRedirect(r, clientID, redirectURI), http.StatusFound)
	}
}

// postLogoutRedirect validates the requested post-logout URI against the
// client's registered allow list. Anything unregistered falls back to the
// server root.
func (s *Server) postLogoutRedirect(r *http.Request, clientID, redirectURI string) string {
	if clientID == "" || redirectURI == "" {
		return "/"
	}
	client, err := s.clients.Get(r.Context(), clientID)
	if err != nil {
		if !errors.Is(err, clientspkg.ErrNotFound) {
			log.Error().Err(err).Str("client_id", clientID).Msg("logout client lookup failed")
		}
		return "/"
	}
	if !client.AllowsPostLogoutRedirect(redirectURI) {
		return "/"
	}
	return redirectURI
}

// IntrospectHandler reports the metadata of an access token. Bad tokens
// come back active=false, not as errors.
func (s *Server) IntrospectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "Failed to parse form data.", http.StatusBadRequest)
			return
		}

		rawToken := r.FormValue("token")
		if rawToken == "" {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "The token parameter is required.", http.StatusBadRequest)
			return
		}

		introspection, err := s.issuer.Introspect(rawToken)
		if err != nil {
			log.Error().Err(err).Msg("token introspection failed")
			writeJSONError(w, oauth2.ErrorServerError, "An internal error occurred.", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, introspection)
	}
}

// RevokeHandler revokes a token. Per RFC 7009 an unknown or already
// revoked token still yields 200: revocation is idempotent.
func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "Failed to parse form data.", http.StatusBadRequest)
			return
		}

		rawToken := r.FormValue("token")
		if rawToken == "" {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "The token parameter is required.", http.StatusBadRequest)
			return
		}

		hint := r.FormValue("token_type_hint")
		if hint != "access_token" && s.refresh != nil {
			_ = s.refresh.Revoke(r.Context(), rawToken)
		}
		if hint != "refresh_token" {
			_ = s.issuer.RevokeAccessToken(rawToken)
		}

		w.WriteHeader(http.StatusOK)
	}
}

// bearerToken extracts the access token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func formOrQuery(r *http.Request, key string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return r.URL.Query().Get(key)
}
