package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nexusweb/go-identity-server/auth"
	"github.com/nexusweb/go-identity-server/oauth2"
)

// TokenHandler exchanges credentials, codes or refresh tokens for tokens.
// Requests arrive form-urlencoded or as JSON; both decode into the same
// request shape.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenReq, err := parseTokenRequest(r)
		if err != nil {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "Failed to parse the token request.", http.StatusBadRequest)
			return
		}

		tokenResponse, err := s.tokens.Exchange(r.Context(), tokenReq)
		if err != nil {
			s.writeTokenError(w, tokenReq, err)
			return
		}

		recordTokenExchange(string(tokenReq.GrantType), "success")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		_ = json.NewEncoder(w).Encode(tokenResponse)
	}
}

// writeTokenError maps pipeline failures onto the wire. OAuth errors pass
// through with their safe descriptions; a ConfigurationError is a
// deployment defect and surfaces as an opaque 5xx after alarming in the
// logs, never as invalid_grant.
func (s *Server) writeTokenError(w http.ResponseWriter, req *oauth2.TokenRequest, err error) {
	var oauthErr *auth.Error
	var configErr *auth.ConfigurationError

	switch {
	case errors.As(err, &oauthErr):
		recordTokenExchange(string(req.GrantType), oauthErr.Code)
		writeJSONError(w, oauthErr.Code, oauthErr.Description, http.StatusBadRequest)
	case errors.As(err, &configErr):
		recordTokenExchange(string(req.GrantType), "server_error")
		log.Error().
			Str("grant_type", string(req.GrantType)).
			Str("client_id", req.ClientID).
			Str("detail", configErr.Detail).
			Msg("token endpoint configuration error")
		writeJSONError(w, oauth2.ErrorServerError, "The authorization server is misconfigured.", http.StatusInternalServerError)
	default:
		recordTokenExchange(string(req.GrantType), "server_error")
		log.Error().
			Err(err).
			Str("grant_type", string(req.GrantType)).
			Str("client_id", req.ClientID).
			Msg("token exchange failed")
		writeJSONError(w, oauth2.ErrorServerError, "An internal error occurred.", http.StatusInternalServerError)
	}
}

func parseTokenRequest(r *http.Request) (*oauth2.TokenRequest, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var tokenReq oauth2.TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&tokenReq); err != nil {
			return nil, err
		}
		return &tokenReq, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &oauth2.TokenRequest{
		GrantType:    oauth2.GrantType(r.FormValue("grant_type")),
		ClientID:     r.FormValue("client_id"),
		ClientSecret: r.FormValue("client_secret"),
		Username:     r.FormValue("username"),
		Password:     r.FormValue("password"),
		Scope:        r.FormValue("scope"),
		Code:         r.FormValue("code"),
		DeviceCode:   r.FormValue("device_code"),
		RefreshToken: r.FormValue("refresh_token"),
	}, nil
}
