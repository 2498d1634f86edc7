package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nexusweb/go-identity-server/auth"
	"github.com/nexusweb/go-identity-server/oauth2"
)

// DeviceAuthorizationHandler starts a device flow: it registers a pending
// authorization for the client and returns the code pair the device shows
// to the user.
func (s *Server) DeviceAuthorizationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "Failed to parse form data.", http.StatusBadRequest)
			return
		}

		clientID := r.FormValue("client_id")
		if clientID == "" {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "The client_id parameter is required.", http.StatusBadRequest)
			return
		}
		scopes := oauth2.SplitScopes(r.FormValue("scope"))

		deviceCode, userCode, err := s.device.Begin(r.Context(), clientID, scopes)
		if err != nil {
			s.writeDeviceError(w, clientID, err)
			return
		}

		writeJSON(w, http.StatusOK, oauth2.DeviceAuthorizationResponse{
			DeviceCode:      deviceCode,
			UserCode:        userCode,
			VerificationURI: s.config.GetIssuerURL() + RouteDeviceApprove,
			ExpiresIn:       int(s.config.GetDeviceCodeTimeout().Seconds()),
			Interval:        int(s.config.GetDeviceCodeInterval().Seconds()),
		})
	}
}

// DeviceApproveHandler binds a pending device authorization to the user
// identified by the submitted credentials.
func (s *Server) DeviceApproveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "Failed to parse form data.", http.StatusBadRequest)
			return
		}

		userCode := r.FormValue("user_code")
		username := r.FormValue("username")
		password := r.FormValue("password")
		if userCode == "" || username == "" || password == "" {
			writeJSONError(w, oauth2.ErrorInvalidRequest, "user_code, username and password are required.", http.StatusBadRequest)
			return
		}

		if err := s.device.Approve(r.Context(), userCode, username, password); err != nil {
			var oauthErr *auth.Error
			if errors.As(err, &oauthErr) {
				recordDeviceApproval(oauthErr.Code)
				writeJSONError(w, oauthErr.Code, oauthErr.Description, http.StatusBadRequest)
				return
			}
			recordDeviceApproval("server_error")
			log.Error().Err(err).Msg("device approval failed")
			writeJSONError(w, oauth2.ErrorServerError, "An internal error occurred.", http.StatusInternalServerError)
			return
		}

		recordDeviceApproval("success")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) writeDeviceError(w http.ResponseWriter, clientID string, err error) {
	var oauthErr *auth.Error
	var configErr *auth.ConfigurationError

	switch {
	case errors.As(err, &oauthErr):
		writeJSONError(w, oauthErr.Code, oauthErr.Description, http.StatusBadRequest)
	case errors.As(err, &configErr):
		log.Error().
			Str("client_id", clientID).
			Str("detail", configErr.Detail).
			Msg("device endpoint configuration error")
		writeJSONError(w, oauth2.ErrorServerError, "The authorization server is misconfigured.", http.StatusInternalServerError)
	default:
		log.Error().Err(err).Str("client_id", clientID).Msg("device authorization failed")
		writeJSONError(w, oauth2.ErrorServerError, "An internal error occurred.", http.StatusInternalServerError)
	}
}
