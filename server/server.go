// Package server exposes the token-exchange pipeline over HTTP. It owns
// routing, request decoding and the mapping from pipeline errors to wire
// error responses; all grant semantics live in the auth package.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/nexusweb/go-identity-server/auth"
	clientspkg "github.com/nexusweb/go-identity-server/clients"
	"github.com/nexusweb/go-identity-server/internal/config"
	"github.com/nexusweb/go-identity-server/token"
	"github.com/nexusweb/go-identity-server/token/refresh"
	userspkg "github.com/nexusweb/go-identity-server/users"
)

// Services groups the collaborators the HTTP layer delegates to.
type Services struct {
	Tokens  *auth.TokenService
	Device  *auth.DeviceService
	Issuer  *token.Issuer
	Refresh *refresh.Manager // nil disables refresh-token revocation on logout
	Users   userspkg.Repo
	Clients clientspkg.Repo
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	config config.Config
	router chi.Router

	tokens  *auth.TokenService
	device  *auth.DeviceService
	issuer  *token.Issuer
	refresh *refresh.Manager
	users   userspkg.Repo
	clients clientspkg.Repo
}

func New(cfg config.Config, svcs Services) (*Server, error) {
	if svcs.Tokens == nil {
		return nil, errors.New("[server.New] token service is required")
	}
	if svcs.Device == nil {
		return nil, errors.New("[server.New] device service is required")
	}
	if svcs.Issuer == nil {
		return nil, errors.New("[server.New] token issuer is required")
	}
	if svcs.Users == nil {
		return nil, errors.New("[server.New] user repo is required")
	}
	if svcs.Clients == nil {
		return nil, errors.New("[server.New] client repo is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		config:  cfg,
		router:  chi.NewRouter(),
		tokens:  svcs.Tokens,
		device:  svcs.Device,
		issuer:  svcs.Issuer,
		refresh: svcs.Refresh,
		users:   svcs.Users,
		clients: svcs.Clients,
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(recoverer)

	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.router.Post(RouteToken, s.TokenHandler())
	s.router.Get(RouteUserInfo, s.UserInfoHandler())
	s.router.Post(RouteUserInfo, s.UserInfoHandler())
	s.router.Get(RouteLogout, s.LogoutHandler())
	s.router.Post(RouteLogout, s.LogoutHandler())

	s.router.Post(RouteDevice, s.DeviceAuthorizationHandler())
	s.router.Post(RouteDeviceApprove, s.DeviceApproveHandler())

	s.router.Post(RouteIntrospect, s.IntrospectHandler())
	s.router.Post(RouteRevoke, s.RevokeHandler())

	s.router.Get(RouteWellKnownOpenIDConfig, s.WellKnownOpenIDConfigHandler())
	s.router.Get(RouteWellKnownJWKS, s.JWKsHandler())

	s.router.Get(RouteHealth, s.HealthHandler())
	s.router.Method(http.MethodGet, RouteMetrics, MetricsHandler())
}

// HealthHandler reports process liveness
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
