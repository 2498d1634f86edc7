package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Token exchange and session routes
	RouteToken    = "/connect/token"
	RouteUserInfo = "/connect/userinfo"
	RouteLogout   = "/connect/logout"

	// Device flow routes
	RouteDevice        = "/connect/device"
	RouteDeviceApprove = "/connect/device/approve"

	// Token lifecycle routes
	RouteIntrospect = "/connect/introspect"
	RouteRevoke     = "/connect/revoke"

	// Discovery routes
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteWellKnownJWKS         = "/.well-known/jwks.json"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
