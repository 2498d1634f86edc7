package auth

import (
	"fmt"

	"github.com/nexusweb/go-identity-server/oauth2"
)

// Error is a wire-mappable token-endpoint failure. Its Code is one of the
// fixed OAuth2 error codes and its Description is safe to return to the
// client. Anything that is not an *Error (or *ConfigurationError) is an
// internal failure and must surface as an opaque server_error.
type Error struct {
	Code        string
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Invalid-grant descriptions are deliberately generic. In particular the
// password-grant message never distinguishes "no such user" from "wrong
// password", to avoid user-enumeration leakage.
const (
	DescInvalidCredentials = "The username/password couple is invalid."
	DescTokenNoLongerValid = "The token is no longer valid."
	DescUserCannotSignIn   = "The user is no longer allowed to sign in."
	DescInvalidClient      = "The client credentials are invalid."
	DescDevicePending      = "The device authorization is still pending."
	DescScopeNotAllowed    = "This client application is not allowed to use the specified scope."
)

// ErrUnsupportedGrantType is the request-shape error: rejected before any
// validation or collaborator call.
var ErrUnsupportedGrantType = &Error{
	Code:        oauth2.ErrorUnsupportedGrantType,
	Description: "The specified grant type is not supported.",
}

// InvalidGrant builds a credential/token/user-state failure.
func InvalidGrant(description string) *Error {
	return &Error{Code: oauth2.ErrorInvalidGrant, Description: description}
}

// InvalidScope builds the failure for a scope the client is not registered
// for.
func InvalidScope(description string) *Error {
	return &Error{Code: oauth2.ErrorInvalidScope, Description: description}
}

// IsInvalidGrant reports whether err is an invalid_grant wire error.
func IsInvalidGrant(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == oauth2.ErrorInvalidGrant
}

// ConfigurationError marks a deployment defect - e.g. a token request for a
// client_id that was never registered. It is distinct from the generic
// invalid_grant taxonomy on purpose: it should alarm loudly and surface as
// a 5xx, not be mistaken for a routine credential failure.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Detail
}

// Configurationf builds a ConfigurationError with a formatted detail.
func Configurationf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Detail: fmt.Sprintf(format, args...)}
}
