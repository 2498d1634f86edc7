package auth

import (
	"github.com/nexusweb/go-identity-server/claims"
	"github.com/nexusweb/go-identity-server/users"
)

// principalFromUser builds a fresh principal from the user's CURRENT state.
// Re-validation paths call this instead of copying claims out of the old
// token, so role or email changes since issuance take effect immediately.
func principalFromUser(u *users.User) *claims.Principal {
	p := claims.NewPrincipal(u.ID)
	p.SetClaim(claims.ClaimSubject, u.ID).
		SetClaim(claims.ClaimName, u.Username).
		SetClaim(claims.ClaimPreferredUsername, u.Username).
		SetClaim(claims.ClaimEmail, u.Email)

	if u.Email != "" {
		p.SetClaim(claims.ClaimEmailVerified, u.EmailVerified)
	}
	if u.PhoneNumber != "" {
		p.SetClaim(claims.ClaimPhoneNumber, u.PhoneNumber).
			SetClaim(claims.ClaimPhoneNumberVerified, u.PhoneNumberVerified)
	}
	if len(u.Roles) > 0 {
		p.SetClaim(claims.ClaimRole, append([]string(nil), u.Roles...))
	}
	return p
}
