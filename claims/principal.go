package claims

// Destination is a per-claim flag controlling which issued tokens a claim
// appears in. Destinations are computed per claim, not per principal: the
// subject always travels in both tokens while conditional claims (email,
// roles) depend on the granted scopes.
type Destination uint8

const (
	// DestinationAccessToken marks a claim for inclusion in the access token.
	DestinationAccessToken Destination = 1 << iota
	// DestinationIdentityToken marks a claim for inclusion in the identity token.
	DestinationIdentityToken
)

// Has reports whether d includes the given destination.
func (d Destination) Has(dest Destination) bool {
	return d&dest != 0
}

// Standard claim names used across the pipeline.
const (
	ClaimSubject             = "sub"
	ClaimName                = "name"
	ClaimEmail               = "email"
	ClaimEmailVerified       = "email_verified"
	ClaimPhoneNumber         = "phone_number"
	ClaimPhoneNumberVerified = "phone_number_verified"
	ClaimRole                = "role"
	ClaimPreferredUsername   = "preferred_username"
)

// Claim is a single typed assertion about the authenticated subject.
type Claim struct {
	Name         string
	Value        any
	Destinations Destination
}

// Principal is the assembled set of claims representing an authenticated
// subject for a single token issuance. It is created fresh per request,
// handed to the token issuer and discarded - never persisted.
type Principal struct {
	Subject   string
	Claims    []Claim
	Scopes    []string
	Resources []string

	// Extra holds custom claims outside the closed set above. They are
	// access-token only unless destinations are assigned explicitly.
	Extra map[string]any
}

// NewPrincipal creates a principal for the given subject. The subject claim
// itself is added during assembly.
func NewPrincipal(subject string) *Principal {
	return &Principal{Subject: subject}
}

// SetClaim adds or replaces the named claim, preserving insertion order.
// Nil and empty-string values are dropped so tokens never carry blank
// claims.
func (p *Principal) SetClaim(name string, value any) *Principal {
	if value == nil {
		return p
	}
	if s, ok := value.(string); ok && s == "" {
		return p
	}
	for i := range p.Claims {
		if p.Claims[i].Name == name {
			p.Claims[i].Value = value
			return p
		}
	}
	p.Claims = append(p.Claims, Claim{Name: name, Value: value})
	return p
}

// Claim returns the named claim, or nil if the principal does not carry it.
func (p *Principal) Claim(name string) *Claim {
	for i := range p.Claims {
		if p.Claims[i].Name == name {
			return &p.Claims[i]
		}
	}
	return nil
}

// HasScope reports whether the named scope was granted to this principal.
func (p *Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenClaims returns a name->value map of every claim marked for the given
// destination, including Extra claims for the access token.
func (p *Principal) TokenClaims(dest Destination) map[string]any {
	out := make(map[string]any, len(p.Claims))
	for _, c := range p.Claims {
		if c.Destinations.Has(dest) {
			out[c.Name] = c.Value
		}
	}
	if dest == DestinationAccessToken {
		for k, v := range p.Extra {
			out[k] = v
		}
	}
	return out
}
