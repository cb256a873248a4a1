package auth

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims is the payload the auth provider signs into access tokens.
// Subject carries the opaque external identity used to key accounts and
// usage snapshots across systems.
type IdentityClaims struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"given_name,omitempty"`
	LastName  string `json:"family_name,omitempty"`
	jwt.RegisteredClaims
}

// ExternalID returns the stable identity reference from the token subject.
func (c *IdentityClaims) ExternalID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
