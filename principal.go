package goSignin

import "github.com/MrEthical07/goSignin/token"

// Claim is a single name/value assertion attached to an [Identity].
type Claim = token.Claim

// Identity defines a public type used by goSignin APIs.
//
// Identity instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Identity struct {
	// Label names the authentication scheme that produced this identity.
	Label  string
	Claims []Claim
}

// HasClaim describes the hasclaim operation and its observable behavior.
//
// HasClaim may return an error when input validation, dependency calls, or security checks fail.
// HasClaim does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (id Identity) HasClaim(claimType string) bool {
	for _, c := range id.Claims {
		if c.Type == claimType {
			return true
		}
	}
	return false
}

// Principal defines a public type used by goSignin APIs.
//
// Principal instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Principal struct {
	Identities []Identity
}

// NewPrincipal describes the newprincipal operation and its observable behavior.
//
// NewPrincipal may return an error when input validation, dependency calls, or security checks fail.
// NewPrincipal does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewPrincipal(identities ...Identity) *Principal {
	return &Principal{Identities: identities}
}

// FirstIdentity describes the firstidentity operation and its observable behavior.
//
// FirstIdentity may return an error when input validation, dependency calls, or security checks fail.
// FirstIdentity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (p *Principal) FirstIdentity() (Identity, bool) {
	if p == nil || len(p.Identities) == 0 {
		return Identity{}, false
	}
	return p.Identities[0], true
}

// AddIdentity describes the addidentity operation and its observable behavior.
//
// AddIdentity may return an error when input validation, dependency calls, or security checks fail.
// AddIdentity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// AddIdentity returns a new Principal; the receiver is never modified.
func (p *Principal) AddIdentity(id Identity) *Principal {
	var existing []Identity
	if p != nil {
		existing = p.Identities
	}
	identities := make([]Identity, 0, len(existing)+1)
	identities = append(identities, existing...)
	identities = append(identities, id)
	return &Principal{Identities: identities}
}

// FindClaim describes the findclaim operation and its observable behavior.
//
// FindClaim may return an error when input validation, dependency calls, or security checks fail.
// FindClaim does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Identities are searched in order; the first matching claim wins.
func (p *Principal) FindClaim(claimType string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, id := range p.Identities {
		for _, c := range id.Claims {
			if c.Type == claimType {
				return c.Value, true
			}
		}
	}
	return "", false
}
