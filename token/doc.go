// Package token signs and parses the compact JWT bearer tokens produced by
// the sign-in engine.
//
// An Issuer is bound to one signing credential, one issuer/audience pair, and
// two lifetimes: AccessTTL for completed sign-ins and TwoFactorTTL for
// pending two-factor challenges. The two token kinds are structurally
// identical; they differ only in the value of the appended
// authentication-method claim and the lifetime applied.
//
// Missing or malformed key material is rejected at construction, never at
// issuance: by the time Issue runs, a failure to sign indicates a programmer
// error, not a recoverable condition.
package token
