// Package twofactor provides the Redis-backed one-time code provider used by
// the sign-in engine's two-factor step.
//
// Codes live in Redis under a (user, provider) key as a versioned binary
// record carrying a SHA-256 digest of the code, an absolute expiry, and a
// failed-attempt counter. Verification is transactional: a match consumes the
// record, a mismatch bumps the counter, and the record is deleted once the
// attempt cap is hit or the expiry passes.
//
// The package does not deliver codes anywhere. Generate returns the plaintext
// exactly once; transporting it (SMS, email, authenticator enrollment) is the
// caller's problem.
package twofactor
