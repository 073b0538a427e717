// Package goSignin provides a credential sign-in engine that turns an
// (identifier, password) pair into a signed JWT bearer token, with optional
// two-factor challenge enforcement and a security-stamp invalidation check.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goSignin is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (SignInResult, Principal, User). Token signing lives in the
// token/ sub-package; the Redis-backed one-time code provider lives in
// twofactor/. Audit dispatch and metrics live under internal/ and are never
// exported directly.
//
// # What this package must NOT do
//
//   - Hash or store passwords. Credential verification is delegated entirely
//     to the caller's [CredentialStore].
//   - Parse HTTP requests or manage any transport concern.
//   - Retry or rate-limit failed attempts; that policy belongs to the caller.
//
// # Decision contract
//
// PasswordSignIn and TwoFactorSignIn report authentication outcomes through
// [SignInResult], never through errors: a wrong password, an unknown
// identifier, and an invalid code all surface as the same Failed result so
// callers cannot leak which check rejected an attempt. Errors are reserved
// for caller misuse (nil user on the single-user overload), configuration
// faults, and backend failures.
package goSignin
