package goSignin

// SignInStatus defines a public type used by goSignin APIs.
//
// SignInStatus instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SignInStatus uint8

const (
	// SignInFailed is an exported constant or variable used by the sign-in engine.
	SignInFailed SignInStatus = iota
	// SignInTwoFactorRequired is an exported constant or variable used by the sign-in engine.
	SignInTwoFactorRequired
	// SignInSucceeded is an exported constant or variable used by the sign-in engine.
	SignInSucceeded
)

// SignInResult defines a public type used by goSignin APIs.
//
// SignInResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// A SignInResult is always in exactly one of three states: failed,
// two-factor required, or success. Only the engine constructs results, so a
// token is present exactly when the state says it is: success carries a
// sign-in token, two-factor required carries a challenge token, and failed
// carries nothing.
type SignInResult struct {
	status SignInStatus
	token  string
	user   *User
}

func failedResult() SignInResult {
	return SignInResult{status: SignInFailed}
}

func successResult(tokenStr string, user *User) SignInResult {
	return SignInResult{status: SignInSucceeded, token: tokenStr, user: user}
}

func twoFactorRequiredResult(tokenStr string, user *User) SignInResult {
	return SignInResult{status: SignInTwoFactorRequired, token: tokenStr, user: user}
}

// Status describes the status operation and its observable behavior.
//
// Status may return an error when input validation, dependency calls, or security checks fail.
// Status does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r SignInResult) Status() SignInStatus {
	return r.status
}

// Succeeded describes the succeeded operation and its observable behavior.
//
// Succeeded may return an error when input validation, dependency calls, or security checks fail.
// Succeeded does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r SignInResult) Succeeded() bool {
	return r.status == SignInSucceeded
}

// RequiresTwoFactor describes the requirestwofactor operation and its observable behavior.
//
// RequiresTwoFactor may return an error when input validation, dependency calls, or security checks fail.
// RequiresTwoFactor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r SignInResult) RequiresTwoFactor() bool {
	return r.status == SignInTwoFactorRequired
}

// Failed describes the failed operation and its observable behavior.
//
// Failed may return an error when input validation, dependency calls, or security checks fail.
// Failed does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r SignInResult) Failed() bool {
	return r.status == SignInFailed
}

// Token describes the token operation and its observable behavior.
//
// Token may return an error when input validation, dependency calls, or security checks fail.
// Token does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Token is the sign-in token on success, the challenge token when two-factor
// is required, and empty on failure.
func (r SignInResult) Token() string {
	return r.token
}

// User describes the user operation and its observable behavior.
//
// User may return an error when input validation, dependency calls, or security checks fail.
// User does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// User is nil on failure so a failed result carries nothing an attacker
// could distinguish.
func (r SignInResult) User() *User {
	return r.user
}

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r SignInResult) String() string {
	switch r.status {
	case SignInSucceeded:
		return "success"
	case SignInTwoFactorRequired:
		return "two_factor_required"
	default:
		return "failed"
	}
}
