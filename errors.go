package goSignin

import "errors"

var (
	// ErrNilUser is an exported constant or variable used by the sign-in engine.
	ErrNilUser = errors.New("user must not be nil")
	// ErrEngineNotReady is an exported constant or variable used by the sign-in engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUserNotFound is an exported constant or variable used by the sign-in engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrPrincipalInvalid is an exported constant or variable used by the sign-in engine.
	ErrPrincipalInvalid = errors.New("principal has no identity")
	// ErrTwoFactorUnavailable is an exported constant or variable used by the sign-in engine.
	ErrTwoFactorUnavailable = errors.New("two-factor backend unavailable")
	// ErrTwoFactorNotConfigured is an exported constant or variable used by the sign-in engine.
	ErrTwoFactorNotConfigured = errors.New("no two-factor verifier configured")
)
