package goSignin

import (
	"context"
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/goSignin/internal/audit"
	"github.com/MrEthical07/goSignin/token"
	"github.com/MrEthical07/goSignin/twofactor"
)

// Engine defines a public type used by goSignin APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config     Config
	store      CredentialStore
	verifier   TwoFactorVerifier
	principals PrincipalFactory
	issuer     *token.Issuer
	codes      *twofactor.Store
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// PasswordSignIn describes the passwordsignin operation and its observable behavior.
//
// PasswordSignIn may return an error when input validation, dependency calls, or security checks fail.
// PasswordSignIn does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A nil user is caller misuse on this overload and returns [ErrNilUser]. A
// wrong password is an authentication outcome: Failed result, nil error.
// When the password matches and the store, the user, and at least one
// provider all agree that two-factor applies, the result is
// TwoFactorRequired carrying a short-lived challenge token; otherwise the
// result is Success carrying a sign-in token.
func (e *Engine) PasswordSignIn(ctx context.Context, user *User, password string) (SignInResult, error) {
	if e == nil || e.store == nil || e.issuer == nil {
		return failedResult(), ErrEngineNotReady
	}
	if user == nil {
		return failedResult(), ErrNilUser
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricSignInLatency, time.Since(start))
		}()
	}

	ok, err := e.store.CheckPassword(ctx, user, password)
	if err != nil {
		return failedResult(), err
	}
	if !ok {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInFailure, false, user.ID, user.Identifier, "", nil, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return failedResult(), nil
	}

	eligible, err := e.twoFactorEligible(ctx, user)
	if err != nil {
		return failedResult(), err
	}
	if eligible {
		challenge, err := e.issueFor(ctx, user, true)
		if err != nil {
			return failedResult(), err
		}
		e.metricInc(MetricTwoFactorRequired)
		e.emitAudit(ctx, auditEventTwoFactorRequired, false, user.ID, user.Identifier, "", nil, nil)
		return twoFactorRequiredResult(challenge, user), nil
	}

	signIn, err := e.issueFor(ctx, user, false)
	if err != nil {
		return failedResult(), err
	}
	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignInSuccess, true, user.ID, user.Identifier, "", nil, nil)
	return successResult(signIn, user), nil
}

// PasswordSignInByIdentifier describes the passwordsigninbyidentifier operation and its observable behavior.
//
// PasswordSignInByIdentifier may return an error when input validation, dependency calls, or security checks fail.
// PasswordSignInByIdentifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// An unknown identifier and a wrong password produce the same Failed result
// so callers cannot probe which identifiers exist.
func (e *Engine) PasswordSignInByIdentifier(ctx context.Context, identifier, password string) (SignInResult, error) {
	if e == nil || e.store == nil || e.issuer == nil {
		return failedResult(), ErrEngineNotReady
	}

	user, err := e.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			user = nil
		} else {
			return failedResult(), err
		}
	}
	if user == nil {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInFailure, false, "", identifier, "", ErrUserNotFound, func() map[string]string {
			return map[string]string{
				"reason": "user_not_found",
			}
		})
		return failedResult(), nil
	}

	return e.PasswordSignIn(ctx, user, password)
}

// TwoFactorSignIn describes the twofactorsignin operation and its observable behavior.
//
// TwoFactorSignIn may return an error when input validation, dependency calls, or security checks fail.
// TwoFactorSignIn does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A nil user is an authentication outcome here, not misuse: the caller is
// resolving a pending challenge and may have lost the user mid-flow, so the
// result is Failed rather than an error. An accepted code completes the
// sign-in and issues a token with the primary label — not the two-factor
// label, which marks pending challenges only.
func (e *Engine) TwoFactorSignIn(ctx context.Context, user *User, provider, code string) (SignInResult, error) {
	if e == nil || e.store == nil || e.issuer == nil {
		return failedResult(), ErrEngineNotReady
	}
	if user == nil {
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, false, "", "", provider, ErrNilUser, func() map[string]string {
			return map[string]string{
				"reason": "nil_user",
			}
		})
		return failedResult(), nil
	}
	if e.verifier == nil {
		return failedResult(), ErrTwoFactorNotConfigured
	}

	ok, err := e.verifier.VerifyCode(ctx, user, provider, code)
	if err != nil {
		if errors.Is(err, twofactor.ErrBackend) {
			return failedResult(), ErrTwoFactorUnavailable
		}
		return failedResult(), err
	}
	if !ok {
		e.metricInc(MetricTwoFactorFailure)
		e.emitAudit(ctx, auditEventTwoFactorFailure, false, user.ID, user.Identifier, provider, nil, func() map[string]string {
			return map[string]string{
				"reason": "code_rejected",
			}
		})
		return failedResult(), nil
	}

	signIn, err := e.issueFor(ctx, user, false)
	if err != nil {
		return failedResult(), err
	}
	e.metricInc(MetricTwoFactorSuccess)
	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventTwoFactorSuccess, true, user.ID, user.Identifier, provider, nil, nil)
	return successResult(signIn, user), nil
}

// ValidateSecurityStamp describes the validatesecuritystamp operation and its observable behavior.
//
// ValidateSecurityStamp may return an error when input validation, dependency calls, or security checks fail.
// ValidateSecurityStamp does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The check is fail-closed: a nil user or principal, a store without stamp
// support, a failed lookup, or a principal missing the configured stamp
// claim all report false. Only exact equality between the stored stamp and
// the claimed stamp reports true.
func (e *Engine) ValidateSecurityStamp(ctx context.Context, user *User, principal *Principal) bool {
	if e == nil || e.store == nil || user == nil || principal == nil {
		return false
	}

	stamps, ok := e.store.(SecurityStampStore)
	if !ok {
		e.metricInc(MetricStampRejected)
		return false
	}

	current, err := stamps.SecurityStamp(ctx, user)
	if err != nil {
		e.metricInc(MetricStampRejected)
		return false
	}

	claimed, ok := principal.FindClaim(e.config.Token.SecurityStampClaim)
	if !ok {
		e.metricInc(MetricStampRejected)
		return false
	}

	if claimed != current {
		e.metricInc(MetricStampRejected)
		return false
	}

	e.metricInc(MetricStampValidated)
	return true
}

// GenerateTwoFactorCode describes the generatetwofactorcode operation and its observable behavior.
//
// GenerateTwoFactorCode may return an error when input validation, dependency calls, or security checks fail.
// GenerateTwoFactorCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The returned plaintext code is the only copy; delivering it to the user
// is the caller's responsibility.
func (e *Engine) GenerateTwoFactorCode(ctx context.Context, user *User, provider string) (string, error) {
	if e == nil || e.codes == nil {
		return "", ErrTwoFactorNotConfigured
	}
	if user == nil {
		return "", ErrNilUser
	}

	code, err := e.codes.Generate(ctx, user.ID, provider)
	if err != nil {
		if errors.Is(err, twofactor.ErrBackend) {
			return "", ErrTwoFactorUnavailable
		}
		return "", err
	}

	e.emitAudit(ctx, auditEventCodeGenerated, true, user.ID, user.Identifier, provider, nil, nil)
	return code, nil
}

// issueFor converts the user into a principal and signs the first
// identity's claims. The twoFactor flag picks the lifetime and the
// authentication-method label.
func (e *Engine) issueFor(ctx context.Context, user *User, twoFactor bool) (string, error) {
	if e.principals == nil {
		return "", ErrEngineNotReady
	}

	principal, err := e.principals.CreatePrincipal(ctx, user)
	if err != nil {
		return "", err
	}
	first, ok := principal.FirstIdentity()
	if !ok {
		return "", ErrPrincipalInvalid
	}

	signed, err := e.issuer.Issue(first.Claims, twoFactor)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricTokenIssued)
	label := e.config.Token.PrimaryAuthMethod
	if twoFactor {
		label = e.config.Token.TwoFactorAuthMethod
	}
	e.emitAudit(ctx, auditEventTokenIssued, true, user.ID, user.Identifier, "", nil, func() map[string]string {
		return map[string]string{
			"auth_method": label,
		}
	})

	return signed, nil
}

func (e *Engine) twoFactorEligible(ctx context.Context, user *User) (bool, error) {
	tfs, ok := e.store.(TwoFactorStore)
	if !ok {
		return false, nil
	}

	enabled, err := tfs.TwoFactorEnabled(ctx, user)
	if err != nil {
		return false, err
	}
	if !enabled {
		return false, nil
	}

	providers, err := tfs.ValidTwoFactorProviders(ctx, user)
	if err != nil {
		return false, err
	}
	return len(providers) > 0, nil
}
