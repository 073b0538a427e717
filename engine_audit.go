package goSignin

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignInSuccess     = "signin_success"
	auditEventSignInFailure     = "signin_failure"
	auditEventTwoFactorRequired = "twofactor_required"
	auditEventTwoFactorSuccess  = "twofactor_success"
	auditEventTwoFactorFailure  = "twofactor_failure"
	auditEventTokenIssued       = "token_issued"
	auditEventCodeGenerated     = "twofactor_code_generated"
)

// AuditErrorCode defines a public type used by goSignin APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrNilUser          AuditErrorCode = "nil_user"
	auditErrUserNotFound     AuditErrorCode = "user_not_found"
	auditErrPrincipalInvalid AuditErrorCode = "principal_invalid"
	auditErrNotConfigured    AuditErrorCode = "twofactor_not_configured"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrEngineNotReady   AuditErrorCode = "engine_not_ready"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	identifier string,
	provider string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		UserID:     userID,
		Identifier: identifier,
		Provider:   provider,
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNilUser):
		return auditErrNilUser
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrPrincipalInvalid):
		return auditErrPrincipalInvalid
	case errors.Is(err, ErrTwoFactorNotConfigured):
		return auditErrNotConfigured
	case errors.Is(err, ErrTwoFactorUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrEngineNotReady):
		return auditErrEngineNotReady
	default:
		return auditErrInternal
	}
}
