package goSignin

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/goSignin/internal/audit"
	internalmetrics "github.com/MrEthical07/goSignin/internal/metrics"
)

// User is the account record the engine authenticates. Callers load it from
// their own storage; the engine never persists it.
type User struct {
	ID               string
	Identifier       string
	PasswordHash     string
	SecurityStamp    string
	TwoFactorEnabled bool
}

// CredentialStore is the primary interface that callers must implement to
// integrate goSignin with their user database. It covers identifier lookup
// and password verification; the engine never sees a password hash
// algorithm.
//
// FindByIdentifier reports an unknown identifier by returning (nil, nil) or
// [ErrUserNotFound]. Both surface to callers as an ordinary failed sign-in.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	CheckPassword(ctx context.Context, user *User, password string) (bool, error)
}

// TwoFactorStore is an optional extension of [CredentialStore]. A store that
// implements it opts the engine into the two-factor interlock: a user with
// two-factor enabled and at least one valid provider gets a challenge token
// instead of a sign-in token.
type TwoFactorStore interface {
	CredentialStore
	TwoFactorEnabled(ctx context.Context, user *User) (bool, error)
	ValidTwoFactorProviders(ctx context.Context, user *User) ([]string, error)
}

// SecurityStampStore is an optional extension of [CredentialStore] for
// stores that persist a per-user security stamp. Without it,
// [Engine.ValidateSecurityStamp] has no authoritative stamp to compare
// against and always reports false.
type SecurityStampStore interface {
	CredentialStore
	SecurityStamp(ctx context.Context, user *User) (string, error)
}

// TwoFactorVerifier checks a one-time code for a (user, provider) pair.
// The Redis-backed provider in twofactor/ satisfies this through the
// builder; callers may supply their own (TOTP, SMS gateway, test fake).
type TwoFactorVerifier interface {
	VerifyCode(ctx context.Context, user *User, provider, code string) (bool, error)
}

// PrincipalFactory converts an authenticated [User] into the [Principal]
// whose claims are embedded in issued tokens.
type PrincipalFactory interface {
	CreatePrincipal(ctx context.Context, user *User) (*Principal, error)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine’s audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
type MetricID = internalmetrics.ID

const (
	// MetricSignInSuccess is an exported constant or variable used by the sign-in engine.
	MetricSignInSuccess = MetricID(internalmetrics.SignInSuccess)
	// MetricSignInFailure is an exported constant or variable used by the sign-in engine.
	MetricSignInFailure = MetricID(internalmetrics.SignInFailure)
	// MetricTwoFactorRequired is an exported constant or variable used by the sign-in engine.
	MetricTwoFactorRequired = MetricID(internalmetrics.TwoFactorRequired)
	// MetricTwoFactorSuccess is an exported constant or variable used by the sign-in engine.
	MetricTwoFactorSuccess = MetricID(internalmetrics.TwoFactorSuccess)
	// MetricTwoFactorFailure is an exported constant or variable used by the sign-in engine.
	MetricTwoFactorFailure = MetricID(internalmetrics.TwoFactorFailure)
	// MetricTokenIssued is an exported constant or variable used by the sign-in engine.
	MetricTokenIssued = MetricID(internalmetrics.TokenIssued)
	// MetricStampValidated is an exported constant or variable used by the sign-in engine.
	MetricStampValidated = MetricID(internalmetrics.StampValidated)
	// MetricStampRejected is an exported constant or variable used by the sign-in engine.
	MetricStampRejected = MetricID(internalmetrics.StampRejected)
	// MetricSignInLatency is an exported constant or variable used by the sign-in engine.
	MetricSignInLatency = MetricID(internalmetrics.SignInLatency)
)

// Metrics holds atomic counters and the optional sign-in latency histogram.
type Metrics = internalmetrics.Recorder

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.NewRecorder(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
