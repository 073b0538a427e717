package goSignin

import (
	"errors"
	"time"
)

// Config defines a public type used by goSignin APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token     TokenConfig
	TwoFactor TwoFactorConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by goSignin APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	Issuer        string
	Audience      string
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte

	// AccessTTL bounds tokens issued for a completed sign-in. Zero means the
	// token carries no expiration claim.
	AccessTTL time.Duration
	// TwoFactorTTL bounds tokens issued for a pending two-factor challenge.
	// Zero means no expiration claim, which is almost never what you want for
	// a challenge token.
	TwoFactorTTL time.Duration

	// PrimaryAuthMethod and TwoFactorAuthMethod are the values stamped into
	// the authentication-method ("amr") claim.
	PrimaryAuthMethod   string
	TwoFactorAuthMethod string

	// SecurityStampClaim is the claim type consulted by
	// [Engine.ValidateSecurityStamp].
	SecurityStampClaim string
}

/*
====================================
TWO-FACTOR CONFIG
====================================
*/

// TwoFactorConfig defines a public type used by goSignin APIs.
//
// TwoFactorConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TwoFactorConfig struct {
	// CodeTTL is how long a generated one-time code stays valid in the
	// Redis-backed provider.
	CodeTTL time.Duration
	// CodeDigits is the length of generated one-time codes.
	CodeDigits int
	// MaxAttempts invalidates a stored code after this many failed
	// verifications.
	MaxAttempts int
}

// AuditConfig defines a public type used by goSignin APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goSignin APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod:       "ed25519",
			AccessTTL:           15 * time.Minute,
			TwoFactorTTL:        5 * time.Minute,
			PrimaryAuthMethod:   "password",
			TwoFactorAuthMethod: "mfa",
			SecurityStampClaim:  "stamp",
		},
		TwoFactor: TwoFactorConfig{
			CodeTTL:     3 * time.Minute,
			CodeDigits:  6,
			MaxAttempts: 5,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	switch c.Token.SigningMethod {
	case "ed25519", "hs256":
		// valid
	default:
		return errors.New("Token SigningMethod must be ed25519 or hs256")
	}
	if len(c.Token.PrivateKey) == 0 {
		return errors.New("Token PrivateKey is required")
	}
	if c.Token.AccessTTL < 0 {
		return errors.New("Token AccessTTL must be >= 0")
	}
	if c.Token.TwoFactorTTL < 0 {
		return errors.New("Token TwoFactorTTL must be >= 0")
	}
	if c.Token.PrimaryAuthMethod == "" {
		return errors.New("Token PrimaryAuthMethod is required")
	}
	if c.Token.TwoFactorAuthMethod == "" {
		return errors.New("Token TwoFactorAuthMethod is required")
	}
	if c.Token.PrimaryAuthMethod == c.Token.TwoFactorAuthMethod {
		return errors.New("Token PrimaryAuthMethod and TwoFactorAuthMethod must differ")
	}
	if c.Token.SecurityStampClaim == "" {
		return errors.New("Token SecurityStampClaim is required")
	}

	if c.TwoFactor.CodeTTL <= 0 {
		return errors.New("TwoFactor CodeTTL must be > 0")
	}
	if c.TwoFactor.CodeDigits < 6 || c.TwoFactor.CodeDigits > 10 {
		return errors.New("TwoFactor CodeDigits must be between 6 and 10")
	}
	if c.TwoFactor.MaxAttempts <= 0 {
		return errors.New("TwoFactor MaxAttempts must be > 0")
	}

	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
