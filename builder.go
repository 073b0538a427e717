package goSignin

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/MrEthical07/goSignin/internal/audit"
	"github.com/MrEthical07/goSignin/token"
	"github.com/MrEthical07/goSignin/twofactor"
)

// Builder defines a public type used by goSignin APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	store      CredentialStore
	verifier   TwoFactorVerifier
	principals PrincipalFactory
	auditSink  AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Redis is optional. When present it backs the one-time code provider and,
// unless a verifier is supplied explicitly, the default [TwoFactorVerifier].
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore describes the withcredentialstore operation and its observable behavior.
//
// WithCredentialStore may return an error when input validation, dependency calls, or security checks fail.
// WithCredentialStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithTwoFactorVerifier describes the withtwofactorverifier operation and its observable behavior.
//
// WithTwoFactorVerifier may return an error when input validation, dependency calls, or security checks fail.
// WithTwoFactorVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTwoFactorVerifier(verifier TwoFactorVerifier) *Builder {
	b.verifier = verifier
	return b
}

// WithPrincipalFactory describes the withprincipalfactory operation and its observable behavior.
//
// WithPrincipalFactory may return an error when input validation, dependency calls, or security checks fail.
// WithPrincipalFactory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithPrincipalFactory(factory PrincipalFactory) *Builder {
	b.principals = factory
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	engine := &Engine{
		config: cloneConfig(cfg),
		store:  b.store,
	}

	issuer, err := token.NewIssuer(token.Config{
		Issuer:              cfg.Token.Issuer,
		Audience:            cfg.Token.Audience,
		SigningMethod:       token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:          cloneBytes(cfg.Token.PrivateKey),
		PublicKey:           cloneBytes(cfg.Token.PublicKey),
		AccessTTL:           cfg.Token.AccessTTL,
		TwoFactorTTL:        cfg.Token.TwoFactorTTL,
		PrimaryAuthMethod:   cfg.Token.PrimaryAuthMethod,
		TwoFactorAuthMethod: cfg.Token.TwoFactorAuthMethod,
	})
	if err != nil {
		return nil, err
	}
	engine.issuer = issuer

	if b.redis != nil {
		codes, err := twofactor.NewStore(b.redis, twofactor.Config{
			CodeTTL:     cfg.TwoFactor.CodeTTL,
			CodeDigits:  cfg.TwoFactor.CodeDigits,
			MaxAttempts: cfg.TwoFactor.MaxAttempts,
		})
		if err != nil {
			return nil, err
		}
		engine.codes = codes
	}

	engine.verifier = b.verifier
	if engine.verifier == nil && engine.codes != nil {
		engine.verifier = codeVerifier{codes: engine.codes}
	}

	engine.principals = b.principals
	if engine.principals == nil {
		engine.principals = defaultPrincipalFactory{
			label:      cfg.Token.PrimaryAuthMethod,
			stampClaim: cfg.Token.SecurityStampClaim,
		}
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}

// codeVerifier adapts the Redis-backed code store to the engine's verifier
// contract.
type codeVerifier struct {
	codes *twofactor.Store
}

func (v codeVerifier) VerifyCode(ctx context.Context, user *User, provider, code string) (bool, error) {
	if user == nil || user.ID == "" {
		return false, nil
	}
	return v.codes.Verify(ctx, user.ID, provider, code)
}

// defaultPrincipalFactory builds a single-identity principal from the user's
// ID, identifier, and security stamp.
type defaultPrincipalFactory struct {
	label      string
	stampClaim string
}

func (f defaultPrincipalFactory) CreatePrincipal(_ context.Context, user *User) (*Principal, error) {
	if user == nil {
		return nil, ErrNilUser
	}
	if user.ID == "" {
		return nil, ErrPrincipalInvalid
	}

	claims := []Claim{{Type: "sub", Value: user.ID}}
	if user.Identifier != "" {
		claims = append(claims, Claim{Type: "identifier", Value: user.Identifier})
	}
	if user.SecurityStamp != "" {
		claims = append(claims, Claim{Type: f.stampClaim, Value: user.SecurityStamp})
	}

	return NewPrincipal(Identity{Label: f.label, Claims: claims}), nil
}
