package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func testConfig(t *testing.T) Config {
	t.Helper()
	_, priv := newEdKeys(t)
	return Config{
		Issuer:              "issuer-test",
		Audience:            "audience-test",
		SigningMethod:       MethodEd25519,
		PrivateKey:          priv,
		AccessTTL:           15 * time.Minute,
		TwoFactorTTL:        5 * time.Minute,
		PrimaryAuthMethod:   "password",
		TwoFactorAuthMethod: "mfa",
	}
}

func subjectClaims() []Claim {
	return []Claim{
		{Type: "sub", Value: "u1"},
		{Type: "identifier", Value: "alice"},
	}
}

func TestNewIssuerRejectsMissingKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.PrivateKey = nil

	if _, err := NewIssuer(cfg); err == nil {
		t.Fatal("expected missing private key to be rejected")
	}
}

func TestNewIssuerRejectsUnsupportedMethod(t *testing.T) {
	cfg := testConfig(t)
	cfg.SigningMethod = "rs256"

	if _, err := NewIssuer(cfg); err == nil {
		t.Fatal("expected unsupported signing method to be rejected")
	}
}

func TestNewIssuerRejectsMalformedEdKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.PrivateKey = []byte("not-a-key")

	if _, err := NewIssuer(cfg); err == nil {
		t.Fatal("expected malformed ed25519 key to be rejected")
	}
}

func TestNewIssuerRejectsEmptyLabels(t *testing.T) {
	cfg := testConfig(t)
	cfg.PrimaryAuthMethod = ""

	if _, err := NewIssuer(cfg); err == nil {
		t.Fatal("expected empty auth method label to be rejected")
	}
}

func TestIssueParseRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	issuer, err := NewIssuer(cfg)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	signed, err := issuer.Issue(subjectClaims(), false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := issuer.Parse(signed)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims["sub"] != "u1" || claims["identifier"] != "alice" {
		t.Fatalf("unexpected subject claims: %v", claims)
	}
	if claims[AuthMethodClaim] != "password" {
		t.Fatalf("expected password auth method, got %v", claims[AuthMethodClaim])
	}
	if claims["iss"] != "issuer-test" || claims["aud"] != "audience-test" {
		t.Fatalf("expected issuer and audience claims, got %v", claims)
	}
	if claims["jti"] == "" || claims["jti"] == nil {
		t.Fatal("expected jti claim")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatalf("expected exp claim, got %v", claims["exp"])
	}
	want := time.Now().Add(cfg.AccessTTL).Unix()
	if got := int64(exp); got < want-5 || got > want+5 {
		t.Fatalf("exp out of range: got %d, want ~%d", got, want)
	}
}

func TestIssueHS256RoundTrip(t *testing.T) {
	cfg := testConfig(t)
	cfg.SigningMethod = MethodHS256
	cfg.PrivateKey = []byte("shared-secret-at-least-32-bytes!")

	issuer, err := NewIssuer(cfg)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	signed, err := issuer.Issue(subjectClaims(), false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := issuer.Parse(signed); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
}

func TestIssueTwoFactorUsesChallengeLabelAndTTL(t *testing.T) {
	cfg := testConfig(t)
	issuer, err := NewIssuer(cfg)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	signed, err := issuer.Issue(subjectClaims(), true)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := issuer.Parse(signed)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims[AuthMethodClaim] != "mfa" {
		t.Fatalf("expected mfa auth method, got %v", claims[AuthMethodClaim])
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatalf("expected exp claim, got %v", claims["exp"])
	}
	want := time.Now().Add(cfg.TwoFactorTTL).Unix()
	if got := int64(exp); got < want-5 || got > want+5 {
		t.Fatalf("challenge exp out of range: got %d, want ~%d", got, want)
	}
}

func TestIssueOmitsExpWhenTTLZero(t *testing.T) {
	cfg := testConfig(t)
	cfg.AccessTTL = 0

	issuer, err := NewIssuer(cfg)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	signed, err := issuer.Issue(subjectClaims(), false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := issuer.Parse(signed)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := claims["exp"]; ok {
		t.Fatal("expected no exp claim when TTL is zero")
	}
}

func TestIssueEmptySubjectFails(t *testing.T) {
	issuer, err := NewIssuer(testConfig(t))
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	if _, err := issuer.Issue(nil, false); !errors.Is(err, ErrNoSubject) {
		t.Fatalf("expected ErrNoSubject, got %v", err)
	}
}

func TestIssueDoesNotMutateSubject(t *testing.T) {
	issuer, err := NewIssuer(testConfig(t))
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	subject := subjectClaims()
	original := make([]Claim, len(subject))
	copy(original, subject)

	if _, err := issuer.Issue(subject, false); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if len(subject) != len(original) {
		t.Fatalf("subject slice length changed: %d -> %d", len(original), len(subject))
	}
	for i := range subject {
		if subject[i] != original[i] {
			t.Fatalf("subject claim %d mutated: %+v -> %+v", i, original[i], subject[i])
		}
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	issuer, err := NewIssuer(testConfig(t))
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	signed, err := issuer.Issue(subjectClaims(), false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tampered := []byte(signed)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	if _, err := issuer.Parse(string(tampered)); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestParseRejectsTokenFromDifferentKey(t *testing.T) {
	issuer, err := NewIssuer(testConfig(t))
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	other, err := NewIssuer(testConfig(t))
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	signed, err := other.Issue(subjectClaims(), false)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := issuer.Parse(signed); err == nil {
		t.Fatal("expected token from a different key to be rejected")
	}
}
