package goSignin

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSignin/token"
)

type mockStore struct {
	users    map[string]*User
	password string

	findErr  error
	checkErr error
}

func (s *mockStore) FindByIdentifier(_ context.Context, identifier string) (*User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	user, ok := s.users[identifier]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (s *mockStore) CheckPassword(_ context.Context, _ *User, password string) (bool, error) {
	if s.checkErr != nil {
		return false, s.checkErr
	}
	return password == s.password, nil
}

type mockTwoFactorStore struct {
	mockStore

	enabled   bool
	providers []string

	enabledErr   error
	providersErr error
}

func (s *mockTwoFactorStore) TwoFactorEnabled(_ context.Context, user *User) (bool, error) {
	if s.enabledErr != nil {
		return false, s.enabledErr
	}
	return s.enabled && user.TwoFactorEnabled, nil
}

func (s *mockTwoFactorStore) ValidTwoFactorProviders(_ context.Context, _ *User) ([]string, error) {
	if s.providersErr != nil {
		return nil, s.providersErr
	}
	return s.providers, nil
}

type mockStampStore struct {
	mockStore

	stamp    string
	stampErr error
}

func (s *mockStampStore) SecurityStamp(_ context.Context, _ *User) (string, error) {
	if s.stampErr != nil {
		return "", s.stampErr
	}
	return s.stamp, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func signInTestConfig(t *testing.T) Config {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}

	cfg := defaultConfig()
	cfg.Token.Issuer = "goSignin-test"
	cfg.Token.Audience = "test-clients"
	cfg.Token.PrivateKey = priv
	return cfg
}

func aliceStore() *mockStore {
	return &mockStore{
		users: map[string]*User{
			"alice": {
				ID:            "u1",
				Identifier:    "alice",
				SecurityStamp: "stamp-1",
			},
		},
		password: "correct-password-123",
	}
}

func buildTestEngine(t *testing.T, cfg Config, store CredentialStore) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		mr.Close()
	}
}

func parseTokenClaims(t *testing.T, cfg Config, tokenStr string) jwtlib.MapClaims {
	t.Helper()

	issuer, err := token.NewIssuer(token.Config{
		Issuer:              cfg.Token.Issuer,
		Audience:            cfg.Token.Audience,
		SigningMethod:       token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:          cfg.Token.PrivateKey,
		PublicKey:           cfg.Token.PublicKey,
		AccessTTL:           cfg.Token.AccessTTL,
		TwoFactorTTL:        cfg.Token.TwoFactorTTL,
		PrimaryAuthMethod:   cfg.Token.PrimaryAuthMethod,
		TwoFactorAuthMethod: cfg.Token.TwoFactorAuthMethod,
	})
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	claims, err := issuer.Parse(tokenStr)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return claims
}

func assertExpWithin(t *testing.T, claims jwtlib.MapClaims, ttl time.Duration) {
	t.Helper()

	raw, ok := claims["exp"].(float64)
	if !ok {
		t.Fatalf("expected exp claim, got %v", claims["exp"])
	}
	want := time.Now().Add(ttl).Unix()
	got := int64(raw)
	if got < want-5 || got > want+5 {
		t.Fatalf("exp out of range: got %d, want ~%d", got, want)
	}
}

func TestPasswordSignInNilUserReturnsError(t *testing.T) {
	cfg := signInTestConfig(t)
	engine, _, done := buildTestEngine(t, cfg, aliceStore())
	defer done()

	result, err := engine.PasswordSignIn(context.Background(), nil, "whatever")
	if !errors.Is(err, ErrNilUser) {
		t.Fatalf("expected ErrNilUser, got %v", err)
	}
	if !result.Failed() {
		t.Fatalf("expected failed result, got %v", result)
	}
}

func TestPasswordSignInWrongPasswordFails(t *testing.T) {
	cfg := signInTestConfig(t)
	store := aliceStore()
	engine, _, done := buildTestEngine(t, cfg, store)
	defer done()

	result, err := engine.PasswordSignIn(context.Background(), store.users["alice"], "wrong-password")
	if err != nil {
		t.Fatalf("PasswordSignIn failed: %v", err)
	}
	if !result.Failed() {
		t.Fatalf("expected failed result, got %v", result)
	}
	if result.Token() != "" || result.User() != nil {
		t.Fatal("failed result must not carry token or user")
	}
}

func TestPasswordSignInByUnknownIdentifierFails(t *testing.T) {
	cfg := signInTestConfig(t)
	engine, _, done := buildTestEngine(t, cfg, aliceStore())
	defer done()

	result, err := engine.PasswordSignInByIdentifier(context.Background(), "nobody", "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordSignInByIdentifier failed: %v", err)
	}
	if !result.Failed() {
		t.Fatalf("expected failed result, got %v", result)
	}
	if result.Token() != "" || result.User() != nil {
		t.Fatal("unknown identifier must produce the same empty failure as a wrong password")
	}
}

func TestPasswordSignInByIdentifierNotFoundSentinelFails(t *testing.T) {
	cfg := signInTestConfig(t)
	store := aliceStore()
	store.findErr = ErrUserNotFound
	engine, _, done := buildTestEngine(t, cfg, store)
	defer done()

	result, err := engine.PasswordSignInByIdentifier(context.Background(), "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("expected ErrUserNotFound to be treated as an outcome, got error %v", err)
	}
	if !result.Failed() {
		t.Fatalf("expected failed result, got %v", result)
	}
}

func TestPasswordSignInSuccessIssuesPrimaryToken(t *testing.T) {
	cfg := signInTestConfig(t)
	store := aliceStore()
	engine, _, done := buildTestEngine(t, cfg, store)
	defer done()

	result, err := engine.PasswordSignInByIdentifier(context.Background(), "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordSignInByIdentifier failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected success, got %v", result)
	}
	if result.User() == nil || result.User().ID != "u1" {
		t.Fatalf("expected user u1 on result, got %+v", result.User())
	}

	claims := parseTokenClaims(t, cfg, result.Token())
	if claims[token.AuthMethodClaim] != cfg.Token.PrimaryAuthMethod {
		t.Fatalf("expected %q auth method, got %v", cfg.Token.PrimaryAuthMethod, claims[token.AuthMethodClaim])
	}
	if claims["sub"] != "u1" {
		t.Fatalf("expected sub=u1, got %v", claims["sub"])
	}
	if claims["stamp"] != "stamp-1" {
		t.Fatalf("expected stamp claim, got %v", claims["stamp"])
	}
	assertExpWithin(t, claims, cfg.Token.AccessTTL)
}

func TestPasswordSignInZeroTTLOmitsExpiration(t *testing.T) {
	cfg := signInTestConfig(t)
	cfg.Token.AccessTTL = 0
	store := aliceStore()
	engine, _, done := buildTestEngine(t, cfg, store)
	defer done()

	result, err := engine.PasswordSignIn(context.Background(), store.users["alice"], "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordSignIn failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected success, got %v", result)
	}

	claims := parseTokenClaims(t, cfg, result.Token())
	if _, ok := claims["exp"]; ok {
		t.Fatal("expected no exp claim when AccessTTL is zero")
	}
}

func TestPasswordSignInStoreErrorPropagates(t *testing.T) {
	cfg := signInTestConfig(t)
	store := aliceStore()
	store.checkErr = errors.New("database down")
	engine, _, done := buildTestEngine(t, cfg, store)
	defer done()

	_, err := engine.PasswordSignIn(context.Background(), store.users["alice"], "correct-password-123")
	if err == nil || err.Error() != "database down" {
		t.Fatalf("expected backend error to propagate, got %v", err)
	}
}

func TestPasswordSignInTwoFactorEligibleReturnsChallenge(t *testing.T) {
	cfg := signInTestConfig(t)
	store := &mockTwoFactorStore{
		mockStore: *aliceStore(),
		enabled:   true,
		providers: []string{"email"},
	}
	store.users["alice"].TwoFactorEnabled = true
	engine, _, done := buildTestEngine(t, cfg, store)
	defer done()

	result, err := engine.PasswordSignInByIdentifier(context.Background(), "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordSignInByIdentifier failed: %v", err)
	}
	if !result.RequiresTwoFactor() {
		t.Fatalf("expected two-factor challenge, got %v", result)
	}
	if result.Token() == "" || result.User() == nil {
		t.Fatal("challenge result must carry a token and the user")
	}

	claims := parseTokenClaims(t, cfg, result.Token())
	if claims[token.AuthMethodClaim] != cfg.Token.TwoFactorAuthMethod {
		t.Fatalf("expected %q auth method on challenge token, got %v",
			cfg.Token.TwoFactorAuthMethod, claims[token.AuthMethodClaim])
	}
	assertExpWithin(t, claims, cfg.Token.TwoFactorTTL)
}

func TestPasswordSignInTwoFactorSkippedWithoutProviders(t *testing.T) {
	cfg := signInTestConfig(t)
	store := &mockTwoFactorStore{
		mockStore: *aliceStore(),
		enabled:   true,
		providers: nil,
	}
	store.users["alice"].TwoFactorEnabled = true
	engine, _, done := buildTestEngine(t, cfg, store)
	defer done()

	result, err := engine.PasswordSignInByIdentifier(context.Background(), "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordSignInByIdentifier failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected direct success when no provider is valid, got %v", result)
	}
}

func TestPasswordSignInTwoFactorSkippedWhenUserDisabled(t *testing.T) {
	cfg := signInTestConfig(t)
	store := &mockTwoFactorStore{
		mockStore: *aliceStore(),
		enabled:   true,
		providers: []string{"email"},
	}
	engine, _, done := buildTestEngine(t, cfg, store)
	defer done()

	result, err := engine.PasswordSignInByIdentifier(context.Background(), "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordSignInByIdentifier failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected direct success when user has two-factor disabled, got %v", result)
	}
}

func TestBuildRequiresCredentialStore(t *testing.T) {
	cfg := signInTestConfig(t)

	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected Build to fail without a credential store")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	cfg := signInTestConfig(t)
	builder := New().WithConfig(cfg).WithCredentialStore(aliceStore())

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuildWithoutRedisStillSignsIn(t *testing.T) {
	cfg := signInTestConfig(t)
	store := aliceStore()

	engine, err := New().WithConfig(cfg).WithCredentialStore(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	result, err := engine.PasswordSignInByIdentifier(context.Background(), "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordSignInByIdentifier failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected success, got %v", result)
	}
}
