package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour)
	token, exp, err := tm.GenerateToken("user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Fatalf("unexpected expiry %v", exp)
	}

	subject, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user" {
		t.Fatalf("expected subject user, got %q", subject)
	}
}

func TestDefaultTTLIsThirtyDays(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 0)
	_, exp, err := tm.GenerateToken("user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	remaining := time.Until(exp)
	if remaining < 30*24*time.Hour-time.Minute || remaining > 30*24*time.Hour {
		t.Fatalf("expected ~30 days, got %v", remaining)
	}
}

func TestExpiredToken(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour)
	token, _, err := tm.GenerateTokenWithTTL("user", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = tm.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestWrongSignature(t *testing.T) {
	t.Parallel()

	token, _, err := NewTokenManager("other-secret", time.Hour).GenerateToken("user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = NewTokenManager("secret", time.Hour).Verify(token)
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestGarbageToken(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("secret", time.Hour).Verify("not-a-jwt")
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestRejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := jwt.RegisteredClaims{
		Subject:   "user",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = NewTokenManager("secret", time.Hour).Verify(token)
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}
