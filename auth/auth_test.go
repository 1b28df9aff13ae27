package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	v := NewJWTVerifier("test-secret")

	token, err := v.Sign("player-42", time.Hour)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	uid, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if uid != "player-42" {
		t.Errorf("expected player-42, got %s", uid)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _ := NewJWTVerifier("secret-a").Sign("player-42", time.Hour)

	if _, err := NewJWTVerifier("secret-b").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	token, _ := v.Sign("player-42", -time.Minute)

	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for an expired token, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	if _, err := v.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
