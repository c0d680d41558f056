package auth

import (
	"errors"
	"testing"
	"time"
)

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService("   "); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokenIssueVerifyRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewTokenService("test-secret", WithTokenClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	user := User{ID: "user-1", Email: "a@b.c", FirstName: "Ada", LastName: "Lovelace"}
	token, expiresAt, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := now.Add(DefaultTokenTTL); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Email != user.Email {
		t.Fatalf("email = %q, want %q", claims.Email, user.Email)
	}
	if claims.ID == "" {
		t.Fatal("expected non-empty token id")
	}
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	svc, err := NewTokenService("test-secret",
		WithTokenTTL(time.Hour),
		WithTokenClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _, err := svc.Issue(User{ID: "user-1", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock = now.Add(2 * time.Hour)
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	issuer, err := NewTokenService("secret-one")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	verifier, err := NewTokenService("secret-two")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _, err := issuer.Issue(User{ID: "user-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	svc, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	for _, token := range []string{"", "   ", "not.a.jwt", "a.b"} {
		if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}
