package auth

import (
	"errors"
	"testing"
	"time"

	"tally/internal/core"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", "tally", time.Hour)

	token, err := tm.Generate("user-123", "alice")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	userID, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != core.UserID("user-123") {
		t.Errorf("Verify returned %q, want user-123", userID)
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	tm := NewTokenManager("test-secret", "tally", time.Hour)
	other := NewTokenManager("other-secret", "tally", time.Hour)

	token, err := other.Generate("user-123", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tm.Verify(token); !errors.Is(err, core.ErrAuth) {
		t.Errorf("foreign-signed token should fail with ErrAuth, got %v", err)
	}

	if _, err := tm.Verify("not.a.token"); !errors.Is(err, core.ErrAuth) {
		t.Errorf("garbage token should fail with ErrAuth, got %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	tm := NewTokenManager("test-secret", "tally", -time.Minute)

	token, err := tm.Generate("user-123", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tm.Verify(token); !errors.Is(err, core.ErrAuth) {
		t.Errorf("expired token should fail with ErrAuth, got %v", err)
	}
}
