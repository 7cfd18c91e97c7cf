package session

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("test-secret"), "vehix-admin", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, err := issuer.Issue("u1", "Admin", "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "u1" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	if claims.Role != "admin" {
		t.Fatalf("role = %q, want lower-cased", claims.Role)
	}
	if claims.SessionID != "sess-1" {
		t.Fatalf("session id = %q", claims.SessionID)
	}
}

func TestTokenValidation(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("test-secret"), "vehix-admin", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	if _, err := issuer.Parse(""); err != ErrInvalidToken {
		t.Fatalf("empty token: got %v", err)
	}
	if _, err := issuer.Parse("not.a.token"); err != ErrInvalidToken {
		t.Fatalf("garbage token: got %v", err)
	}

	other, err := NewTokenIssuer([]byte("other-secret"), "vehix-admin", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, err := other.Issue("u1", "admin", "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.Parse(token); err != ErrInvalidToken {
		t.Fatalf("wrong key: got %v", err)
	}

	short, err := NewTokenIssuer([]byte("test-secret"), "vehix-admin", time.Millisecond)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, err = short.Issue("u1", "admin", "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := short.Parse(token); err != ErrInvalidToken {
		t.Fatalf("expired token: got %v", err)
	}

	if _, err := NewTokenIssuer(nil, "vehix-admin", time.Hour); err == nil {
		t.Fatal("empty secret must be rejected")
	}
}
