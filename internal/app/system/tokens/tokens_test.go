package tokens_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/tokens"
)

func newService() *tokens.Service {
	return tokens.New("test-secret-0123456789abcdef0123456789", "projecthub-test", tokens.TTLs{})
}

func TestDefaults(t *testing.T) {
	ttls := newService().TTLs()
	if ttls.Session != 30*24*time.Hour {
		t.Errorf("session TTL: got %v, want 720h", ttls.Session)
	}
	if ttls.Register != 5*time.Minute {
		t.Errorf("register TTL: got %v, want 5m", ttls.Register)
	}
	if ttls.Reset != time.Hour {
		t.Errorf("reset TTL: got %v, want 1h", ttls.Reset)
	}
	if ttls.Invite != 7*24*time.Hour {
		t.Errorf("invite TTL: got %v, want 168h", ttls.Invite)
	}
}

func TestIssueVerify_Session(t *testing.T) {
	svc := newService()
	tok, err := svc.IssueSession("64b000000000000000000001", "customer")
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	c, err := svc.Verify(tok, tokens.PurposeSession)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if c.UserID != "64b000000000000000000001" {
		t.Errorf("UserID: got %q", c.UserID)
	}
	if c.Role != "customer" {
		t.Errorf("Role: got %q, want %q", c.Role, "customer")
	}
}

func TestVerify_Invite(t *testing.T) {
	svc := newService()
	tok, err := svc.IssueInvite("b@x.com", "p1", "m1")
	if err != nil {
		t.Fatalf("IssueInvite failed: %v", err)
	}
	c, err := svc.Verify(tok, tokens.PurposeInvite)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if c.Email != "b@x.com" || c.ProjectID != "p1" || c.MemberID != "m1" {
		t.Errorf("unexpected invite claims: %+v", c)
	}
	if got := c.ExpiresAt.Sub(c.IssuedAt.Time); got != 7*24*time.Hour {
		t.Errorf("invite lifetime: got %v, want 168h", got)
	}
}

func TestVerify_Expired(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newService().WithClock(func() time.Time { return start })

	tok, err := svc.IssueRegistration("a@x.com", "Alice")
	if err != nil {
		t.Fatalf("IssueRegistration failed: %v", err)
	}

	later := svc.WithClock(func() time.Time { return start.Add(5*time.Minute + time.Second) })
	_, err = later.Verify(tok, tokens.PurposeRegister)
	if !errors.Is(err, tokens.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	// Still valid one second before expiry.
	earlier := svc.WithClock(func() time.Time { return start.Add(5*time.Minute - time.Second) })
	if _, err := earlier.Verify(tok, tokens.PurposeRegister); err != nil {
		t.Errorf("expected token to be valid before expiry, got %v", err)
	}
}

func TestVerify_BadSignature(t *testing.T) {
	tok, err := newService().IssueReset("u1")
	if err != nil {
		t.Fatalf("IssueReset failed: %v", err)
	}
	other := tokens.New("another-secret-0123456789abcdef012345", "projecthub-test", tokens.TTLs{})

	_, err = other.Verify(tok, tokens.PurposeReset)
	if !errors.Is(err, tokens.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if errors.Is(err, tokens.ErrExpired) {
		t.Error("signature failure must not be reported as expiry")
	}
}

func TestVerify_Tampered(t *testing.T) {
	svc := newService()
	tok, _ := svc.IssueSession("u1", "customer")
	parts := strings.Split(tok, ".")
	parts[1] += "x"

	if _, err := svc.Verify(strings.Join(parts, "."), tokens.PurposeSession); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("expected ErrInvalid for tampered payload, got %v", err)
	}
}

func TestVerify_WrongPurpose(t *testing.T) {
	svc := newService()
	tok, _ := svc.IssueReset("u1")

	if _, err := svc.Verify(tok, tokens.PurposeSession); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("expected ErrInvalid for a reset token used as session, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	if _, err := newService().Verify("not-a-token", tokens.PurposeSession); !errors.Is(err, tokens.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}
