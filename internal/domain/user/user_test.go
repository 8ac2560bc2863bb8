package user

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/cinesearch/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))

	u, err := New("  alice ", " alice@example.com ", "$2a$10$hash", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Username() != "alice" {
		t.Errorf("Username() = %q, want trimmed", u.Username())
	}
	if u.Email() != "alice@example.com" {
		t.Errorf("Email() = %q, want trimmed", u.Email())
	}
	if u.ID() != "" {
		t.Errorf("ID() = %q, want empty before persistence", u.ID())
	}
	if u.CreatedAt().Location() != time.UTC {
		t.Error("CreatedAt should be UTC")
	}
}

func TestNew_MissingHash(t *testing.T) {
	_, err := New("alice", "alice@example.com", "", time.Now())
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWithID(t *testing.T) {
	u, _ := New("alice", "alice@example.com", "h", time.Now())
	withID := u.WithID("abc")
	if withID.ID() != "abc" || withID.Username() != "alice" {
		t.Errorf("unexpected copy: id=%q username=%q", withID.ID(), withID.Username())
	}
	if u.ID() != "" {
		t.Error("original should not change")
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"ok", "alice_01", false},
		{"dots and dashes", "a.b-c", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 33), true},
		{"space", "al ice", true},
		{"unicode", "алиса", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUsername(tc.input)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateUsername(%q) err = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"a@b.c", false},
		{"", true},
		{"no-at-sign", true},
		{"@host", true},
		{"user@", true},
		{"a b@c.d", true},
	}
	for _, tc := range tests {
		err := ValidateEmail(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ValidateEmail(%q) err = %v, wantErr %v", tc.input, err, tc.wantErr)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("expected error for short password")
	}
	if err := ValidatePassword(strings.Repeat("x", 73)); err == nil {
		t.Error("expected error for password over bcrypt limit")
	}
	if err := ValidatePassword("correct horse"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
