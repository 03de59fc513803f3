package validator

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("bayar@example.mn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, email := range []string{"", "not-an-email", "two words@example.mn", "a@" + strings.Repeat("x", 260) + ".mn"} {
		if err := ValidateEmail(email); err == nil {
			t.Fatalf("expected %q to be rejected", email)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if err := ValidateUsername("bayar_99"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, username := range []string{"ab", "has space", strings.Repeat("a", 31)} {
		if err := ValidateUsername(username); err == nil {
			t.Fatalf("expected %q to be rejected", username)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Secret123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, password := range []string{"short1", "lettersonly", "12345678"} {
		if err := ValidatePassword(password); err == nil {
			t.Fatalf("expected %q to be rejected", password)
		}
	}
}
