package utils

import "testing"

func TestValidateLichessUsername(t *testing.T) {
	valid := []string{"magnus", "DrNykterstein", "user_123", "a-b", "ab"}
	for _, name := range valid {
		if !ValidateLichessUsername(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}

	invalid := []string{"", "a", "bad user", "name!", "héllo", "x1234567890123456789012345678901"}
	for _, name := range invalid {
		if ValidateLichessUsername(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("  magnus\x00  "); got != "magnus" {
		t.Errorf("unexpected output: %q", got)
	}
}
