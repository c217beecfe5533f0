package utils

import (
	"testing"
)

func TestNewRecordIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewRecordID()
		if id == "" {
			t.Fatal("empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %q after %d iterations", id, i)
		}
		seen[id] = true
	}
}

func TestNewOTPCodeFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := NewOTPCode()
		if len(code) != 6 {
			t.Fatalf("code length: want=6 got=%d (%q)", len(code), code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
	}
}

func TestNewResetTokenNonEmpty(t *testing.T) {
	a, b := NewResetToken(), NewResetToken()
	if a == "" || b == "" {
		t.Fatal("empty token")
	}
	if a == b {
		t.Fatal("two tokens identical")
	}
}
