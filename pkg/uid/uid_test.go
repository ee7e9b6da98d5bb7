package uid

import (
	"strings"
	"testing"
)

func TestGenerateGameID(t *testing.T) {
	a, b := GenerateGameID(), GenerateGameID()
	if len(a) != 32 {
		t.Errorf("len = %d, want 32", len(a))
	}
	if a == b {
		t.Errorf("two ids collided: %s", a)
	}
}

func TestGuestUsername(t *testing.T) {
	name := GuestUsername("Alice")
	if !strings.HasPrefix(name, "guest_alice_") || len(name) != len("guest_alice_")+6 {
		t.Errorf("GuestUsername = %q", name)
	}
	if code := LoginCode(); len(code) != 6 {
		t.Errorf("LoginCode = %q, want 6 characters", code)
	}
}
