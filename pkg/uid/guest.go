package uid

import (
	"fmt"
	"strings"
)

// GuestUsername builds the unique login name for a guest from the display
// name it picked, e.g. "alice" -> "guest_alice_3f9a1c".
func GuestUsername(displayName string) string {
	return fmt.Sprintf("guest_%s_%s", strings.ToLower(displayName), randomHex(3))
}

// LoginCode returns a six character hex code sent to confirm an email or
// password change.
func LoginCode() string {
	return randomHex(3)
}
