package auth

import "github.com/google/uuid"

// NewRefreshToken returns an opaque refresh token. The server looks it up
// in its token store; it carries no claims.
func NewRefreshToken() string {
	return uuid.New().String()
}
