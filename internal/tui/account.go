package tui

import (
	"context"
	"log"

	"github.com/iamasit07/arcade/internal/auth"
)

// GuestAccount logs in by registering a guest with the auth API and hands
// the result to the gate, which owns refresh and persistence.
type GuestAccount struct {
	Client *auth.Client
	Gate   *auth.Gate
}

func (a GuestAccount) Credential() auth.Credential {
	return a.Gate.Credential()
}

func (a GuestAccount) Login(ctx context.Context, displayName string) error {
	cred, err := a.Client.RegisterGuest(ctx, displayName)
	if err != nil {
		return err
	}
	a.Gate.Login(cred)
	return nil
}

// Logout always clears the local credential; a failed server call only
// leaves a refresh token to expire on its own.
func (a GuestAccount) Logout(ctx context.Context) error {
	if err := a.Client.Logout(ctx); err != nil {
		log.Printf("[AUTH] Logout request failed: %v", err)
	}
	a.Gate.Logout()
	return nil
}
