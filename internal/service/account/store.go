package account

import (
	"context"
	"time"

	"github.com/iamasit07/arcade/internal/domain"
)

const (
	AccountGuest = "guest"
	AccountEmail = "email"
)

const (
	ErrUserExists      domain.Error = "user already exists"
	ErrUserNotFound    domain.Error = "user not found"
	ErrKeyNotFound     domain.Error = "key not found"
	ErrInvalidCode     domain.Error = "invalid or expired code"
	ErrBadCredentials  domain.Error = "invalid email or password"
	ErrAlreadyVerified domain.Error = "email is already set"
	ErrNoEmail         domain.Error = "account has no email"
	ErrEmailTaken      domain.Error = "email is already in use"
	ErrInvalidRefresh  domain.Error = "invalid refresh token"
)

type User struct {
	ID           int64
	Username     string
	DisplayName  string
	AccountType  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository persists accounts. Lookups return ErrUserNotFound when
// nothing matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
}

// CacheRepository holds short-lived keys: refresh tokens and one-time
// codes. Get returns ErrKeyNotFound for a missing or expired key.
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}
