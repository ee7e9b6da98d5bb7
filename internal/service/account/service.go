package account

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iamasit07/arcade/internal/config"
	"github.com/iamasit07/arcade/pkg/auth"
	"github.com/iamasit07/arcade/pkg/uid"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	emailSetupKeyPrefix   = "email_setup:"
	passCodeKeyPrefix     = "pass_code:"
	loginCodeKeyPrefix    = "login_code:"
)

const (
	DefaultCodeTTL = 10 * time.Minute
	guestAttempts  = 3
)

// Session is what a successful login hands back to the HTTP layer: the
// account plus both tokens and their expiries.
type Session struct {
	User       *User
	Access     string
	AccessExp  time.Time
	Refresh    string
	RefreshExp time.Time
}

// Service implements guest registration, email upgrade, passwords, and
// the rotating refresh token flow.
type Service struct {
	users      UserRepository
	cache      CacheRepository
	mailer     Mailer
	codeTTL    time.Duration
	bcryptCost int
}

func NewService(users UserRepository, cache CacheRepository, mailer Mailer) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	cost := 0
	if config.AppConfig != nil {
		cost = config.AppConfig.BcryptCost
	}
	return &Service{
		users:      users,
		cache:      cache,
		mailer:     mailer,
		codeTTL:    DefaultCodeTTL,
		bcryptCost: cost,
	}
}

func (s *Service) login(ctx context.Context, user *User) (*Session, error) {
	access, accessExp, err := auth.GenerateAccessToken(user.Username, user.DisplayName, user.AccountType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %v", err)
	}

	refresh := auth.NewRefreshToken()
	refreshTTL := config.AppConfig.RefreshTTL()
	if err := s.cache.Set(ctx, refreshTokenKeyPrefix+refresh, user.Username, refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %v", err)
	}

	return &Session{
		User:       user,
		Access:     access,
		AccessExp:  accessExp,
		Refresh:    refresh,
		RefreshExp: time.Now().Add(refreshTTL),
	}, nil
}

// CreateGuest registers a throwaway account under displayName and logs it
// in.
func (s *Service) CreateGuest(ctx context.Context, displayName string) (*Session, error) {
	for attempt := 0; attempt < guestAttempts; attempt++ {
		user := &User{
			Username:    uid.GuestUsername(displayName),
			DisplayName: displayName,
			AccountType: AccountGuest,
		}
		err := s.users.CreateUser(ctx, user)
		if errors.Is(err, ErrUserExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create guest user: %w", err)
		}
		log.Printf("[AUTH] Guest %s registered as %s", displayName, user.Username)
		return s.login(ctx, user)
	}
	return nil, fmt.Errorf("failed to create guest user: %w", ErrUserExists)
}

// Refresh trades a refresh token for a new pair. The old token stops
// working.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	key := refreshTokenKeyPrefix + refreshToken
	username, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefresh, err)
	}
	if err := s.cache.Del(ctx, key); err != nil {
		log.Printf("[AUTH] Failed to revoke used refresh token for %s: %v", username, err)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefresh, err)
	}
	return s.login(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	key := refreshTokenKeyPrefix + refreshToken
	username, err := s.cache.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRefresh, err)
	}
	if err := s.cache.Del(ctx, key); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %v", err)
	}
	log.Printf("[AUTH] %s logged out", username)
	return nil
}

func (s *Service) sendCode(ctx context.Context, key, value, to, purpose string) error {
	code := uid.LoginCode()
	if value == "" {
		value = code
	}
	if err := s.cache.Set(ctx, key+code, value, s.codeTTL); err != nil {
		return fmt.Errorf("failed to store %s code: %v", purpose, err)
	}
	if err := s.mailer.SendCode(to, purpose, code); err != nil {
		return fmt.Errorf("failed to send %s code: %v", purpose, err)
	}
	return nil
}

// takeCode consumes a one-time code, returning the value stored with it.
func (s *Service) takeCode(ctx context.Context, key, code string) (string, error) {
	value, err := s.cache.Get(ctx, key+code)
	if err != nil {
		return "", ErrInvalidCode
	}
	if err := s.cache.Del(ctx, key+code); err != nil {
		log.Printf("[AUTH] Failed to delete used code: %v", err)
	}
	return value, nil
}

// SetupEmail starts the guest upgrade by mailing a confirmation code.
func (s *Service) SetupEmail(ctx context.Context, username, email string) error {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.AccountType != AccountGuest {
		return ErrAlreadyVerified
	}
	email = strings.ToLower(email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	}
	return s.sendCode(ctx, emailSetupKeyPrefix+username+":", email, email, "email setup")
}

// VerifyEmail finishes the upgrade and issues tokens for the new account
// type.
func (s *Service) VerifyEmail(ctx context.Context, username, code string) (*Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.AccountType != AccountGuest {
		return nil, ErrAlreadyVerified
	}
	email, err := s.takeCode(ctx, emailSetupKeyPrefix+username+":", code)
	if err != nil {
		return nil, err
	}

	user.Email = email
	user.AccountType = AccountEmail
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upgrade user: %w", err)
	}
	log.Printf("[AUTH] %s verified %s", username, email)
	return s.login(ctx, user)
}

// RequestPassCode mails the code that authorizes setting a password.
func (s *Service) RequestPassCode(ctx context.Context, username string) error {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.Email == "" {
		return ErrNoEmail
	}
	return s.sendCode(ctx, passCodeKeyPrefix+username+":", "", user.Email, "password")
}

func (s *Service) SetPassword(ctx context.Context, username, password, code string) (*Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, err := s.takeCode(ctx, passCodeKeyPrefix+username+":", code); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	user.PasswordHash = hash
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	return s.login(ctx, user)
}

// SendLoginCode mails a login code. Unknown addresses succeed silently so
// the endpoint does not reveal which emails are registered.
func (s *Service) SendLoginCode(ctx context.Context, email string) error {
	email = strings.ToLower(email)
	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		log.Printf("[AUTH] Login code requested for unknown email %s", email)
		return nil
	}
	return s.sendCode(ctx, loginCodeKeyPrefix+email+":", "", email, "login")
}

func (s *Service) LoginWithCode(ctx context.Context, email, code string) (*Session, error) {
	email = strings.ToLower(email)
	if _, err := s.takeCode(ctx, loginCodeKeyPrefix+email+":", code); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.login(ctx, user)
}

func (s *Service) LoginWithPassword(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return s.login(ctx, user)
}
