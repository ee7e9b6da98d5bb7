package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/iamasit07/arcade/internal/service/account"
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const uniqueViolation = "23505"

func (r *UserRepo) CreateUser(ctx context.Context, user *account.User) error {
	query := `
	INSERT INTO users (username, display_name, account_type, email, password_hash)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at;
	`
	err := r.DB.QueryRowContext(ctx, query, user.Username, user.DisplayName, user.AccountType,
		nullable(user.Email), user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", account.ErrUserExists, user.Username)
		}
		return fmt.Errorf("failed to create user: %v", err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanUser is a helper that scans a row into a User struct
func scanUser(row interface{ Scan(dest ...any) error }) (*account.User, error) {
	var user account.User
	var email sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.AccountType,
		&email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, account.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	user.Email = email.String
	return &user, nil
}

const userSelectFields = `id, username, display_name, account_type, email, password_hash, created_at`

// GetUserByUsername retrieves a user by username
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*account.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE username = $1;`
	return scanUser(r.DB.QueryRowContext(ctx, query, username))
}

// GetUserByEmail retrieves a user by email
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*account.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM users WHERE LOWER(email) = LOWER($1);`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *UserRepo) UpdateUser(ctx context.Context, user *account.User) error {
	query := `
	UPDATE users
	SET display_name = $2, account_type = $3, email = $4, password_hash = $5
	WHERE username = $1;
	`
	res, err := r.DB.ExecContext(ctx, query, user.Username, user.DisplayName, user.AccountType,
		nullable(user.Email), user.PasswordHash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return account.ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return account.ErrUserNotFound
	}
	return nil
}
