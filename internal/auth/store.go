package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const identitySchema = `
CREATE TABLE IF NOT EXISTS identity (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	username TEXT NOT NULL,
	display_name TEXT NOT NULL,
	account_type TEXT NOT NULL,
	access_exp INTEGER NOT NULL
);
`

// Store persists the single logged-in identity in a local sqlite file.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open identity store: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open identity store: %w", err)
	}
	if _, err := db.Exec(identitySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create identity table: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns the saved identity, or ok=false when nobody is logged in.
func (s *Store) Load() (Credential, bool, error) {
	var c Credential
	var exp int64
	err := s.db.QueryRow(
		`SELECT username, display_name, account_type, access_exp FROM identity WHERE id = 1`,
	).Scan(&c.Username, &c.DisplayName, &c.AccountType, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, err
	}
	if exp > 0 {
		c.AccessExp = time.UnixMilli(exp)
	}
	return c, true, nil
}

func (s *Store) Save(c Credential) error {
	var exp int64
	if !c.AccessExp.IsZero() {
		exp = c.AccessExp.UnixMilli()
	}
	_, err := s.db.Exec(`
		INSERT INTO identity (id, username, display_name, account_type, access_exp)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			account_type = excluded.account_type,
			access_exp = excluded.access_exp`,
		c.Username, c.DisplayName, c.AccountType, exp)
	if err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}

func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM identity`); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	log.Printf("[SESSION] Cleared persisted identity")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
