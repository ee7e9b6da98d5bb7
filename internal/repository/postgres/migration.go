package postgres

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	account_type  TEXT NOT NULL,
	email         TEXT UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	games_played  INTEGER NOT NULL DEFAULT 0,
	games_won     INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS game (
	game_id          TEXT PRIMARY KEY,
	game_name        TEXT NOT NULL,
	player1_username TEXT NOT NULL,
	player2_username TEXT NOT NULL,
	winner_username  TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	total_moves      INTEGER NOT NULL,
	duration_seconds INTEGER NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	finished_at      TIMESTAMPTZ NOT NULL,
	board_state      JSONB
);

CREATE INDEX IF NOT EXISTS game_player1_idx ON game (player1_username);
CREATE INDEX IF NOT EXISTS game_player2_idx ON game (player2_username);
`

// RunMigrations creates the tables if they do not exist yet.
func RunMigrations(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %v", err)
	}
	return nil
}
