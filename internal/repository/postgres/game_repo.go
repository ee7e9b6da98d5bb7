package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/service/games"
)

type GameRepo struct {
	DB *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{DB: db}
}

// SaveGame stores a finished game and bumps both players' stats in one
// transaction. Saving the same game twice only rewrites the result.
func (r *GameRepo) SaveGame(ctx context.Context, rec games.Record) error {
	if len(rec.Players) != domain.MaxSeats {
		return fmt.Errorf("game %s has %d players, want %d", rec.ID, len(rec.Players), domain.MaxSeats)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	boardJSON, err := json.Marshal(rec.Board)
	if err != nil {
		return fmt.Errorf("failed to marshal board state: %v", err)
	}

	query := `
	INSERT INTO game (game_id, game_name, player1_username, player2_username, winner_username, status, total_moves, duration_seconds, created_at, finished_at, board_state)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (game_id) DO NOTHING;
	`
	duration := int(rec.EndedAt.Sub(rec.StartedAt).Seconds())
	res, err := tx.ExecContext(ctx, query, rec.ID, string(rec.GameName), rec.Players[0], rec.Players[1], rec.Winner,
		string(rec.Status), rec.Moves, duration, rec.StartedAt, rec.EndedAt, boardJSON)
	if err != nil {
		return fmt.Errorf("failed to insert game record: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	for _, player := range rec.Players {
		if err := r.updatePlayerStatsTx(ctx, tx, player, player == rec.Winner); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

// updatePlayerStatsTx is a no-op for players without a users row.
func (r *GameRepo) updatePlayerStatsTx(ctx context.Context, tx *sql.Tx, username string, won bool) error {
	query := `
	UPDATE users
	SET games_played = games_played + 1,
	    games_won = games_won + CASE WHEN $2 THEN 1 ELSE 0 END
	WHERE username = $1;
	`
	if _, err := tx.ExecContext(ctx, query, username, won); err != nil {
		return fmt.Errorf("failed to update player stats in transaction: %v", err)
	}
	return nil
}

const ErrGameNotFound domain.Error = "game not found"

const recordColumns = `game_id, game_name, player1_username, player2_username, winner_username,
	       status, total_moves, created_at, finished_at, board_state`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (games.Record, error) {
	var rec games.Record
	var name, status, p1, p2 string
	var boardJSON []byte
	if err := row.Scan(&rec.ID, &name, &p1, &p2, &rec.Winner, &status, &rec.Moves,
		&rec.StartedAt, &rec.EndedAt, &boardJSON); err != nil {
		return rec, err
	}
	rec.GameName = domain.GameName(name)
	rec.Status = domain.GameStatus(status)
	rec.Players = []string{p1, p2}
	if len(boardJSON) > 0 {
		if err := json.Unmarshal(boardJSON, &rec.Board); err != nil {
			return rec, fmt.Errorf("failed to unmarshal board state: %v", err)
		}
	}
	return rec, nil
}

// GetUserGameHistory lists the games a user played, newest first.
func (r *GameRepo) GetUserGameHistory(ctx context.Context, username string, limit int) ([]games.Record, error) {
	query := `
	SELECT ` + recordColumns + `
	FROM game
	WHERE player1_username = $1 OR player2_username = $1
	ORDER BY finished_at DESC
	LIMIT $2;
	`
	rows, err := r.DB.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game history: %v", err)
	}
	defer rows.Close()

	history := make([]games.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %v", err)
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

func (r *GameRepo) GetGameByID(ctx context.Context, gameID string) (games.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM game WHERE game_id = $1;`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrGameNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("failed to query game: %v", err)
	}
	return rec, nil
}
