package http

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/repository/postgres"
	"github.com/iamasit07/arcade/internal/service/games"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type GameHistory interface {
	GetUserGameHistory(ctx context.Context, username string, limit int) ([]games.Record, error)
	GetGameByID(ctx context.Context, gameID string) (games.Record, error)
}

type HistoryHandler struct {
	Games GameHistory
}

func NewHistoryHandler(history GameHistory) *HistoryHandler {
	return &HistoryHandler{Games: history}
}

type historyItem struct {
	ID               string          `json:"id"`
	GameName         domain.GameName `json:"gameName"`
	OpponentUsername string          `json:"opponentUsername"`
	Result           string          `json:"result"`
	Status           string          `json:"status"`
	MovesCount       int             `json:"movesCount"`
	CreatedAt        time.Time       `json:"createdAt"`
	FinishedAt       time.Time       `json:"finishedAt"`
}

func itemFor(rec games.Record, user string) historyItem {
	item := historyItem{
		ID:         rec.ID,
		GameName:   rec.GameName,
		Status:     string(rec.Status),
		MovesCount: rec.Moves,
		CreatedAt:  rec.StartedAt,
		FinishedAt: rec.EndedAt,
	}
	for _, p := range rec.Players {
		if p != user {
			item.OpponentUsername = p
		}
	}
	switch rec.Winner {
	case "":
		item.Result = "draw"
	case user:
		item.Result = "win"
	default:
		item.Result = "loss"
	}
	return item
}

func (h *HistoryHandler) GetHistory(c *gin.Context) {
	user := username(c)
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.Games.GetUserGameHistory(c.Request.Context(), user, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	history := make([]historyItem, 0, len(records))
	for _, rec := range records {
		history = append(history, itemFor(rec, user))
	}
	c.JSON(http.StatusOK, history)
}

func (h *HistoryHandler) GetGameDetails(c *gin.Context) {
	user := username(c)
	rec, err := h.Games.GetGameByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, postgres.ErrGameNotFound) || (err == nil && !slices.Contains(rec.Players, user)) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch game"})
		return
	}

	c.JSON(http.StatusOK, struct {
		historyItem
		Players []string `json:"players"`
		Winner  string   `json:"winner"`
		Board   [][]int  `json:"board_state"`
	}{
		historyItem: itemFor(rec, user),
		Players:     rec.Players,
		Winner:      rec.Winner,
		Board:       rec.Board,
	})
}
