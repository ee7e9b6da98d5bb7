package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/arcade/internal/domain"
	"github.com/iamasit07/arcade/internal/service/live"
)

type RoomLister interface {
	Overview() []live.RoomSummary
}

type RoomsHandler struct {
	Rooms RoomLister
}

func NewRoomsHandler(rooms RoomLister) *RoomsHandler {
	return &RoomsHandler{Rooms: rooms}
}

type roomGameResponse struct {
	GameName domain.GameName   `json:"gameName"`
	Players  []string          `json:"players"`
	Status   domain.GameStatus `json:"status"`
	Turn     string            `json:"turn,omitempty"`
}

type roomResponse struct {
	Name    string            `json:"name"`
	Members int               `json:"members"`
	Game    *roomGameResponse `json:"game,omitempty"`
}

// GetRooms lists open rooms so a player can pick a game to join or watch.
func (h *RoomsHandler) GetRooms(c *gin.Context) {
	rooms := h.Rooms.Overview()

	response := make([]roomResponse, 0, len(rooms))
	for _, r := range rooms {
		item := roomResponse{Name: r.Name, Members: r.Members}
		if g := r.Game; g != nil {
			item.Game = &roomGameResponse{
				GameName: g.GameName,
				Players:  g.Players,
				Status:   g.Status,
			}
			if g.Status == domain.StatusInProgress {
				item.Game.Turn = g.TurnPlayer()
			}
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, response)
}
