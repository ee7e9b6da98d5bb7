package websocket

import (
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/iamasit07/arcade/internal/service/live"
	"github.com/iamasit07/arcade/pkg/auth"
	"github.com/iamasit07/arcade/pkg/httputil"
	"github.com/iamasit07/arcade/pkg/useragent"
)

type Options struct {
	SendBuffer     int
	PingInterval   time.Duration
	MaxMessageSize int64
	// AllowedOrigins is checked against browser Origin headers. Requests
	// without one, such as the terminal client, are let through.
	AllowedOrigins []string
}

// Handler upgrades authenticated requests and attaches them to the hub.
type Handler struct {
	Hub      *live.Hub
	Upgrader websocket.Upgrader
	opts     Options
}

func NewHandler(hub *live.Hub, opts Options) *Handler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	h := &Handler{Hub: hub, opts: opts}
	h.Upgrader = websocket.Upgrader{
		CheckOrigin:     h.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.opts.AllowedOrigins, origin) {
		return true
	}
	log.Printf("[WS] Rejected origin %q", origin)
	return false
}

// Serve adapts the handler to gin.
func (h *Handler) Serve(c *gin.Context) {
	h.HandleWebSocket(c.Writer, c.Request)
}

// HandleWebSocket checks the access token before upgrading; the handshake
// carries it as a cookie or bearer header.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token, err := httputil.GetTokenFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateAccessToken(token)
	if err != nil {
		log.Printf("[WS] Invalid token on upgrade: %v", err)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	log.Printf("[WS] %s connected from %s (%s)", claims.Username, useragent.ClientIP(r), useragent.Describe(r))
	client := newClient(conn, claims.Username, claims.DisplayName, h.opts.SendBuffer)
	h.Hub.Register(client)
	go client.writePump(h.opts.PingInterval)
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.Hub.Unregister(c)
		c.Close()
	}()

	readWait := 2 * h.opts.PingInterval
	if h.opts.MaxMessageSize > 0 {
		c.conn.SetReadLimit(h.opts.MaxMessageSize)
	}
	c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] %s disconnected unexpectedly: %v", c.id, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		h.Hub.Handle(c, data)
	}
}
