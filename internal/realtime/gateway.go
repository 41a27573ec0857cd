package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DefaultSendTimeout bounds each outbound write so one unresponsive client
// cannot stall a broadcast.
const DefaultSendTimeout = 3 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConn adapts a gorilla connection to the registry's Conn interface.
// gorilla allows only one concurrent writer, so writes are serialized here.
type wsConn struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

func (c *wsConn) WriteMessage(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// Gateway is the wire-facing boundary for live connections: it upgrades
// incoming requests, runs each connection's receive loop, and serializes
// application events onto the wire.
type Gateway struct {
	registry    *Registry
	sendTimeout time.Duration
}

// NewGateway creates a gateway over the given registry. A non-positive
// timeout falls back to DefaultSendTimeout.
func NewGateway(registry *Registry, sendTimeout time.Duration) *Gateway {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Gateway{registry: registry, sendTimeout: sendTimeout}
}

// Registry exposes the underlying connection registry for targeted delivery.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Handle is the echo handler for GET /ws/:user_id. It registers the
// connection and blocks on the receive loop until the client goes away.
func (g *Gateway) Handle(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}

	raw, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}

	conn := &wsConn{conn: raw, timeout: g.sendTimeout}
	g.registry.Register(userID, conn)
	log.Info().Str("user_id", userID).Msg("live connection opened")

	defer func() {
		g.registry.Unregister(userID, conn)
		conn.Close()
		log.Info().Str("user_id", userID).Msg("live connection closed")
	}()

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			return nil
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// malformed frames are dropped, not an error
			continue
		}
		switch frame.Type {
		case TypePing:
			if err := conn.WriteMessage(pongFrame); err != nil {
				return nil
			}
		default:
			// unrecognized tags are ignored
		}
	}
}

// BroadcastNewPost announces a freshly published post to every connection.
func (g *Gateway) BroadcastNewPost(postID, authorName, title string) {
	g.broadcast(NewPostEvent{
		Type:   TypeNewPost,
		PostID: postID,
		Author: authorName,
		Title:  title,
	})
}

// BroadcastConvictionUpdate announces a post's new conviction meter value to
// every connection.
func (g *Gateway) BroadcastConvictionUpdate(postID string, newCount int) {
	g.broadcast(ConvictionUpdateEvent{
		Type:     TypeConvictionUpdate,
		PostID:   postID,
		NewCount: newCount,
	})
}

// SendLevelUp delivers a level-up frame to the leveling user. Returns false
// if the user has no live connection.
func (g *Gateway) SendLevelUp(userID string, newLevel int, message string) bool {
	payload, err := json.Marshal(LevelUpEvent{
		Type:     TypeLevelUp,
		NewLevel: newLevel,
		Message:  message,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal level_up event")
		return false
	}
	return g.registry.SendTo(userID, payload)
}

func (g *Gateway) broadcast(event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast event")
		return
	}
	g.registry.Broadcast(payload)
}
