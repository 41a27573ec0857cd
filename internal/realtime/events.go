package realtime

import "encoding/json"

// Wire frame types. Every frame is a JSON text message with a "type" tag.
const (
	TypePing             = "ping"
	TypePong             = "pong"
	TypeNewPost          = "new_post"
	TypeConvictionUpdate = "conviction_update"
	TypeLevelUp          = "level_up"
)

// NewPostEvent is broadcast to every connection when a post is published.
type NewPostEvent struct {
	Type   string `json:"type"`
	PostID string `json:"post_id"`
	Author string `json:"author"`
	Title  string `json:"title"`
}

// ConvictionUpdateEvent is broadcast after every conviction on a post.
type ConvictionUpdateEvent struct {
	Type     string `json:"type"`
	PostID   string `json:"post_id"`
	NewCount int    `json:"new_count"`
}

// LevelUpEvent is sent only to the user who leveled up.
type LevelUpEvent struct {
	Type     string `json:"type"`
	NewLevel int    `json:"new_level"`
	Message  string `json:"message"`
}

// inboundFrame is the tagged envelope parsed from client messages. Only the
// type field matters; unknown tags are ignored.
type inboundFrame struct {
	Type string `json:"type"`
}

var pongFrame, _ = json.Marshal(map[string]string{"type": TypePong})
