package engagement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agora/internal/store"
)

// LiveSender delivers a level-up frame to a connected user. Returns false
// when the user is offline; that is a normal outcome, not a failure.
type LiveSender interface {
	SendLevelUp(userID string, newLevel int, message string) bool
}

// Dispatcher turns engagement transitions into durable notification records
// and routes them to live connections. Persistence is unconditional; live
// delivery is best effort.
type Dispatcher struct {
	store store.Store
	live  LiveSender
}

// NewDispatcher creates a dispatcher. live may be nil when no realtime layer
// is attached (everything degrades to durable-only).
func NewDispatcher(s store.Store, live LiveSender) *Dispatcher {
	return &Dispatcher{store: s, live: live}
}

// LevelUp records a level-up notification for the user and attempts live
// delivery. The returned error covers persistence only.
func (d *Dispatcher) LevelUp(ctx context.Context, userID string, newLevel int) error {
	message := fmt.Sprintf("Reached philosophy level %d!", newLevel)
	n := &store.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   "Level up!",
		Message: message,
		Type:    store.NotificationLevelUp,
	}
	if err := d.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to persist level-up notification: %w", err)
	}

	if d.live == nil || !d.live.SendLevelUp(userID, newLevel, message) {
		log.Debug().Str("user_id", userID).Int("level", newLevel).
			Msg("level-up recipient offline, durable notification only")
	}
	return nil
}
