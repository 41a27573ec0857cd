package engagement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora/internal/store"
)

func TestDispatcherLevelUp(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and delivers live when connected", func(t *testing.T) {
		s := store.NewMemoryStore()
		sender := &fakeSender{delivered: true}
		d := NewDispatcher(s, sender)
		u := createUser(t, s, "alice")

		require.NoError(t, d.LevelUp(ctx, u.ID, 3))

		notifications, err := s.ListNotifications(ctx, u.ID, 50)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, store.NotificationLevelUp, notifications[0].Type)
		assert.Equal(t, "Reached philosophy level 3!", notifications[0].Message)
		assert.False(t, notifications[0].IsRead)

		require.Len(t, sender.sent(), 1)
	})

	t.Run("offline recipient still gets a durable record", func(t *testing.T) {
		s := store.NewMemoryStore()
		sender := &fakeSender{delivered: false}
		d := NewDispatcher(s, sender)
		u := createUser(t, s, "alice")

		require.NoError(t, d.LevelUp(ctx, u.ID, 2), "delivery miss is never an error")

		notifications, err := s.ListNotifications(ctx, u.ID, 50)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
	})

	t.Run("nil live sender degrades to durable only", func(t *testing.T) {
		s := store.NewMemoryStore()
		d := NewDispatcher(s, nil)
		u := createUser(t, s, "alice")

		require.NoError(t, d.LevelUp(ctx, u.ID, 2))

		notifications, err := s.ListNotifications(ctx, u.ID, 50)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
	})
}
