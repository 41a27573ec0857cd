package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, s Store, username string) *User {
	t.Helper()
	u := &User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: username,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func newTestPost(t *testing.T, s Store, authorID string) *Post {
	t.Helper()
	p := &Post{
		ID:       uuid.NewString(),
		Title:    "a post",
		Content:  "some content",
		Category: "philosophy",
		AuthorID: authorID,
	}
	require.NoError(t, s.CreatePost(context.Background(), p))
	return p
}

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	alice := newTestUser(t, s, "alice")

	t.Run("new users start at level 1 with zero points", func(t *testing.T) {
		got, err := s.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.PhilosophyLevel)
		assert.Equal(t, 0, got.ConvictionPoints)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		err := s.CreateUser(ctx, &User{ID: uuid.NewString(), Username: "alice", DisplayName: "Other Alice"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := s.GetUser(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStoreFeed(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	alice := newTestUser(t, s, "alice")

	ids := make([]string, 5)
	for i := range ids {
		p := newTestPost(t, s, alice.ID)
		ids[i] = p.ID
	}

	t.Run("newest first", func(t *testing.T) {
		feed, err := s.ListFeed(ctx, 0, 20)
		require.NoError(t, err)
		require.Len(t, feed, 5)
		assert.Equal(t, ids[4], feed[0].ID)
		assert.Equal(t, ids[0], feed[4].ID)
	})

	t.Run("skip and limit", func(t *testing.T) {
		feed, err := s.ListFeed(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, ids[3], feed[0].ID)
		assert.Equal(t, ids[2], feed[1].ID)
	})

	t.Run("post requires an existing author", func(t *testing.T) {
		err := s.CreatePost(ctx, &Post{ID: uuid.NewString(), AuthorID: "ghost"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStoreToggleLike(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	alice := newTestUser(t, s, "alice")
	post := newTestPost(t, s, alice.ID)

	t.Run("toggling twice returns to the original count", func(t *testing.T) {
		liked, err := s.ToggleLike(ctx, post.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, liked)

		liked, err = s.ToggleLike(ctx, post.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, liked)

		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.LikesCount)
	})

	t.Run("odd parity leaves the pair liked", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := s.ToggleLike(ctx, post.ID, alice.ID)
			require.NoError(t, err)
		}
		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.LikesCount)
	})

	t.Run("distinct users count separately", func(t *testing.T) {
		bob := newTestUser(t, s, "bob")
		_, err := s.ToggleLike(ctx, post.ID, bob.ID)
		require.NoError(t, err)
		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.LikesCount)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		_, err := s.ToggleLike(ctx, "nope", alice.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent toggles serialize to a consistent state", func(t *testing.T) {
		post := newTestPost(t, s, alice.ID)
		const n = 100 // even number of toggles must cancel out

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.ToggleLike(ctx, post.ID, alice.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.LikesCount)
	})
}

func TestMemoryStoreConvictionCounters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	alice := newTestUser(t, s, "alice")
	post := newTestPost(t, s, alice.ID)

	t.Run("meter increments and reports the author", func(t *testing.T) {
		meter, authorID, err := s.IncrementConviction(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, meter)
		assert.Equal(t, alice.ID, authorID)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		_, _, err := s.IncrementConviction(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no lost updates under concurrency", func(t *testing.T) {
		post := newTestPost(t, s, alice.ID)
		const n = 200

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := s.IncrementConviction(ctx, post.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, n, got.ConvictionMeter)
	})
}

func TestMemoryStoreAwardPoints(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	t.Run("level-up fires exactly at the boundary", func(t *testing.T) {
		u := newTestUser(t, s, "author")

		// 8 points: still level 1
		res, err := s.AwardPoints(ctx, u.ID, 8)
		require.NoError(t, err)
		assert.Equal(t, 8, res.Points)
		assert.Equal(t, 1, res.Level)
		assert.False(t, res.LeveledUp)

		// +2 crosses the boundary
		res, err = s.AwardPoints(ctx, u.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 10, res.Points)
		assert.Equal(t, 2, res.Level)
		assert.True(t, res.LeveledUp)

		// further increments inside the band do not fire again
		res, err = s.AwardPoints(ctx, u.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 12, res.Points)
		assert.Equal(t, 2, res.Level)
		assert.False(t, res.LeveledUp)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		_, err := s.AwardPoints(ctx, "ghost", 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("level-up fires once per boundary under concurrency", func(t *testing.T) {
		u := newTestUser(t, s, "concurrent-author")
		const n = 50 // 100 points total, 10 boundaries

		var mu sync.Mutex
		levelUps := 0

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := s.AwardPoints(ctx, u.ID, 2)
				assert.NoError(t, err)
				if res.LeveledUp {
					mu.Lock()
					levelUps++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, got.ConvictionPoints)
		assert.Equal(t, 11, got.PhilosophyLevel)
		assert.Equal(t, 10, levelUps, "each boundary crossing must report exactly once")
	})
}

func TestMemoryStoreComments(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	alice := newTestUser(t, s, "alice")
	post := newTestPost(t, s, alice.ID)

	for i := 0; i < 3; i++ {
		c := &Comment{
			ID:       uuid.NewString(),
			PostID:   post.ID,
			AuthorID: alice.ID,
			Content:  fmt.Sprintf("comment %d", i),
		}
		require.NoError(t, s.CreateComment(ctx, c))
	}

	t.Run("oldest first", func(t *testing.T) {
		comments, err := s.ListComments(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, comments, 3)
		assert.Equal(t, "comment 0", comments[0].Content)
		assert.Equal(t, "comment 2", comments[2].Content)
	})

	t.Run("comments_count tracks inserts", func(t *testing.T) {
		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.CommentsCount)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		err := s.CreateComment(ctx, &Comment{ID: uuid.NewString(), PostID: "nope", AuthorID: alice.ID})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing author is not found", func(t *testing.T) {
		err := s.CreateComment(ctx, &Comment{ID: uuid.NewString(), PostID: post.ID, AuthorID: "ghost"})
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.CommentsCount, "rejected comment must not count")
	})
}

func TestMemoryStoreNotifications(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	alice := newTestUser(t, s, "alice")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 60; i++ {
		n := &Notification{
			ID:        uuid.NewString(),
			UserID:    alice.ID,
			Message:   fmt.Sprintf("notification %d", i),
			Type:      NotificationLevelUp,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateNotification(ctx, n))
	}

	notifications, err := s.ListNotifications(ctx, alice.ID, 50)
	require.NoError(t, err)
	require.Len(t, notifications, 50, "cap at 50 entries")
	assert.Equal(t, "notification 59", notifications[0].Message, "newest first")
	assert.Equal(t, "notification 10", notifications[49].Message)
	assert.False(t, notifications[0].IsRead, "notifications start unread")
}

func TestMemoryStoreTrending(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	alice := newTestUser(t, s, "alice")

	stale := &Post{
		ID:        uuid.NewString(),
		Title:     "old hit",
		Category:  "philosophy",
		AuthorID:  alice.ID,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, s.CreatePost(ctx, stale))
	for i := 0; i < 5; i++ {
		u := newTestUser(t, s, fmt.Sprintf("liker-%d", i))
		_, err := s.ToggleLike(ctx, stale.ID, u.ID)
		require.NoError(t, err)
	}

	categories := []string{"philosophy", "philosophy", "technology", "life"}
	for i, cat := range categories {
		p := &Post{ID: uuid.NewString(), Title: fmt.Sprintf("post %d", i), Category: cat, AuthorID: alice.ID}
		require.NoError(t, s.CreatePost(ctx, p))
		for j := 0; j <= i; j++ {
			u := newTestUser(t, s, fmt.Sprintf("fan-%d-%d", i, j))
			_, err := s.ToggleLike(ctx, p.ID, u.ID)
			require.NoError(t, err)
		}
	}

	result, err := s.Trending(ctx, time.Now().Add(-24*time.Hour), 10)
	require.NoError(t, err)

	require.Len(t, result.Posts, 4, "stale post falls outside the window")
	assert.Equal(t, "post 3", result.Posts[0].Title, "most liked first")
	assert.Equal(t, map[string]int{"philosophy": 2, "technology": 1, "life": 1}, result.Categories)
}
