package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors surfaced by store implementations. Handlers map these to
// HTTP statuses; everything else is treated as an internal failure.
var (
	// ErrNotFound means a referenced user or post does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a uniqueness constraint was violated (duplicate username)
	ErrConflict = errors.New("record already exists")
)

// TrendingResult holds the most-liked recent posts and a category histogram
// computed over that same set.
type TrendingResult struct {
	Posts      []*Post        `json:"trending_posts"`
	Categories map[string]int `json:"trending_categories"`
}

// Store is the engagement store: durable records for users, posts, comments
// and notifications, with the counter mutations exposed as atomic operations.
// Concurrent callers of the same mutation must never lose an update, and the
// level-up report from AwardPoints must fire exactly once per boundary
// crossing.
type Store interface {
	// CreateUser persists a new user. Returns ErrConflict if the username
	// is already taken.
	CreateUser(ctx context.Context, u *User) error
	// GetUser returns ErrNotFound if the id does not resolve.
	GetUser(ctx context.Context, id string) (*User, error)

	// CreatePost persists a new post. Returns ErrNotFound if the author
	// does not exist.
	CreatePost(ctx context.Context, p *Post) error
	// GetPost returns ErrNotFound if the id does not resolve.
	GetPost(ctx context.Context, id string) (*Post, error)
	// ListFeed returns posts newest first.
	ListFeed(ctx context.Context, skip, limit int) ([]*Post, error)

	// ToggleLike flips the like state for the (user, post) pair and adjusts
	// likes_count by one in the same atomic unit. Returns the resulting
	// state (true = liked) or ErrNotFound if the post is absent.
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)

	// IncrementConviction adds one to the post's conviction meter and
	// returns the new meter value plus the post's author id. Returns
	// ErrNotFound if the post is absent.
	IncrementConviction(ctx context.Context, postID string) (meter int, authorID string, err error)

	// AwardPoints atomically adds delta conviction points to a user,
	// raising philosophy_level when the new total crosses a boundary.
	// Returns ErrNotFound if the user is absent.
	AwardPoints(ctx context.Context, userID string, delta int) (PointsResult, error)

	// CreateComment persists a comment and increments the post's
	// comments_count atomically. Returns ErrNotFound if the post is absent.
	CreateComment(ctx context.Context, c *Comment) error
	// ListComments returns a post's comments oldest first.
	ListComments(ctx context.Context, postID string) ([]*Comment, error)

	// CreateNotification persists a notification record.
	CreateNotification(ctx context.Context, n *Notification) error
	// ListNotifications returns up to limit notifications for a user,
	// newest first.
	ListNotifications(ctx context.Context, userID string, limit int) ([]*Notification, error)

	// Trending returns the top posts by likes_count created after `since`,
	// plus a category histogram over that set.
	Trending(ctx context.Context, since time.Time, limit int) (*TrendingResult, error)
}
