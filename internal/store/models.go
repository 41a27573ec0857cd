package store

import "time"

// User represents a registered member of the network
type User struct {
	ID               string    `json:"id" db:"id"`
	Username         string    `json:"username" db:"username"`
	DisplayName      string    `json:"display_name" db:"display_name"`
	Bio              string    `json:"bio,omitempty" db:"bio"`
	AvatarURL        string    `json:"avatar_url,omitempty" db:"avatar_url"`
	PhilosophyLevel  int       `json:"philosophy_level" db:"philosophy_level"`
	ConvictionPoints int       `json:"conviction_points" db:"conviction_points"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Post represents a published post in the feed
type Post struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Content         string    `json:"content" db:"content"`
	Category        string    `json:"category" db:"category"`
	AuthorID        string    `json:"author_id" db:"author_id"`
	LikesCount      int       `json:"likes_count" db:"likes_count"`
	CommentsCount   int       `json:"comments_count" db:"comments_count"`
	ConvictionMeter int       `json:"conviction_meter" db:"conviction_meter"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Comment represents a comment on a post, ordered oldest first per post
type Comment struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"post_id" db:"post_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Notification types
const (
	NotificationLike       = "like"
	NotificationComment    = "comment"
	NotificationConviction = "conviction"
	NotificationLevelUp    = "level_up"
)

// Notification is a durable per-user notification record. It is the fallback
// channel when the recipient has no live connection at delivery time.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PointsResult reports the outcome of an atomic conviction-points award.
// LeveledUp is true only for the single award that crossed the boundary.
type PointsResult struct {
	Points    int
	Level     int
	LeveledUp bool
}

// LevelForPoints derives the philosophy level from a points total.
func LevelForPoints(points int) int {
	return points/10 + 1
}
