package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // also registers the postgres driver
)

// PostgresStore implements Store on PostgreSQL. Counter mutations use
// single-statement atomic updates; the read-then-conditionally-write level-up
// check runs inside a row-locked transaction so concurrent awards to the same
// user serialize and the boundary crossing is reported exactly once.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects to the database and verifies the connection.
func OpenPostgres(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is empty")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	if u.PhilosophyLevel == 0 {
		u.PhilosophyLevel = 1
	}
	query := `
		INSERT INTO users (id, username, display_name, bio, avatar_url, philosophy_level, conviction_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		u.ID, u.Username, u.DisplayName, u.Bio, u.AvatarURL, u.PhilosophyLevel, u.ConvictionPoints,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, username, display_name, bio, avatar_url, philosophy_level, conviction_points, created_at
		FROM users
		WHERE id = $1
	`
	u := &User{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.Bio, &u.AvatarURL,
		&u.PhilosophyLevel, &u.ConvictionPoints, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, p *Post) error {
	query := `
		INSERT INTO posts (id, title, content, category, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Content, p.Category, p.AuthorID,
	).Scan(&p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (*Post, error) {
	query := `
		SELECT id, title, content, category, author_id, likes_count, comments_count, conviction_meter, created_at
		FROM posts
		WHERE id = $1
	`
	p := &Post{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Content, &p.Category, &p.AuthorID,
		&p.LikesCount, &p.CommentsCount, &p.ConvictionMeter, &p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListFeed(ctx context.Context, skip, limit int) ([]*Post, error) {
	query := `
		SELECT id, title, content, category, author_id, likes_count, comments_count, conviction_meter, created_at
		FROM posts
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ToggleLike serializes concurrent toggles for the same pair by locking the
// post row first, then flipping the like record and the counter in the same
// transaction.
func (s *PostgresStore) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin toggle-like tx: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM posts WHERE id = $1 FOR UPDATE`, postID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to lock post: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	liked := deleted == 0
	if liked {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (post_id, user_id) VALUES ($1, $2)`, postID, userID)
		if err != nil {
			return false, fmt.Errorf("failed to insert like: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET likes_count = likes_count + 1 WHERE id = $1`, postID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET likes_count = likes_count - 1 WHERE id = $1`, postID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update likes_count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit toggle-like tx: %w", err)
	}
	return liked, nil
}

func (s *PostgresStore) IncrementConviction(ctx context.Context, postID string) (int, string, error) {
	query := `
		UPDATE posts
		SET conviction_meter = conviction_meter + 1
		WHERE id = $1
		RETURNING conviction_meter, author_id
	`
	var meter int
	var authorID string
	err := s.db.QueryRowContext(ctx, query, postID).Scan(&meter, &authorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, "", ErrNotFound
		}
		return 0, "", fmt.Errorf("failed to increment conviction meter: %w", err)
	}
	return meter, authorID, nil
}

func (s *PostgresStore) AwardPoints(ctx context.Context, userID string, delta int) (PointsResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PointsResult{}, fmt.Errorf("failed to begin award-points tx: %w", err)
	}
	defer tx.Rollback()

	var points, level int
	err = tx.QueryRowContext(ctx,
		`SELECT conviction_points, philosophy_level FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&points, &level)
	if err != nil {
		if err == sql.ErrNoRows {
			return PointsResult{}, ErrNotFound
		}
		return PointsResult{}, fmt.Errorf("failed to lock user: %w", err)
	}

	points += delta
	res := PointsResult{Points: points, Level: level}
	if next := LevelForPoints(points); next > level {
		res.Level = next
		res.LeveledUp = true
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET conviction_points = $2, philosophy_level = $3 WHERE id = $1`,
		userID, points, res.Level,
	)
	if err != nil {
		return PointsResult{}, fmt.Errorf("failed to update points: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return PointsResult{}, fmt.Errorf("failed to commit award-points tx: %w", err)
	}
	return res, nil
}

func (s *PostgresStore) CreateComment(ctx context.Context, c *Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin comment tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`, c.PostID)
	if err != nil {
		return fmt.Errorf("failed to update comments_count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, c.ID, c.PostID, c.AuthorID, c.Content).Scan(&c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit comment tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListComments(ctx context.Context, postID string) ([]*Comment, error) {
	query := `
		SELECT id, post_id, author_id, content, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*Comment, 0)
	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return comments, nil
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, message, type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query, n.ID, n.UserID, n.Title, n.Message, n.Type).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	// Initialize as empty slice so JSON encodes to [] rather than null
	notifications := make([]*Notification, 0)
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

func (s *PostgresStore) Trending(ctx context.Context, since time.Time, limit int) (*TrendingResult, error) {
	query := `
		SELECT id, title, content, category, author_id, likes_count, comments_count, conviction_meter, created_at
		FROM posts
		WHERE created_at >= $1
		ORDER BY likes_count DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending posts: %w", err)
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]int)
	for _, p := range posts {
		categories[p.Category]++
	}
	return &TrendingResult{Posts: posts, Categories: categories}, nil
}

func scanPosts(rows *sql.Rows) ([]*Post, error) {
	// Initialize as empty slice so JSON encodes to [] rather than null
	posts := make([]*Post, 0)
	for rows.Next() {
		p := &Post{}
		err := rows.Scan(
			&p.ID, &p.Title, &p.Content, &p.Category, &p.AuthorID,
			&p.LikesCount, &p.CommentsCount, &p.ConvictionMeter, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}
