package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store implementation. It backs tests and the
// api server's --memory mode. A single mutex spans each operation, which
// gives every counter mutation the same atomicity the Postgres store gets
// from transactions.
type MemoryStore struct {
	mu            sync.Mutex
	users         map[string]*User
	usernames     map[string]string // username -> user id
	posts         map[string]*Post
	postOrder     []string // insertion order, oldest first
	likes         map[string]map[string]bool
	comments      map[string][]*Comment
	notifications map[string][]*Notification
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*User),
		usernames:     make(map[string]string),
		posts:         make(map[string]*Post),
		likes:         make(map[string]map[string]bool),
		comments:      make(map[string][]*Comment),
		notifications: make(map[string][]*Notification),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[u.Username]; taken {
		return ErrConflict
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.PhilosophyLevel == 0 {
		u.PhilosophyLevel = 1
	}
	cp := *u
	s.users[u.ID] = &cp
	s.usernames[u.Username] = u.ID
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) CreatePost(ctx context.Context, p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[p.AuthorID]; !ok {
		return ErrNotFound
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	s.posts[p.ID] = &cp
	s.postOrder = append(s.postOrder, p.ID)
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListFeed(ctx context.Context, skip, limit int) ([]*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	feed := make([]*Post, 0, limit)
	// newest first
	for i := len(s.postOrder) - 1 - skip; i >= 0 && len(feed) < limit; i-- {
		cp := *s.posts[s.postOrder[i]]
		feed = append(feed, &cp)
	}
	return feed, nil
}

func (s *MemoryStore) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return false, ErrNotFound
	}
	pairs := s.likes[postID]
	if pairs == nil {
		pairs = make(map[string]bool)
		s.likes[postID] = pairs
	}
	if pairs[userID] {
		delete(pairs, userID)
		p.LikesCount--
		return false, nil
	}
	pairs[userID] = true
	p.LikesCount++
	return true, nil
}

func (s *MemoryStore) IncrementConviction(ctx context.Context, postID string) (int, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return 0, "", ErrNotFound
	}
	p.ConvictionMeter++
	return p.ConvictionMeter, p.AuthorID, nil
}

func (s *MemoryStore) AwardPoints(ctx context.Context, userID string, delta int) (PointsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return PointsResult{}, ErrNotFound
	}
	u.ConvictionPoints += delta
	res := PointsResult{Points: u.ConvictionPoints, Level: u.PhilosophyLevel}
	if next := LevelForPoints(u.ConvictionPoints); next > u.PhilosophyLevel {
		u.PhilosophyLevel = next
		res.Level = next
		res.LeveledUp = true
	}
	return res, nil
}

func (s *MemoryStore) CreateComment(ctx context.Context, c *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[c.PostID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := s.users[c.AuthorID]; !ok {
		return ErrNotFound
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	s.comments[c.PostID] = append(s.comments[c.PostID], &cp)
	p.CommentsCount++
	return nil
}

func (s *MemoryStore) ListComments(ctx context.Context, postID string) ([]*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.comments[postID]
	out := make([]*Comment, 0, len(src))
	for _, c := range src {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) CreateNotification(ctx context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	cp := *n
	s.notifications[n.UserID] = append(s.notifications[n.UserID], &cp)
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.notifications[userID]
	out := make([]*Notification, 0, limit)
	// newest first; insertion order is creation order
	for i := len(src) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *src[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) Trending(ctx context.Context, since time.Time, limit int) (*TrendingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := make([]*Post, 0)
	for _, id := range s.postOrder {
		p := s.posts[id]
		if p.CreatedAt.Before(since) {
			continue
		}
		cp := *p
		recent = append(recent, &cp)
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].LikesCount > recent[j].LikesCount
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}

	categories := make(map[string]int)
	for _, p := range recent {
		categories[p.Category]++
	}
	return &TrendingResult{Posts: recent, Categories: categories}, nil
}
