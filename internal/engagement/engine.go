package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/agora/internal/store"
)

// ConvictionResult reports the outcome of a conviction event.
type ConvictionResult struct {
	NewMeter  int
	AuthorID  string
	LeveledUp bool
	NewLevel  int
}

// Engine applies conviction events: one meter tick on the post, one point to
// the actor, two to the author, and a level-up dispatch when the author
// crosses a boundary. The store's atomic operations carry the concurrency
// guarantees; the engine only sequences them.
type Engine struct {
	store      store.Store
	dispatcher *Dispatcher
}

// NewEngine creates a conviction engine.
func NewEngine(s store.Store, d *Dispatcher) *Engine {
	return &Engine{store: s, dispatcher: d}
}

// ApplyConviction processes one conviction event from actorID on postID.
// Returns store.ErrNotFound if the post is absent. A vanished actor or
// author is skipped silently; conviction is repeatable per pair, there is no
// uniqueness constraint.
func (e *Engine) ApplyConviction(ctx context.Context, actorID, postID string) (ConvictionResult, error) {
	meter, authorID, err := e.store.IncrementConviction(ctx, postID)
	if err != nil {
		return ConvictionResult{}, err
	}
	result := ConvictionResult{NewMeter: meter, AuthorID: authorID}

	// actor side is best effort
	if _, err := e.store.AwardPoints(ctx, actorID, 1); err != nil && !errors.Is(err, store.ErrNotFound) {
		return ConvictionResult{}, fmt.Errorf("failed to award actor points: %w", err)
	}

	points, err := e.store.AwardPoints(ctx, authorID, 2)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result, nil
		}
		return ConvictionResult{}, fmt.Errorf("failed to award author points: %w", err)
	}

	if points.LeveledUp {
		result.LeveledUp = true
		result.NewLevel = points.Level
		if err := e.dispatcher.LevelUp(ctx, authorID, points.Level); err != nil {
			// the conviction itself already counted; notification loss is
			// logged, not surfaced
			log.Error().Err(err).Str("user_id", authorID).Msg("level-up dispatch failed")
		}
	}
	return result, nil
}
