package service

import (
	"context"
	"errors"

	"github.com/iliyamo/cinelog/internal/metrics"
	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/queue"
	"github.com/iliyamo/cinelog/internal/repository"
)

// WatchlistTracker keeps one status row per (user, movie).
type WatchlistTracker struct {
	entries WatchlistStore
	movies  MovieStore
	events  EventPublisher
}

// NewWatchlistTracker wires the tracker to its stores.
func NewWatchlistTracker(entries WatchlistStore, movies MovieStore, events EventPublisher) *WatchlistTracker {
	return &WatchlistTracker{entries: entries, movies: movies, events: events}
}

// SetStatus inserts or updates the entry.  added_at keeps the time of the
// first insert.
func (t *WatchlistTracker) SetStatus(ctx context.Context, userID, movieID uint64, status model.WatchStatus) (model.WatchlistStatus, error) {
	if !status.Valid() {
		return model.WatchlistStatus{}, validation("status must be one of plan_to_watch, watching, completed")
	}
	ok, err := t.movies.Exists(ctx, movieID)
	if err != nil {
		return model.WatchlistStatus{}, err
	}
	if !ok {
		return model.WatchlistStatus{}, notFound("movie not found")
	}
	if err := t.entries.Upsert(ctx, userID, movieID, status); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return model.WatchlistStatus{}, notFound("movie not found")
		}
		return model.WatchlistStatus{}, err
	}

	metrics.WatchlistUpdates.WithLabelValues(string(status)).Inc()
	emit(ctx, t.events, queue.ActivityEvent{
		Type: queue.EventWatchlistSet, UserID: userID, MovieID: movieID, Status: string(status),
	})
	return model.WatchlistStatus{MovieID: movieID, Status: status}, nil
}

// Remove deletes the entry.  Removing an entry that was never added succeeds.
func (t *WatchlistTracker) Remove(ctx context.Context, userID, movieID uint64) error {
	if err := t.entries.Delete(ctx, userID, movieID); err != nil {
		return err
	}
	emit(ctx, t.events, queue.ActivityEvent{Type: queue.EventWatchlistRemoved, UserID: userID, MovieID: movieID})
	return nil
}

// List returns the user's watchlist newest added first.
func (t *WatchlistTracker) List(ctx context.Context, userID uint64) ([]model.WatchlistItem, error) {
	return t.entries.ListByUser(ctx, userID)
}
