// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Activity event types.
const (
	EventReviewSubmitted  = "review.submitted"
	EventReviewDeleted    = "review.deleted"
	EventWatchlistSet     = "watchlist.set"
	EventWatchlistRemoved = "watchlist.removed"
	EventMovieAdded       = "movie.added"
	EventMovieImported    = "movie.imported"
)

// ActivityEvent is published after a user changes their reviews, watchlist
// or the catalog.  It carries enough for downstream consumers to log or
// trigger analytics without querying the primary database.
type ActivityEvent struct {
	Type     string    `json:"type"`
	UserID   uint64    `json:"user_id"`
	MovieID  uint64    `json:"movie_id,omitempty"`
	ReviewID uint64    `json:"review_id,omitempty"`
	Rating   int       `json:"rating,omitempty"`
	Status   string    `json:"status,omitempty"`
	At       time.Time `json:"at"`
}
