package model

import "time"

// WatchStatus is the state of a watchlist entry.
type WatchStatus string

const (
	StatusPlanToWatch WatchStatus = "plan_to_watch"
	StatusWatching    WatchStatus = "watching"
	StatusCompleted   WatchStatus = "completed"
)

// Valid reports whether s is one of the three allowed statuses.
func (s WatchStatus) Valid() bool {
	switch s {
	case StatusPlanToWatch, StatusWatching, StatusCompleted:
		return true
	}
	return false
}

// WatchlistEntry mirrors the `watchlist` table.  AddedAt is set on first
// insert only; later status changes keep it.
type WatchlistEntry struct {
	ID      uint64
	UserID  uint64
	MovieID uint64
	Status  WatchStatus
	AddedAt time.Time
}

// WatchlistItem is an entry joined with the movie columns shown in a user's
// list.
type WatchlistItem struct {
	MovieID   uint64      `json:"movie_id"`
	Status    WatchStatus `json:"status"`
	AddedAt   time.Time   `json:"added_at"`
	Title     string      `json:"title"`
	Year      *int        `json:"year"`
	PosterURL *string     `json:"poster_url"`
}

// WatchlistStatus is the result of setting a status.
type WatchlistStatus struct {
	MovieID uint64      `json:"movieId"`
	Status  WatchStatus `json:"status"`
}
