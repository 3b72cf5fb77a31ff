package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cinelog/internal/model"
)

// WatchlistRepo is the storage side of the watchlist tracker.
type WatchlistRepo struct {
	db *sql.DB
}

// NewWatchlistRepo returns a WatchlistRepo bound to db.
func NewWatchlistRepo(db *sql.DB) *WatchlistRepo { return &WatchlistRepo{db: db} }

// Upsert sets the status of the (user, movie) entry.  Only status is
// touched on conflict, so added_at keeps the time of the first insert.
func (r *WatchlistRepo) Upsert(ctx context.Context, userID, movieID uint64, status model.WatchStatus) error {
	const q = `INSERT INTO watchlist (user_id, movie_id, status)
	    VALUES (?, ?, ?)
	    ON DUPLICATE KEY UPDATE status = VALUES(status)`
	_, err := r.db.ExecContext(ctx, q, userID, movieID, string(status))
	return classify(err)
}

// Delete removes the entry if present.  Deleting a missing entry is not an
// error.
func (r *WatchlistRepo) Delete(ctx context.Context, userID, movieID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM watchlist WHERE user_id = ? AND movie_id = ?", userID, movieID)
	return err
}

// ListByUser returns the user's entries newest added first, joined with
// movie title, year and poster.
func (r *WatchlistRepo) ListByUser(ctx context.Context, userID uint64) ([]model.WatchlistItem, error) {
	const q = `SELECT w.movie_id, w.status, w.added_at, m.title, m.year, m.poster_url
	    FROM watchlist w
	    JOIN movies m ON m.id = w.movie_id
	    WHERE w.user_id = ?
	    ORDER BY w.added_at DESC, w.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.WatchlistItem, 0)
	for rows.Next() {
		var (
			it     model.WatchlistItem
			status string
			year   sql.NullInt64
			poster sql.NullString
		)
		if err := rows.Scan(&it.MovieID, &status, &it.AddedAt, &it.Title, &year, &poster); err != nil {
			return nil, err
		}
		it.Status = model.WatchStatus(status)
		if year.Valid {
			y := int(year.Int64)
			it.Year = &y
		}
		it.PosterURL = nullStringPtr(poster)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
