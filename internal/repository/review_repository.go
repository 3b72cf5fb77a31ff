package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinelog/internal/model"
)

// ReviewRepo is the storage side of the review ledger.  The unique key
// (user_id, movie_id) turns every submission into a single upsert statement.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a ReviewRepo bound to db.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Upsert inserts the review or, when the user already reviewed the movie,
// overwrites rating, text, watched date and updated_at in place.  A missing
// user or movie yields ErrForeignKey.
func (r *ReviewRepo) Upsert(ctx context.Context, in model.ReviewInput) error {
	const q = `INSERT INTO reviews (user_id, movie_id, rating, review_text, watched_on)
	    VALUES (?, ?, ?, ?, ?)
	    ON DUPLICATE KEY UPDATE
	        rating = VALUES(rating),
	        review_text = VALUES(review_text),
	        watched_on = VALUES(watched_on),
	        updated_at = CURRENT_TIMESTAMP(6)`
	var watched any
	if in.WatchedOn != nil {
		watched = in.WatchedOn.Format(model.DateLayout)
	}
	_, err := r.db.ExecContext(ctx, q, in.UserID, in.MovieID, in.Rating, in.ReviewText, watched)
	return classify(err)
}

// GetByUserAndMovie returns the user's review of a movie joined with the
// reviewer's username.
func (r *ReviewRepo) GetByUserAndMovie(ctx context.Context, userID, movieID uint64) (model.Review, error) {
	const q = `SELECT r.id, r.user_id, r.movie_id, r.rating, r.review_text, r.watched_on,
	        r.created_at, r.updated_at, u.username
	    FROM reviews r
	    JOIN users u ON u.id = r.user_id
	    WHERE r.user_id = ? AND r.movie_id = ?`
	var rv model.Review
	err := scanReview(r.db.QueryRowContext(ctx, q, userID, movieID), &rv, &rv.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return rv, ErrReviewNotFound
	}
	return rv, err
}

// DeleteOwned removes a review only when it belongs to userID.  A foreign or
// missing review both yield ErrReviewNotFound.
func (r *ReviewRepo) DeleteOwned(ctx context.Context, reviewID, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ? AND user_id = ?", reviewID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ListByMovie returns a movie's reviews newest first with reviewer usernames.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	const q = `SELECT r.id, r.user_id, r.movie_id, r.rating, r.review_text, r.watched_on,
	        r.created_at, r.updated_at, u.username
	    FROM reviews r
	    JOIN users u ON u.id = r.user_id
	    WHERE r.movie_id = ?
	    ORDER BY r.created_at DESC, r.id DESC`
	return r.list(ctx, q, movieID, func(rv *model.Review) *string { return &rv.Username })
}

// ListByUser returns a user's reviews newest first with movie titles.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	const q = `SELECT r.id, r.user_id, r.movie_id, r.rating, r.review_text, r.watched_on,
	        r.created_at, r.updated_at, m.title
	    FROM reviews r
	    JOIN movies m ON m.id = r.movie_id
	    WHERE r.user_id = ?
	    ORDER BY r.created_at DESC, r.id DESC`
	return r.list(ctx, q, userID, func(rv *model.Review) *string { return &rv.MovieTitle })
}

func (r *ReviewRepo) list(ctx context.Context, q string, id uint64, joined func(*model.Review) *string) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Review, 0)
	for rows.Next() {
		var rv model.Review
		if err := scanReview(rows, &rv, joined(&rv)); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// scanReview reads the common review columns plus one joined string column.
func scanReview(s rowScanner, rv *model.Review, joined *string) error {
	var (
		text    sql.NullString
		watched sql.NullTime
	)
	if err := s.Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Rating, &text, &watched,
		&rv.CreatedAt, &rv.UpdatedAt, joined); err != nil {
		return err
	}
	rv.ReviewText = text.String
	if watched.Valid {
		d := watched.Time.Format(model.DateLayout)
		rv.WatchedOn = &d
	}
	return nil
}
