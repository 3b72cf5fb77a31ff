// Package repository contains data access logic separated from HTTP handlers.
// This file holds the movie catalog queries.  Every read joins the review
// ledger and returns the grouped SUM/COUNT of ratings so the aggregate is
// always derived from the reviews present at read time.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/rating"
)

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// movieSelect is a single grouped pass over movies LEFT JOIN reviews.
// Callers append an optional WHERE clause followed by movieGroup.
const movieSelect = `SELECT m.id, m.title, m.year, m.genre, m.description, m.poster_url,
       m.created_by, m.external_source, m.external_id, m.created_at,
       COALESCE(SUM(r.rating), 0) AS rating_sum, COUNT(r.id) AS review_count
  FROM movies m
  LEFT JOIN reviews r ON r.movie_id = m.id`

const movieGroup = ` GROUP BY m.id`

// Create inserts a new movie and returns its ID.  A second insert with the
// same (external_source, external_id) fails with ErrDuplicate.
func (r *MovieRepo) Create(ctx context.Context, m model.NewMovie) (uint64, error) {
	const q = `INSERT INTO movies
	    (title, year, genre, description, poster_url, created_by, external_source, external_id)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		m.Title, m.Year, m.Genre, m.Description, m.PosterURL, m.CreatedBy, m.ExternalSource, m.ExternalID)
	if err != nil {
		return 0, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Exists reports whether a movie with id is present.
func (r *MovieRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// GetByID returns the movie with its rating aggregate or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	return r.getOne(ctx, movieSelect+" WHERE m.id = ?"+movieGroup, id)
}

// GetByExternal looks a movie up by its provenance key.
func (r *MovieRepo) GetByExternal(ctx context.Context, source, externalID string) (model.Movie, error) {
	return r.getOne(ctx,
		movieSelect+" WHERE m.external_source = ? AND m.external_id = ?"+movieGroup,
		source, externalID)
}

// List returns movies newest first, optionally filtered by a case-insensitive
// substring of title, genre or description.  Aggregates for all rows come
// from the same grouped query.
func (r *MovieRepo) List(ctx context.Context, search string) ([]model.Movie, error) {
	q := movieSelect
	var args []any
	if s := strings.TrimSpace(search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		q += ` WHERE LOWER(m.title) LIKE ? OR LOWER(m.genre) LIKE ? OR LOWER(COALESCE(m.description, '')) LIKE ?`
		args = append(args, pattern, pattern, pattern)
	}
	q += movieGroup + " ORDER BY m.created_at DESC, m.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MovieRepo) getOne(ctx context.Context, q string, args ...any) (model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, ErrMovieNotFound
	}
	return m, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (model.Movie, error) {
	var (
		m                      model.Movie
		year, createdBy        sql.NullInt64
		description, poster    sql.NullString
		extSource, extID       sql.NullString
		ratingSum, reviewCount int64
	)
	if err := s.Scan(&m.ID, &m.Title, &year, &m.Genre, &description, &poster,
		&createdBy, &extSource, &extID, &m.CreatedAt, &ratingSum, &reviewCount); err != nil {
		return model.Movie{}, err
	}
	if year.Valid {
		y := int(year.Int64)
		m.Year = &y
	}
	if createdBy.Valid {
		id := uint64(createdBy.Int64)
		m.CreatedBy = &id
	}
	m.Description = description.String
	m.PosterURL = nullStringPtr(poster)
	m.ExternalSource = nullStringPtr(extSource)
	m.ExternalID = nullStringPtr(extID)

	sum := rating.Summarize(ratingSum, reviewCount)
	m.AvgRating, m.ReviewCount = sum.Average, sum.Count
	return m, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
