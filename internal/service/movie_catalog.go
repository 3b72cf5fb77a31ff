package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinelog/internal/catalog"
	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/queue"
	"github.com/iliyamo/cinelog/internal/repository"
)

// minMovieYear is the earliest release year accepted for manual adds.
const minMovieYear = 1880

// AddMovieInput is a manually entered catalog entry.
type AddMovieInput struct {
	Title       string
	Year        *int
	Genre       string
	Description string
	PosterURL   string
}

// MovieCatalog serves catalog listing, detail and manual adds, plus
// external search.  Every movie it returns carries a rating aggregate
// computed by the store at read time.
type MovieCatalog struct {
	movies   MovieStore
	external Catalog
	events   EventPublisher
	now      func() time.Time
}

// NewMovieCatalog wires the catalog service.
func NewMovieCatalog(movies MovieStore, external Catalog, events EventPublisher) *MovieCatalog {
	return &MovieCatalog{movies: movies, external: external, events: events, now: time.Now}
}

// List returns all movies newest first, optionally filtered by search.
func (s *MovieCatalog) List(ctx context.Context, search string) ([]model.Movie, error) {
	return s.movies.List(ctx, search)
}

// Get returns one movie.
func (s *MovieCatalog) Get(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := s.movies.GetByID(ctx, id)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return model.Movie{}, notFound("movie not found")
	}
	return m, err
}

// Add stores a manually entered movie owned by userID.
func (s *MovieCatalog) Add(ctx context.Context, userID uint64, in AddMovieInput) (model.Movie, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Movie{}, validation("title is required")
	}
	if in.Year != nil {
		if maxYear := s.now().Year() + 5; *in.Year < minMovieYear || *in.Year > maxYear {
			return model.Movie{}, validation("year is out of range")
		}
	}
	var poster *string
	if p := strings.TrimSpace(in.PosterURL); p != "" {
		poster = &p
	}

	id, err := s.movies.Create(ctx, model.NewMovie{
		Title:       title,
		Year:        in.Year,
		Genre:       strings.TrimSpace(in.Genre),
		Description: strings.TrimSpace(in.Description),
		PosterURL:   poster,
		CreatedBy:   &userID,
	})
	if err != nil {
		return model.Movie{}, err
	}
	m, err := s.movies.GetByID(ctx, id)
	if err != nil {
		return model.Movie{}, err
	}
	emit(ctx, s.events, queue.ActivityEvent{Type: queue.EventMovieAdded, UserID: userID, MovieID: id})
	return m, nil
}

// SearchResult is the external search answer returned to clients.
type SearchResult struct {
	Movies []model.ExternalMovie `json:"movies"`
	Total  int                   `json:"total"`
	Query  string                `json:"query"`
}

// SearchExternal queries the external catalog.
func (s *MovieCatalog) SearchExternal(ctx context.Context, query string) (SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return SearchResult{}, validation("q is required")
	}
	res, err := s.external.Search(ctx, q)
	if err != nil {
		return SearchResult{}, catalogError(err)
	}
	return SearchResult{Movies: res.Movies, Total: res.Total, Query: q}, nil
}

// catalogError translates external catalog failures into service errors.
func catalogError(err error) error {
	var apiErr *catalog.APIError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return &Error{Kind: ErrNotFound, Message: "external movie not found", Err: err}
	case errors.Is(err, catalog.ErrNotConfigured):
		return upstream("external catalog is not configured", err)
	case errors.Is(err, catalog.ErrUnavailable):
		return upstream("external catalog is temporarily unavailable", err)
	case errors.As(err, &apiErr):
		return upstream(apiErr.Message, err)
	}
	return upstream("external catalog request failed", err)
}
