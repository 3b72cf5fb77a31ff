// Package service holds the domain logic between HTTP handlers and the
// repositories: the review ledger, the watchlist tracker, the movie catalog
// with its import resolver, and accounts.  Every invariant is enforced by a
// single constrained statement in the store, so services never take locks.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/cinelog/internal/catalog"
	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/queue"
)

// MovieStore is implemented by repository.MovieRepo.
type MovieStore interface {
	Create(ctx context.Context, m model.NewMovie) (uint64, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	GetByID(ctx context.Context, id uint64) (model.Movie, error)
	GetByExternal(ctx context.Context, source, externalID string) (model.Movie, error)
	List(ctx context.Context, search string) ([]model.Movie, error)
}

// ReviewStore is implemented by repository.ReviewRepo.
type ReviewStore interface {
	Upsert(ctx context.Context, in model.ReviewInput) error
	GetByUserAndMovie(ctx context.Context, userID, movieID uint64) (model.Review, error)
	DeleteOwned(ctx context.Context, reviewID, userID uint64) error
	ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Review, error)
}

// WatchlistStore is implemented by repository.WatchlistRepo.
type WatchlistStore interface {
	Upsert(ctx context.Context, userID, movieID uint64, status model.WatchStatus) error
	Delete(ctx context.Context, userID, movieID uint64) error
	ListByUser(ctx context.Context, userID uint64) ([]model.WatchlistItem, error)
}

// UserStore is implemented by repository.UserRepo.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (uint64, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is implemented by repository.TokenRepo.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Catalog is the external movie catalog, implemented by *catalog.Client.
type Catalog interface {
	Source() string
	Search(ctx context.Context, query string) (catalog.SearchResult, error)
	Detail(ctx context.Context, externalID string) (model.NewMovie, error)
}

// EventPublisher hands activity events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}
