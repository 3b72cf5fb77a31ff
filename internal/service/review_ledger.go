package service

import (
	"context"
	"errors"

	"github.com/iliyamo/cinelog/internal/metrics"
	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/queue"
	"github.com/iliyamo/cinelog/internal/rating"
	"github.com/iliyamo/cinelog/internal/repository"
)

// ReviewLedger owns the one-review-per-(user, movie) rule.  Submitting twice
// overwrites the first review in place.
type ReviewLedger struct {
	reviews ReviewStore
	movies  MovieStore
	events  EventPublisher
}

// NewReviewLedger wires the ledger to its stores.
func NewReviewLedger(reviews ReviewStore, movies MovieStore, events EventPublisher) *ReviewLedger {
	return &ReviewLedger{reviews: reviews, movies: movies, events: events}
}

// Submit upserts the user's review of a movie and returns the stored row
// joined with the reviewer's username.
func (l *ReviewLedger) Submit(ctx context.Context, in model.ReviewInput) (model.Review, error) {
	if !rating.Valid(in.Rating) {
		return model.Review{}, validation("rating must be an integer between 1 and 10")
	}
	ok, err := l.movies.Exists(ctx, in.MovieID)
	if err != nil {
		return model.Review{}, err
	}
	if !ok {
		return model.Review{}, notFound("movie not found")
	}

	if err := l.reviews.Upsert(ctx, in); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			return model.Review{}, notFound("movie not found")
		case errors.Is(err, repository.ErrCheck):
			return model.Review{}, validation("rating must be an integer between 1 and 10")
		}
		return model.Review{}, err
	}
	rv, err := l.reviews.GetByUserAndMovie(ctx, in.UserID, in.MovieID)
	if err != nil {
		return model.Review{}, err
	}

	metrics.ReviewsSubmitted.Inc()
	emit(ctx, l.events, queue.ActivityEvent{
		Type: queue.EventReviewSubmitted, UserID: in.UserID, MovieID: in.MovieID,
		ReviewID: rv.ID, Rating: rv.Rating,
	})
	return rv, nil
}

// Delete removes a review owned by userID.  Someone else's review is
// reported exactly like a missing one.
func (l *ReviewLedger) Delete(ctx context.Context, reviewID, userID uint64) error {
	if err := l.reviews.DeleteOwned(ctx, reviewID, userID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return notFound("review not found")
		}
		return err
	}
	metrics.ReviewsDeleted.Inc()
	emit(ctx, l.events, queue.ActivityEvent{Type: queue.EventReviewDeleted, UserID: userID, ReviewID: reviewID})
	return nil
}

// ListForMovie returns a movie's reviews newest first.
func (l *ReviewLedger) ListForMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	ok, err := l.movies.Exists(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("movie not found")
	}
	return l.reviews.ListByMovie(ctx, movieID)
}

// ListForUser returns the user's reviews with movie titles, newest first.
func (l *ReviewLedger) ListForUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	return l.reviews.ListByUser(ctx, userID)
}
