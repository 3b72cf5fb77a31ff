package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/cinelog/internal/logging"
	"github.com/iliyamo/cinelog/internal/metrics"
	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/queue"
	"github.com/iliyamo/cinelog/internal/repository"
)

// ImportResolver imports external catalog movies, deduplicated by the
// (external_source, external_id) provenance key.
type ImportResolver struct {
	movies   MovieStore
	external Catalog
	events   EventPublisher
}

// NewImportResolver wires the resolver.
func NewImportResolver(movies MovieStore, external Catalog, events EventPublisher) *ImportResolver {
	return &ImportResolver{movies: movies, external: external, events: events}
}

// Import returns the local movie for externalID, creating it from the
// external catalog when absent.  created reports whether this call inserted
// the row.  Two concurrent imports that both miss the lookup are settled by
// the unique provenance key: the loser re-reads the winner's row.
func (r *ImportResolver) Import(ctx context.Context, userID uint64, externalID string) (m model.Movie, created bool, err error) {
	externalID = strings.TrimSpace(externalID)
	if !isDigits(externalID) {
		return model.Movie{}, false, validation("externalId must be a numeric id")
	}
	source := r.external.Source()

	m, err = r.movies.GetByExternal(ctx, source, externalID)
	if err == nil {
		metrics.CatalogImports.WithLabelValues("existing").Inc()
		return m, false, nil
	}
	if !errors.Is(err, repository.ErrMovieNotFound) {
		return model.Movie{}, false, err
	}

	detail, err := r.external.Detail(ctx, externalID)
	if err != nil {
		metrics.CatalogImports.WithLabelValues("failed").Inc()
		return model.Movie{}, false, catalogError(err)
	}
	if strings.TrimSpace(detail.Title) == "" {
		metrics.CatalogImports.WithLabelValues("failed").Inc()
		return model.Movie{}, false, upstream("external catalog returned a movie without a title", nil)
	}
	detail.CreatedBy = &userID
	detail.ExternalSource = &source
	detail.ExternalID = &externalID

	id, err := r.movies.Create(ctx, detail)
	if errors.Is(err, repository.ErrDuplicate) {
		m, err = r.movies.GetByExternal(ctx, source, externalID)
		if err != nil {
			return model.Movie{}, false, err
		}
		metrics.CatalogImports.WithLabelValues("race").Inc()
		logging.Ctx(ctx).Debug().Str("external_id", externalID).Msg("concurrent import resolved by unique key")
		return m, false, nil
	}
	if err != nil {
		metrics.CatalogImports.WithLabelValues("failed").Inc()
		return model.Movie{}, false, err
	}

	m, err = r.movies.GetByID(ctx, id)
	if err != nil {
		return model.Movie{}, false, err
	}
	metrics.CatalogImports.WithLabelValues("created").Inc()
	emit(ctx, r.events, queue.ActivityEvent{Type: queue.EventMovieImported, UserID: userID, MovieID: id})
	return m, true, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
