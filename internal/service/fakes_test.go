package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinelog/internal/catalog"
	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/queue"
	"github.com/iliyamo/cinelog/internal/rating"
	"github.com/iliyamo/cinelog/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL schema.  It keeps the same
// unique keys and upsert rules as the SQL repositories.
type memStore struct {
	mu      sync.Mutex
	clock   time.Time
	nextID  uint64
	users   map[uint64]model.User
	movies  map[uint64]model.NewMovie
	created map[uint64]time.Time
	reviews map[[2]uint64]model.Review
	watch   map[[2]uint64]model.WatchlistItem

	// beforeCreate runs inside Create; tests use it to inject a racing insert.
	beforeCreate func(m model.NewMovie)
}

func newMemStore() *memStore {
	return &memStore{
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:   map[uint64]model.User{},
		movies:  map[uint64]model.NewMovie{},
		created: map[uint64]time.Time{},
		reviews: map[[2]uint64]model.Review{},
		watch:   map[[2]uint64]model.WatchlistItem{},
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.users[id] = model.User{ID: id, Username: name, Email: name + "@example.com"}
	return id
}

func (s *memStore) addMovie(title string) uint64 {
	id, _ := s.Create(context.Background(), model.NewMovie{Title: title})
	return id
}

// MovieStore

func (s *memStore) Create(_ context.Context, m model.NewMovie) (uint64, error) {
	if hook := s.beforeCreate; hook != nil {
		s.beforeCreate = nil
		hook(m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ExternalSource != nil && m.ExternalID != nil {
		for _, o := range s.movies {
			if o.ExternalSource != nil && o.ExternalID != nil &&
				*o.ExternalSource == *m.ExternalSource && *o.ExternalID == *m.ExternalID {
				return 0, repository.ErrDuplicate
			}
		}
	}
	id := s.id()
	s.movies[id] = m
	s.created[id] = s.tick()
	return id, nil
}

func (s *memStore) Exists(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.movies[id]
	return ok, nil
}

func (s *memStore) movie(id uint64) model.Movie {
	nm := s.movies[id]
	var ratings []int
	for k, rv := range s.reviews {
		if k[1] == id {
			ratings = append(ratings, rv.Rating)
		}
	}
	sum := rating.Of(ratings)
	return model.Movie{
		ID: id, Title: nm.Title, Year: nm.Year, Genre: nm.Genre, Description: nm.Description,
		PosterURL: nm.PosterURL, CreatedBy: nm.CreatedBy, ExternalSource: nm.ExternalSource,
		ExternalID: nm.ExternalID, CreatedAt: s.created[id], AvgRating: sum.Average, ReviewCount: sum.Count,
	}
}

func (s *memStore) GetByID(_ context.Context, id uint64) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[id]; !ok {
		return model.Movie{}, repository.ErrMovieNotFound
	}
	return s.movie(id), nil
}

func (s *memStore) GetByExternal(_ context.Context, source, externalID string) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.movies {
		if m.ExternalSource != nil && m.ExternalID != nil && *m.ExternalSource == source && *m.ExternalID == externalID {
			return s.movie(id), nil
		}
	}
	return model.Movie{}, repository.ErrMovieNotFound
}

func (s *memStore) List(_ context.Context, search string) ([]model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Movie, 0, len(s.movies))
	for id, m := range s.movies {
		if search != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(search)) {
			continue
		}
		out = append(out, s.movie(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) movieCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movies)
}

// ReviewStore

type reviewFake struct{ *memStore }

func (r reviewFake) Upsert(_ context.Context, in model.ReviewInput) error {
	s := r.memStore
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[in.MovieID]; !ok {
		return repository.ErrForeignKey
	}
	if _, ok := s.users[in.UserID]; !ok {
		return repository.ErrForeignKey
	}
	var watched *string
	if in.WatchedOn != nil {
		d := in.WatchedOn.Format(model.DateLayout)
		watched = &d
	}
	now := s.tick()
	key := [2]uint64{in.UserID, in.MovieID}
	rv, ok := s.reviews[key]
	if !ok {
		rv = model.Review{ID: s.id(), UserID: in.UserID, MovieID: in.MovieID, CreatedAt: now}
	}
	rv.Rating, rv.ReviewText, rv.WatchedOn, rv.UpdatedAt = in.Rating, in.ReviewText, watched, now
	s.reviews[key] = rv
	return nil
}

func (r reviewFake) GetByUserAndMovie(_ context.Context, userID, movieID uint64) (model.Review, error) {
	s := r.memStore
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[[2]uint64{userID, movieID}]
	if !ok {
		return model.Review{}, repository.ErrReviewNotFound
	}
	rv.Username = s.users[userID].Username
	return rv, nil
}

func (r reviewFake) DeleteOwned(_ context.Context, reviewID, userID uint64) error {
	s := r.memStore
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, rv := range s.reviews {
		if rv.ID == reviewID && rv.UserID == userID {
			delete(s.reviews, k)
			return nil
		}
	}
	return repository.ErrReviewNotFound
}

func (r reviewFake) list(keep func(model.Review) bool, join func(*model.Review)) []model.Review {
	s := r.memStore
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Review, 0)
	for _, rv := range s.reviews {
		if keep(rv) {
			join(&rv)
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r reviewFake) ListByMovie(_ context.Context, movieID uint64) ([]model.Review, error) {
	return r.list(func(rv model.Review) bool { return rv.MovieID == movieID },
		func(rv *model.Review) { rv.Username = r.users[rv.UserID].Username }), nil
}

func (r reviewFake) ListByUser(_ context.Context, userID uint64) ([]model.Review, error) {
	return r.list(func(rv model.Review) bool { return rv.UserID == userID },
		func(rv *model.Review) { rv.MovieTitle = r.movies[rv.MovieID].Title }), nil
}

func (r reviewFake) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reviews)
}

// WatchlistStore

type watchFake struct{ *memStore }

func (w watchFake) Upsert(_ context.Context, userID, movieID uint64, status model.WatchStatus) error {
	s := w.memStore
	s.mu.Lock()
	defer s.mu.Unlock()
	nm, ok := s.movies[movieID]
	if !ok {
		return repository.ErrForeignKey
	}
	key := [2]uint64{userID, movieID}
	it, ok := s.watch[key]
	if !ok {
		it = model.WatchlistItem{MovieID: movieID, AddedAt: s.tick(), Title: nm.Title, Year: nm.Year, PosterURL: nm.PosterURL}
	}
	it.Status = status
	s.watch[key] = it
	return nil
}

func (w watchFake) Delete(_ context.Context, userID, movieID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.watch, [2]uint64{userID, movieID})
	return nil
}

func (w watchFake) ListByUser(_ context.Context, userID uint64) ([]model.WatchlistItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.WatchlistItem, 0)
	for k, it := range w.watch {
		if k[0] == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	return out, nil
}

// Catalog

type fakeCatalog struct {
	mu      sync.Mutex
	details map[string]model.NewMovie
	search  catalog.SearchResult
	err     error
	calls   int
}

func (c *fakeCatalog) Source() string { return catalog.Source }

func (c *fakeCatalog) Search(context.Context, string) (catalog.SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.search, c.err
}

func (c *fakeCatalog) Detail(_ context.Context, id string) (model.NewMovie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return model.NewMovie{}, c.err
	}
	d, ok := c.details[id]
	if !ok {
		return model.NewMovie{}, catalog.ErrNotFound
	}
	return d, nil
}

// EventPublisher

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
