package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/service"
)

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Register(ctx context.Context, username, email, password string) (service.Session, error) {
	args := m.Called(ctx, username, email, password)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAccounts) Login(ctx context.Context, identifier, password string) (service.Session, error) {
	args := m.Called(ctx, identifier, password)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAccounts) Refresh(ctx context.Context, raw string) (service.Session, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAccounts) RefreshAccess(ctx context.Context, raw string) (service.TokenPart, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(service.TokenPart), args.Error(1)
}

func (m *mockAccounts) Logout(ctx context.Context, userID uint64, raw string) error {
	return m.Called(ctx, userID, raw).Error(0)
}

func (m *mockAccounts) Me(ctx context.Context, userID uint64) (model.PublicUser, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.PublicUser), args.Error(1)
}

type mockMovies struct{ mock.Mock }

func (m *mockMovies) List(ctx context.Context, search string) ([]model.Movie, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]model.Movie), args.Error(1)
}

func (m *mockMovies) Get(ctx context.Context, id uint64) (model.Movie, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Movie), args.Error(1)
}

func (m *mockMovies) Add(ctx context.Context, userID uint64, in service.AddMovieInput) (model.Movie, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(model.Movie), args.Error(1)
}

func (m *mockMovies) SearchExternal(ctx context.Context, query string) (service.SearchResult, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(service.SearchResult), args.Error(1)
}

type mockImporter struct{ mock.Mock }

func (m *mockImporter) Import(ctx context.Context, userID uint64, externalID string) (model.Movie, bool, error) {
	args := m.Called(ctx, userID, externalID)
	return args.Get(0).(model.Movie), args.Bool(1), args.Error(2)
}

type mockReviews struct{ mock.Mock }

func (m *mockReviews) Submit(ctx context.Context, in model.ReviewInput) (model.Review, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Review), args.Error(1)
}

func (m *mockReviews) Delete(ctx context.Context, reviewID, userID uint64) error {
	return m.Called(ctx, reviewID, userID).Error(0)
}

func (m *mockReviews) ListForMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	args := m.Called(ctx, movieID)
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *mockReviews) ListForUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Review), args.Error(1)
}

type mockWatchlist struct{ mock.Mock }

func (m *mockWatchlist) SetStatus(ctx context.Context, userID, movieID uint64, status model.WatchStatus) (model.WatchlistStatus, error) {
	args := m.Called(ctx, userID, movieID, status)
	return args.Get(0).(model.WatchlistStatus), args.Error(1)
}

func (m *mockWatchlist) Remove(ctx context.Context, userID, movieID uint64) error {
	return m.Called(ctx, userID, movieID).Error(0)
}

func (m *mockWatchlist) List(ctx context.Context, userID uint64) ([]model.WatchlistItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.WatchlistItem), args.Error(1)
}
