package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinelog/internal/model"
)

func newTracker(t *testing.T) (*WatchlistTracker, *memStore) {
	t.Helper()
	st := newMemStore()
	return NewWatchlistTracker(watchFake{st}, st, NopPublisher{}), st
}

func TestSetStatusTwiceKeepsFirstAddedAt(t *testing.T) {
	tracker, st := newTracker(t)
	ctx := context.Background()
	user := st.addUser("jiwoo")
	movie := st.addMovie("La La Land")

	_, err := tracker.SetStatus(ctx, user, movie, model.StatusWatching)
	require.NoError(t, err)
	first, err := tracker.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, first, 1)

	res, err := tracker.SetStatus(ctx, user, movie, model.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.WatchlistStatus{MovieID: movie, Status: model.StatusCompleted}, res)

	items, err := tracker.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.StatusCompleted, items[0].Status)
	assert.Equal(t, first[0].AddedAt, items[0].AddedAt)
	assert.Equal(t, "La La Land", items[0].Title)
}

func TestSetStatusValidation(t *testing.T) {
	tracker, st := newTracker(t)
	ctx := context.Background()
	user := st.addUser("jiwoo")
	movie := st.addMovie("La La Land")

	_, err := tracker.SetStatus(ctx, user, movie, "dropped")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = tracker.SetStatus(ctx, user, 999, model.StatusWatching)
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := tracker.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRemoveIsIdempotent(t *testing.T) {
	tracker, st := newTracker(t)
	ctx := context.Background()
	user := st.addUser("jiwoo")
	movie := st.addMovie("La La Land")

	assert.NoError(t, tracker.Remove(ctx, user, movie))

	_, err := tracker.SetStatus(ctx, user, movie, model.StatusPlanToWatch)
	require.NoError(t, err)
	require.NoError(t, tracker.Remove(ctx, user, movie))
	require.NoError(t, tracker.Remove(ctx, user, movie))

	items, err := tracker.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListNewestAddedFirst(t *testing.T) {
	tracker, st := newTracker(t)
	ctx := context.Background()
	user := st.addUser("jiwoo")
	older := st.addMovie("Older")
	newer := st.addMovie("Newer")

	_, err := tracker.SetStatus(ctx, user, older, model.StatusPlanToWatch)
	require.NoError(t, err)
	_, err = tracker.SetStatus(ctx, user, newer, model.StatusPlanToWatch)
	require.NoError(t, err)
	_, err = tracker.SetStatus(ctx, user, older, model.StatusWatching)
	require.NoError(t, err)

	items, err := tracker.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer, items[0].MovieID)
	assert.Equal(t, older, items[1].MovieID)
}
