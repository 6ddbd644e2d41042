package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
)

func openSQLite(t *testing.T) RecordStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "travel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openBadger(t *testing.T) RecordStore {
	t.Helper()
	s, err := NewBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func forEachStore(t *testing.T, fn func(t *testing.T, s RecordStore)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, openSQLite(t)) })
	t.Run("badger", func(t *testing.T) { fn(t, openBadger(t)) })
}

func TestStoreEmptyList(t *testing.T) {
	forEachStore(t, func(t *testing.T, s RecordStore) {
		records, err := s.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})
}

func TestStoreKeepsInsertionOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		places := []string{"Goa", "Manali", "Goa", "Jaipur", "Coorg", "Manali", "Ooty", "Goa"}
		for _, p := range places {
			require.NoError(t, s.Add(ctx, &models.ContextRecord{Month: "May", SuggestedPlace: p}))
		}

		records, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, len(places))
		for i, r := range records {
			assert.Equal(t, places[i], r.SuggestedPlace)
		}
	})
}

func TestStoreAssignsIDAndTimestamp(t *testing.T) {
	forEachStore(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		r := &models.ContextRecord{Month: "May", SuggestedPlace: "Goa"}
		before := time.Now().UTC().Add(-time.Second)

		require.NoError(t, s.Add(ctx, r))
		assert.NotEmpty(t, r.ID)
		assert.True(t, r.CreatedAt.After(before))

		kept := &models.ContextRecord{ID: "fixed-id", SuggestedPlace: "Ooty"}
		require.NoError(t, s.Add(ctx, kept))
		assert.Equal(t, "fixed-id", kept.ID)

		records, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, r.ID, records[0].ID)
		assert.Equal(t, "fixed-id", records[1].ID)
	})
}

func TestStoreRoundTripsOptionalFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, s RecordStore) {
		ctx := context.Background()
		full := &models.ContextRecord{
			Month:              "December",
			Season:             "Winter",
			Budget:             "High",
			ActivityPreference: "Adventure",
			Temperature:        models.Float64(-3.5),
			Weather:            "Snow",
			GroupSize:          models.Int(4),
			SuggestedPlace:     "Manali",
		}
		require.NoError(t, s.Add(ctx, full))
		require.NoError(t, s.Add(ctx, &models.ContextRecord{Month: "June"}))

		records, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)

		got := records[0]
		assert.Equal(t, "December", got.Month)
		assert.Equal(t, "Winter", got.Season)
		assert.Equal(t, "High", got.Budget)
		assert.Equal(t, "Adventure", got.ActivityPreference)
		require.NotNil(t, got.Temperature)
		assert.InDelta(t, -3.5, *got.Temperature, 1e-9)
		assert.Equal(t, "Snow", got.Weather)
		require.NotNil(t, got.GroupSize)
		assert.Equal(t, 4, *got.GroupSize)
		assert.Equal(t, "Manali", got.SuggestedPlace)
		assert.True(t, got.Labeled())

		bare := records[1]
		assert.Nil(t, bare.Temperature)
		assert.Nil(t, bare.GroupSize)
		assert.False(t, bare.Labeled())
	})
}

func TestStorePing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s RecordStore) {
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "travel.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, &models.ContextRecord{SuggestedPlace: "Goa"}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Goa", records[0].SuggestedPlace)
}

func TestBadgerStorePersistsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	s, err := NewBadgerStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, &models.ContextRecord{SuggestedPlace: "Goa"}))
	require.NoError(t, s.Close())

	s, err = NewBadgerStore(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Add(ctx, &models.ContextRecord{SuggestedPlace: "Manali"}))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Goa", records[0].SuggestedPlace)
	assert.Equal(t, "Manali", records[1].SuggestedPlace)
}

func TestBadgerStorePingAfterClose(t *testing.T) {
	s, err := NewBadgerStore("")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(context.Background()), ErrClosed)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	s.Close()

	s, err = Open(ctx, Config{Driver: DriverBadger})
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, s)
	s.Close()

	_, err = Open(ctx, Config{Driver: "postgres"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = Open(ctx, Config{Driver: DriverMongo})
	assert.Error(t, err)

	_, err = NewSQLiteStore("")
	assert.Error(t, err)
}
