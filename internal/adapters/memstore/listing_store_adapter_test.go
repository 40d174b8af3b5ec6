package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huizenzoeker/internal/core/domain"
)

func intPtr(v int) *int {
	return &v
}

func newTestStore() *ListingStoreAdapter {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return NewListingStoreAdapter().WithClock(func() time.Time { return current })
}

func snapshot(id string, price int64) domain.Snapshot {
	return domain.Snapshot{
		ID:           id,
		Source:       "ooms",
		Price:        price,
		Address:      "Dorpsweg 1",
		City:         "Rotterdam",
		PropertyType: "woonhuis",
		Rooms:        intPtr(4),
	}
}

func TestUpsert_CreatesNewListing(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	result, err := store.Upsert(ctx, snapshot("ooms_1", 150000))
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertCreated, result.Status)

	listing, err := store.Get(ctx, "ooms_1")
	require.NoError(t, err)
	assert.True(t, listing.Active)
	assert.Equal(t, int64(150000), listing.Price)
	assert.Equal(t, listing.FirstSeen, listing.LastSeen)

	history, err := store.History(ctx, "ooms_1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChangeCreated, history[0].Kind)
}

func TestUpsert_UnchangedIsIdempotent(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("ooms_1", 150000))
	require.NoError(t, err)

	result, err := store.Upsert(ctx, snapshot("ooms_1", 150000))
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertUnchanged, result.Status)
	assert.Empty(t, result.Diffs)

	// повторный снимок не добавляет записей в историю
	history, err := store.History(ctx, "ooms_1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpsert_DetectsFieldChanges(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("ooms_1", 150000))
	require.NoError(t, err)

	changed := snapshot("ooms_1", 190000)
	changed.Rooms = intPtr(5)

	result, err := store.Upsert(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertUpdated, result.Status)
	require.Len(t, result.Diffs, 2)
	assert.Equal(t, "price", result.Diffs[0].Field)
	assert.Equal(t, "rooms", result.Diffs[1].Field)

	history, err := store.History(ctx, "ooms_1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	// новые записи первыми
	assert.Equal(t, domain.ChangeFieldChanged, history[0].Kind)
	assert.Equal(t, "rooms", history[0].Field)
	assert.Equal(t, "4", history[0].OldValue)
	assert.Equal(t, "5", history[0].NewValue)
	assert.Equal(t, "price", history[1].Field)
	assert.Equal(t, "150000", history[1].OldValue)
	assert.Equal(t, "190000", history[1].NewValue)
	assert.Equal(t, domain.ChangeCreated, history[2].Kind)
}

func TestUpsert_RejectsInvalidSnapshot(t *testing.T) {
	store := newTestStore()

	_, err := store.Upsert(context.Background(), domain.Snapshot{Price: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)

	_, err = store.Upsert(context.Background(), domain.Snapshot{ID: "x", Price: -5})
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeactivateMissing_RemovesUnseen(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Upsert(ctx, snapshot(id, 100000))
		require.NoError(t, err)
	}

	removed, err := store.DeactivateMissing(ctx, []string{"a", "c"}, "ooms")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, removed)

	listing, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, listing.Active)

	history, err := store.History(ctx, "b", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ChangeDeactivated, history[0].Kind)
	assert.Equal(t, domain.DeactivatedMarker, history[0].NewValue)
}

func TestDeactivateMissing_BumpsLastUpdated(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewListingStoreAdapter().WithClock(func() time.Time { return current })
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("a", 100000))
	require.NoError(t, err)

	// Зачистка через час: запись мертва, last_updated сдвигается,
	// как это делает SQL-реализация.
	current = current.Add(time.Hour)
	removed, err := store.DeactivateMissing(ctx, nil, "ooms")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, removed)

	listing, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, listing.Active)
	assert.Equal(t, current, listing.LastUpdated)
	assert.True(t, listing.LastUpdated.After(listing.FirstSeen))
}

func TestDeactivateMissing_EmptySeenDeactivatesAll(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("a", 100000))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, snapshot("b", 200000))
	require.NoError(t, err)

	removed, err := store.DeactivateMissing(ctx, nil, "ooms")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, removed)
}

func TestDeactivateMissing_OtherSourcesUntouched(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("ooms_1", 100000))
	require.NoError(t, err)

	other := snapshot("klipenvw_1", 200000)
	other.Source = "klipenvw"
	_, err = store.Upsert(ctx, other)
	require.NoError(t, err)

	removed, err := store.DeactivateMissing(ctx, nil, "ooms")
	require.NoError(t, err)
	assert.Equal(t, []string{"ooms_1"}, removed)

	listing, err := store.Get(ctx, "klipenvw_1")
	require.NoError(t, err)
	assert.True(t, listing.Active)
}

func TestDeactivateMissing_AlreadyInactiveNotRepeated(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("a", 100000))
	require.NoError(t, err)

	removed, err := store.DeactivateMissing(ctx, nil, "ooms")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, removed)

	removed, err = store.DeactivateMissing(ctx, nil, "ooms")
	require.NoError(t, err)
	assert.Empty(t, removed)

	history, err := store.History(ctx, "a", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUpsert_ReactivationWithoutHistoryEntry(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("a", 100000))
	require.NoError(t, err)
	_, err = store.DeactivateMissing(ctx, nil, "ooms")
	require.NoError(t, err)

	// объявление вернулось без изменений полей
	result, err := store.Upsert(ctx, snapshot("a", 100000))
	require.NoError(t, err)
	assert.Equal(t, domain.UpsertUnchanged, result.Status)

	listing, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, listing.Active)

	history, err := store.History(ctx, "a", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestQuery_DefaultsToActiveOnly(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("a", 100000))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, snapshot("b", 200000))
	require.NoError(t, err)
	_, err = store.DeactivateMissing(ctx, []string{"b"}, "ooms")
	require.NoError(t, err)

	active, err := store.Query(ctx, domain.QueryFilters{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].ID)

	all, err := store.Query(ctx, domain.QueryFilters{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestQuery_CriteriaSourceAndLimit(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d"} {
		s := snapshot(id, int64(100000*(i+1)))
		_, err := store.Upsert(ctx, s)
		require.NoError(t, err)
	}

	result, err := store.Query(ctx, domain.QueryFilters{
		Criteria: domain.Criteria{MinPrice: 200000},
		Source:   "ooms",
		Limit:    2,
	})
	require.NoError(t, err)
	require.Len(t, result, 2)
	// порядок вставки сохраняется
	assert.Equal(t, "b", result[0].ID)
	assert.Equal(t, "c", result[1].ID)
}

func TestRecentChanges_NewestFirstAcrossListings(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("a", 100000))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, snapshot("b", 200000))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, snapshot("a", 120000))
	require.NoError(t, err)

	changes, err := store.RecentChanges(ctx, 2)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.ChangeFieldChanged, changes[0].Kind)
	assert.Equal(t, "a", changes[0].ListingID)
	assert.Equal(t, domain.ChangeCreated, changes[1].Kind)
	assert.Equal(t, "b", changes[1].ListingID)
}

func TestSourceStats(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Upsert(ctx, snapshot("ooms_1", 100000))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, snapshot("ooms_2", 200000))
	require.NoError(t, err)

	other := snapshot("klipenvw_1", 300000)
	other.Source = "klipenvw"
	_, err = store.Upsert(ctx, other)
	require.NoError(t, err)

	_, err = store.DeactivateMissing(ctx, []string{"ooms_1"}, "ooms")
	require.NoError(t, err)

	stats, err := store.SourceStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, domain.SourceStat{Source: "klipenvw", Active: 1, Inactive: 0}, stats[0])
	assert.Equal(t, domain.SourceStat{Source: "ooms", Active: 1, Inactive: 1}, stats[1])
}
