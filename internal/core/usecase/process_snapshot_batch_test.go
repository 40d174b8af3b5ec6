package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huizenzoeker/internal/adapters/memstore"
	"huizenzoeker/internal/core/domain"
)

func intPtr(v int) *int {
	return &v
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []domain.BatchResult
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, result domain.BatchResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
	return n.err
}

type recordingPublisher struct {
	mu      sync.Mutex
	results []domain.BatchResult
}

func (p *recordingPublisher) PublishBatchResult(_ context.Context, result domain.BatchResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
	return nil
}

// failingStore ломает Upsert для выбранных id, остальное делегирует memstore.
type failingStore struct {
	*memstore.ListingStoreAdapter
	failIDs map[string]struct{}
}

func (s *failingStore) Upsert(ctx context.Context, snapshot domain.Snapshot) (domain.UpsertResult, error) {
	if _, ok := s.failIDs[snapshot.ID]; ok {
		return domain.UpsertResult{}, errors.New("storage unavailable")
	}
	return s.ListingStoreAdapter.Upsert(ctx, snapshot)
}

func makeSnapshot(id string, price int64) domain.Snapshot {
	return domain.Snapshot{
		ID:           id,
		Price:        price,
		Address:      "Dorpsweg 1",
		City:         "Rotterdam",
		PropertyType: "woonhuis",
	}
}

func TestProcessSnapshotBatch_NewUpdatedRemoved(t *testing.T) {
	store := memstore.NewListingStoreAdapter()
	uc := NewProcessSnapshotBatchUseCase(store, nil, nil)
	ctx := context.Background()

	// первый пакет: a и b появляются
	first, err := uc.Execute(ctx, "ooms", []domain.Snapshot{
		makeSnapshot("a", 150000),
		makeSnapshot("b", 200000),
	})
	require.NoError(t, err)
	assert.Len(t, first.New, 2)
	assert.Empty(t, first.Updated)
	assert.Empty(t, first.Removed)

	// второй пакет: a дорожает, b пропадает, c появляется
	changed := makeSnapshot("a", 190000)
	second, err := uc.Execute(ctx, "ooms", []domain.Snapshot{
		changed,
		makeSnapshot("c", 300000),
	})
	require.NoError(t, err)

	require.Len(t, second.New, 1)
	assert.Equal(t, "c", second.New[0].ID)

	require.Len(t, second.Updated, 1)
	assert.Equal(t, "a", second.Updated[0].Listing.ID)
	require.Len(t, second.Updated[0].Diffs, 1)
	assert.Equal(t, "price", second.Updated[0].Diffs[0].Field)
	assert.Equal(t, int64(150000), second.Updated[0].Diffs[0].Old)
	assert.Equal(t, int64(190000), second.Updated[0].Diffs[0].New)

	require.Len(t, second.Removed, 1)
	assert.Equal(t, "b", second.Removed[0].ID)
	assert.False(t, second.Removed[0].Active)
}

func TestProcessSnapshotBatch_SourceIsStamped(t *testing.T) {
	store := memstore.NewListingStoreAdapter()
	uc := NewProcessSnapshotBatchUseCase(store, nil, nil)

	// источник берётся из аргумента, не из снимка
	s := makeSnapshot("a", 100000)
	s.Source = "spoofed"

	result, err := uc.Execute(context.Background(), "ooms", []domain.Snapshot{s})
	require.NoError(t, err)
	require.Len(t, result.New, 1)
	assert.Equal(t, "ooms", result.New[0].Source)
}

func TestProcessSnapshotBatch_MalformedSnapshotsCollected(t *testing.T) {
	store := memstore.NewListingStoreAdapter()
	uc := NewProcessSnapshotBatchUseCase(store, nil, nil)

	result, err := uc.Execute(context.Background(), "ooms", []domain.Snapshot{
		{Price: 100000},
		makeSnapshot("ok", 100000),
		{ID: "neg", Price: -1},
	})
	require.NoError(t, err)

	assert.Len(t, result.New, 1)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "", result.Failed[0].ID)
	assert.Equal(t, "neg", result.Failed[1].ID)
}

func TestProcessSnapshotBatch_FailedUpsertNotCountedAsSeen(t *testing.T) {
	base := memstore.NewListingStoreAdapter()
	uc := NewProcessSnapshotBatchUseCase(base, nil, nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, "ooms", []domain.Snapshot{makeSnapshot("a", 100000)})
	require.NoError(t, err)

	// во втором пакете upsert для id a падает, запись не должна
	// считаться увиденной и уходит в деактивацию
	store := &failingStore{ListingStoreAdapter: base, failIDs: map[string]struct{}{"a": {}}}
	uc = NewProcessSnapshotBatchUseCase(store, nil, nil)

	result, err := uc.Execute(ctx, "ooms", []domain.Snapshot{makeSnapshot("a", 100000)})
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.Equal(t, "a", result.Failed[0].ID)
	require.Len(t, result.Removed, 1)
	assert.Equal(t, "a", result.Removed[0].ID)
}

func TestProcessSnapshotBatch_EmptyBatchDeactivatesAll(t *testing.T) {
	store := memstore.NewListingStoreAdapter()
	uc := NewProcessSnapshotBatchUseCase(store, nil, nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, "ooms", []domain.Snapshot{
		makeSnapshot("a", 100000),
		makeSnapshot("b", 200000),
	})
	require.NoError(t, err)

	result, err := uc.Execute(ctx, "ooms", nil)
	require.NoError(t, err)
	assert.Len(t, result.Removed, 2)
}

func TestProcessSnapshotBatch_FanOutOnChanges(t *testing.T) {
	store := memstore.NewListingStoreAdapter()
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	uc := NewProcessSnapshotBatchUseCase(store, notifier, publisher)
	ctx := context.Background()

	_, err := uc.Execute(ctx, "ooms", []domain.Snapshot{makeSnapshot("a", 100000)})
	require.NoError(t, err)

	require.Len(t, notifier.results, 1)
	require.Len(t, publisher.results, 1)
	assert.Len(t, notifier.results[0].New, 1)

	// пакет без изменений не рассылается
	_, err = uc.Execute(ctx, "ooms", []domain.Snapshot{makeSnapshot("a", 100000)})
	require.NoError(t, err)
	assert.Len(t, notifier.results, 1)
	assert.Len(t, publisher.results, 1)
}

// readbackStore ломает чтение выбранных id после успешного сохранения.
type readbackStore struct {
	*memstore.ListingStoreAdapter
	failIDs map[string]struct{}
}

func (s *readbackStore) Get(ctx context.Context, id string) (domain.Listing, error) {
	if _, ok := s.failIDs[id]; ok {
		return domain.Listing{}, errors.New("storage unavailable")
	}
	return s.ListingStoreAdapter.Get(ctx, id)
}

func TestProcessSnapshotBatch_ReadbackErrorDoesNotAbortBatch(t *testing.T) {
	inner := memstore.NewListingStoreAdapter()
	store := &readbackStore{ListingStoreAdapter: inner, failIDs: map[string]struct{}{"a": {}}}
	publisher := &recordingPublisher{}
	uc := NewProcessSnapshotBatchUseCase(store, nil, publisher)
	ctx := context.Background()

	result, err := uc.Execute(ctx, "ooms", []domain.Snapshot{
		makeSnapshot("a", 150000),
		makeSnapshot("b", 200000),
	})
	require.NoError(t, err)

	// a сохранён, но не прочитан: попадает в Failed, остальной пакет живёт
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "a", result.Failed[0].ID)
	require.Len(t, result.New, 1)
	assert.Equal(t, "b", result.New[0].ID)

	// a учтён как увиденный, зачистка его не трогает
	assert.Empty(t, result.Removed)
	stored, err := inner.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, stored.Active)

	// рассылка всё равно состоялась
	assert.Len(t, publisher.results, 1)
}

func TestProcessSnapshotBatch_NotifierErrorDoesNotFailBatch(t *testing.T) {
	store := memstore.NewListingStoreAdapter()
	notifier := &recordingNotifier{err: errors.New("telegram is down")}
	uc := NewProcessSnapshotBatchUseCase(store, notifier, nil)

	result, err := uc.Execute(context.Background(), "ooms", []domain.Snapshot{makeSnapshot("a", 100000)})
	require.NoError(t, err)
	assert.Len(t, result.New, 1)
}
