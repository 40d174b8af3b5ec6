package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"huizenzoeker/internal/core/domain"
)

// ListingStoreAdapter - хранилище в памяти для разработки и тестов.
// Порядок вставки сохраняется, история append-only, как в postgres-реализации.
type ListingStoreAdapter struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
	order    []string
	history  []domain.HistoryEntry

	nextHistoryID int64
	now           func() time.Time
}

func NewListingStoreAdapter() *ListingStoreAdapter {
	return &ListingStoreAdapter{
		listings: make(map[string]*domain.Listing),
		now:      time.Now,
	}
}

// WithClock подменяет источник времени, нужен в тестах.
func (a *ListingStoreAdapter) WithClock(now func() time.Time) *ListingStoreAdapter {
	a.now = now
	return a
}

func (a *ListingStoreAdapter) Upsert(_ context.Context, snapshot domain.Snapshot) (domain.UpsertResult, error) {
	if err := snapshot.Validate(); err != nil {
		return domain.UpsertResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()

	existing, ok := a.listings[snapshot.ID]
	if !ok {
		listing := domain.NewListing(snapshot, now)
		a.listings[snapshot.ID] = &listing
		a.order = append(a.order, snapshot.ID)
		a.appendHistory(domain.HistoryEntry{
			ListingID: snapshot.ID,
			Source:    snapshot.Source,
			Kind:      domain.ChangeCreated,
			Timestamp: now,
		})
		return domain.UpsertResult{Status: domain.UpsertCreated}, nil
	}

	diffs := domain.CoreFieldDiffs(*existing, snapshot)
	if len(diffs) == 0 {
		existing.LastSeen = now
		existing.Active = true
		return domain.UpsertResult{Status: domain.UpsertUnchanged}, nil
	}

	for _, diff := range diffs {
		a.appendHistory(domain.HistoryEntry{
			ListingID: snapshot.ID,
			Source:    snapshot.Source,
			Kind:      domain.ChangeFieldChanged,
			Field:     diff.Field,
			OldValue:  formatValue(diff.Old),
			NewValue:  formatValue(diff.New),
			Timestamp: now,
		})
	}
	existing.ApplySnapshot(snapshot, now)

	return domain.UpsertResult{Status: domain.UpsertUpdated, Diffs: diffs}, nil
}

func (a *ListingStoreAdapter) Get(_ context.Context, id string) (domain.Listing, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	listing, ok := a.listings[id]
	if !ok {
		return domain.Listing{}, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}
	return *listing, nil
}

func (a *ListingStoreAdapter) GetMany(_ context.Context, ids []string) ([]domain.Listing, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]domain.Listing, 0, len(ids))
	for _, id := range ids {
		if listing, ok := a.listings[id]; ok {
			result = append(result, *listing)
		}
	}
	return result, nil
}

func (a *ListingStoreAdapter) Query(_ context.Context, filters domain.QueryFilters) ([]domain.Listing, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []domain.Listing
	for _, id := range a.order {
		listing := a.listings[id]
		if !filters.IncludeInactive && !listing.Active {
			continue
		}
		if filters.Source != "" && listing.Source != filters.Source {
			continue
		}
		if !filters.Criteria.Matches(*listing) {
			continue
		}
		result = append(result, *listing)
		if filters.Limit > 0 && len(result) >= filters.Limit {
			break
		}
	}
	return result, nil
}

func (a *ListingStoreAdapter) DeactivateMissing(_ context.Context, seenIDs []string, source string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = struct{}{}
	}

	now := a.now()
	var removed []string
	for _, id := range a.order {
		listing := a.listings[id]
		if listing.Source != source || !listing.Active {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		listing.Active = false
		listing.LastUpdated = now
		a.appendHistory(domain.HistoryEntry{
			ListingID: id,
			Source:    source,
			Kind:      domain.ChangeDeactivated,
			NewValue:  domain.DeactivatedMarker,
			Timestamp: now,
		})
		removed = append(removed, id)
	}
	return removed, nil
}

// History возвращает записи одного объявления, новые первыми.
func (a *ListingStoreAdapter) History(_ context.Context, listingID string, limit int) ([]domain.HistoryEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var entries []domain.HistoryEntry
	for i := len(a.history) - 1; i >= 0; i-- {
		if a.history[i].ListingID != listingID {
			continue
		}
		entries = append(entries, a.history[i])
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

// RecentChanges возвращает хвост всей истории, новые первыми.
func (a *ListingStoreAdapter) RecentChanges(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var entries []domain.HistoryEntry
	for i := len(a.history) - 1; i >= 0; i-- {
		entries = append(entries, a.history[i])
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

func (a *ListingStoreAdapter) SourceStats(_ context.Context) ([]domain.SourceStat, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	bySource := make(map[string]*domain.SourceStat)
	for _, id := range a.order {
		listing := a.listings[id]
		stat, ok := bySource[listing.Source]
		if !ok {
			stat = &domain.SourceStat{Source: listing.Source}
			bySource[listing.Source] = stat
		}
		if listing.Active {
			stat.Active++
		} else {
			stat.Inactive++
		}
	}

	stats := make([]domain.SourceStat, 0, len(bySource))
	for _, stat := range bySource {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Source < stats[j].Source })
	return stats, nil
}

func (a *ListingStoreAdapter) appendHistory(entry domain.HistoryEntry) {
	a.nextHistoryID++
	entry.ID = a.nextHistoryID
	a.history = append(a.history, entry)
}

func formatValue(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
