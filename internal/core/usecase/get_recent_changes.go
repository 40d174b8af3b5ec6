package usecase

import (
	"context"
	"errors"
	"fmt"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
	"huizenzoeker/internal/core/port/usecases_port"
)

// GetRecentChangesUseCase - лента последних изменений по всем источникам.
type GetRecentChangesUseCase struct {
	store port.ListingStorePort
}

func NewGetRecentChangesUseCase(store port.ListingStorePort) *GetRecentChangesUseCase {
	return &GetRecentChangesUseCase{store: store}
}

func (uc *GetRecentChangesUseCase) Execute(ctx context.Context, limit int, criteria domain.Criteria) ([]usecases_port.RecentChange, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "GetRecentChanges", "limit": limit})

	filtered := !criteria.IsZero()
	fetchLimit := limit
	if filtered && limit > 0 {
		// Берём с запасом: часть записей отсеется фильтром.
		fetchLimit = limit * 3
	}

	entries, err := uc.store.RecentChanges(ctx, fetchLimit)
	if err != nil {
		ucLogger.Error("Storage returned an error during recent changes read", err, nil)
		return nil, fmt.Errorf("failed to get recent changes: %w", err)
	}

	changes := make([]usecases_port.RecentChange, 0, len(entries))
	for _, entry := range entries {
		listing, err := uc.store.Get(ctx, entry.ListingID)
		if err != nil {
			// Записи истории переживают всё, сама запись обязана существовать.
			if errors.Is(err, domain.ErrNotFound) {
				ucLogger.Warn("History entry references missing listing", port.Fields{"listing_id": entry.ListingID})
				continue
			}
			return nil, fmt.Errorf("failed to get listing %s for history entry: %w", entry.ListingID, err)
		}
		if filtered && !criteria.Matches(listing) {
			continue
		}
		changes = append(changes, usecases_port.RecentChange{Entry: entry, Listing: listing})
		if limit > 0 && len(changes) >= limit {
			break
		}
	}

	return changes, nil
}
