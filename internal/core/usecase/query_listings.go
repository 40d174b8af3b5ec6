package usecase

import (
	"context"
	"fmt"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
)

// QueryListingsUseCase - выборка записей по критериям.
type QueryListingsUseCase struct {
	store port.ListingStorePort
}

func NewQueryListingsUseCase(store port.ListingStorePort) *QueryListingsUseCase {
	return &QueryListingsUseCase{store: store}
}

func (uc *QueryListingsUseCase) Execute(ctx context.Context, filters domain.QueryFilters) ([]domain.Listing, error) {
	logger := contextkeys.LoggerFromContext(ctx)

	listings, err := uc.store.Query(ctx, filters)
	if err != nil {
		logger.Error("Storage returned an error during query", err, port.Fields{"use_case": "QueryListings"})
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	return listings, nil
}
