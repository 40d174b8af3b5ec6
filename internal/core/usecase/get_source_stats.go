package usecase

import (
	"context"
	"fmt"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
)

// GetSourceStatsUseCase - счётчики активных и неактивных записей по источникам.
type GetSourceStatsUseCase struct {
	store port.ListingStorePort
}

func NewGetSourceStatsUseCase(store port.ListingStorePort) *GetSourceStatsUseCase {
	return &GetSourceStatsUseCase{store: store}
}

func (uc *GetSourceStatsUseCase) Execute(ctx context.Context) ([]domain.SourceStat, error) {
	logger := contextkeys.LoggerFromContext(ctx)

	stats, err := uc.store.SourceStats(ctx)
	if err != nil {
		logger.Error("Storage returned an error during stats read", err, port.Fields{"use_case": "GetSourceStats"})
		return nil, fmt.Errorf("failed to get source stats: %w", err)
	}

	return stats, nil
}
