package usecases_port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

type GetSourceStatsUseCase interface {
	Execute(ctx context.Context) ([]domain.SourceStat, error)
}
