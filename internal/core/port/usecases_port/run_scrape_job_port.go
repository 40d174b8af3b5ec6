package usecases_port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

type RunScrapeJobUseCase interface {
	Execute(ctx context.Context) ([]domain.BatchResult, error)
}
