package usecases_port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

type QueryListingsUseCase interface {
	Execute(ctx context.Context, filters domain.QueryFilters) ([]domain.Listing, error)
}
