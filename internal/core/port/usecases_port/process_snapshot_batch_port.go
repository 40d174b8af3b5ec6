package usecases_port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

type ProcessSnapshotBatchUseCase interface {
	Execute(ctx context.Context, source string, snapshots []domain.Snapshot) (*domain.BatchResult, error)
}
