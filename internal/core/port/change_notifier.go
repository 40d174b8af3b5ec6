package port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

// ChangeNotifierPort уведомляет внешний канал об итогах обработки пакета.
type ChangeNotifierPort interface {
	Notify(ctx context.Context, result domain.BatchResult) error
}
