package port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

// ResultPublisherPort публикует итог пакета в очередь для других сервисов.
type ResultPublisherPort interface {
	PublishBatchResult(ctx context.Context, result domain.BatchResult) error
}
