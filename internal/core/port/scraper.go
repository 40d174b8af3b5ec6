package port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

// ScraperPort - контракт для получения пакета снимков с одного сайта.
type ScraperPort interface {
	// Name возвращает идентификатор источника, он попадает в поле source.
	Name() string

	// FetchBatch собирает текущие объявления сайта по заданным критериям.
	FetchBatch(ctx context.Context, criteria domain.Criteria) ([]domain.Snapshot, error)
}
