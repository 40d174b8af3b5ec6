package port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

// ListingStorePort - контракт хранилища объявлений и их истории.
// Каждый вызов - самостоятельная атомарная единица: одна запись для Upsert,
// одна зачистка для DeactivateMissing. Атомарность между вызовами не гарантируется.
type ListingStorePort interface {
	// Upsert применяет снимок к хранилищу: создаёт запись, обновляет её
	// или только продлевает last_seen, и пишет соответствующую историю.
	Upsert(ctx context.Context, snapshot domain.Snapshot) (domain.UpsertResult, error)

	Get(ctx context.Context, id string) (domain.Listing, error)
	GetMany(ctx context.Context, ids []string) ([]domain.Listing, error)
	Query(ctx context.Context, filters domain.QueryFilters) ([]domain.Listing, error)

	// DeactivateMissing деактивирует все активные записи источника,
	// чьи id не попали в seenIDs, и возвращает их id.
	// Пустой seenIDs деактивирует все активные записи источника.
	DeactivateMissing(ctx context.Context, seenIDs []string, source string) ([]string, error)

	History(ctx context.Context, listingID string, limit int) ([]domain.HistoryEntry, error)
	RecentChanges(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
	SourceStats(ctx context.Context) ([]domain.SourceStat, error)
}
