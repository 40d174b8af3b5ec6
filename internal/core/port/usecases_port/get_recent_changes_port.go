package usecases_port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

// RecentChange - одна запись истории вместе с текущим состоянием объявления.
// Entry.Kind классифицирует изменение: created, field_changed или deactivated.
type RecentChange struct {
	Entry   domain.HistoryEntry
	Listing domain.Listing
}

type GetRecentChangesUseCase interface {
	// Execute отдаёт ленту последних изменений, новые первыми.
	// Нулевые criteria пропускают всё.
	Execute(ctx context.Context, limit int, criteria domain.Criteria) ([]RecentChange, error)
}
