package postgres

import (
	"context"
	"fmt"

	"huizenzoeker/internal/core/domain"
)

const historyColumns = `id, listing_id, source, change_kind, field, old_value, new_value, created_at`

// Query выбирает записи по критериям в порядке вставки.
func (a *ListingStoreAdapter) Query(ctx context.Context, filters domain.QueryFilters) ([]domain.Listing, error) {
	whereClause, args := applyFilters(filters)

	sql := fmt.Sprintf(`SELECT %s FROM listings %s ORDER BY seq`, listingColumns, whereClause)
	if filters.Limit > 0 {
		sql = fmt.Sprintf("%s LIMIT %d", sql, filters.Limit)
	}

	rows, err := a.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

// History возвращает записи одного объявления, новые первыми.
func (a *ListingStoreAdapter) History(ctx context.Context, listingID string, limit int) ([]domain.HistoryEntry, error) {
	sql := fmt.Sprintf(`SELECT %s FROM listing_history WHERE listing_id = $1 ORDER BY created_at DESC, id DESC`, historyColumns)
	if limit > 0 {
		sql = fmt.Sprintf("%s LIMIT %d", sql, limit)
	}

	rows, err := a.pool.Query(ctx, sql, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", listingID, err)
	}
	defer rows.Close()

	return collectHistory(rows)
}

// RecentChanges возвращает хвост всей истории, новые первыми.
func (a *ListingStoreAdapter) RecentChanges(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	sql := fmt.Sprintf(`SELECT %s FROM listing_history ORDER BY created_at DESC, id DESC`, historyColumns)
	if limit > 0 {
		sql = fmt.Sprintf("%s LIMIT %d", sql, limit)
	}

	rows, err := a.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent changes: %w", err)
	}
	defer rows.Close()

	return collectHistory(rows)
}

// SourceStats считает активные и неактивные записи по каждому источнику.
func (a *ListingStoreAdapter) SourceStats(ctx context.Context) ([]domain.SourceStat, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT source,
		       COUNT(*) FILTER (WHERE active),
		       COUNT(*) FILTER (WHERE NOT active)
		FROM listings
		GROUP BY source
		ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to query source stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.SourceStat
	for rows.Next() {
		var s domain.SourceStat
		if err := rows.Scan(&s.Source, &s.Active, &s.Inactive); err != nil {
			return nil, fmt.Errorf("failed to scan source stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source stats: %w", err)
	}
	return stats, nil
}
