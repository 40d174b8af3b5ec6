package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListingStoreAdapter реализует ListingStorePort для PostgreSQL.
type ListingStoreAdapter struct {
	pool *pgxpool.Pool
}

// NewListingStoreAdapter создает новый экземпляр адаптера.
func NewListingStoreAdapter(pool *pgxpool.Pool) (*ListingStoreAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &ListingStoreAdapter{pool: pool}, nil
}

const listingColumns = `id, source, url, address, city, property_type, price, area, rooms, extra, first_seen, last_seen, last_updated, active`

// Upsert применяет один снимок в собственной транзакции.
// Строка блокируется через SELECT ... FOR UPDATE, поэтому параллельные
// upsert одного id сериализуются на уровне строки.
func (a *ListingStoreAdapter) Upsert(ctx context.Context, snapshot domain.Snapshot) (domain.UpsertResult, error) {
	if err := snapshot.Validate(); err != nil {
		return domain.UpsertResult{}, err
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	existing, err := a.getForUpdate(ctx, tx, snapshot.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.UpsertResult{}, err
	}

	var result domain.UpsertResult
	if errors.Is(err, domain.ErrNotFound) {
		if err := a.insertListing(ctx, tx, domain.NewListing(snapshot, now)); err != nil {
			return domain.UpsertResult{}, err
		}
		if err := a.insertHistory(ctx, tx, []domain.HistoryEntry{{
			ListingID: snapshot.ID,
			Source:    snapshot.Source,
			Kind:      domain.ChangeCreated,
			Timestamp: now,
		}}); err != nil {
			return domain.UpsertResult{}, err
		}
		result = domain.UpsertResult{Status: domain.UpsertCreated}
	} else {
		diffs := domain.CoreFieldDiffs(existing, snapshot)
		if len(diffs) == 0 {
			if _, err := tx.Exec(ctx,
				`UPDATE listings SET last_seen = $2, active = TRUE WHERE id = $1`,
				snapshot.ID, now,
			); err != nil {
				return domain.UpsertResult{}, fmt.Errorf("failed to touch listing %s: %w", snapshot.ID, err)
			}
			result = domain.UpsertResult{Status: domain.UpsertUnchanged}
		} else {
			updated := existing
			updated.ApplySnapshot(snapshot, now)
			if err := a.updateListing(ctx, tx, updated); err != nil {
				return domain.UpsertResult{}, err
			}

			entries := make([]domain.HistoryEntry, 0, len(diffs))
			for _, diff := range diffs {
				entries = append(entries, domain.HistoryEntry{
					ListingID: snapshot.ID,
					Source:    snapshot.Source,
					Kind:      domain.ChangeFieldChanged,
					Field:     diff.Field,
					OldValue:  formatHistoryValue(diff.Old),
					NewValue:  formatHistoryValue(diff.New),
					Timestamp: now,
				})
			}
			if err := a.insertHistory(ctx, tx, entries); err != nil {
				return domain.UpsertResult{}, err
			}
			result = domain.UpsertResult{Status: domain.UpsertUpdated, Diffs: diffs}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("failed to commit upsert for %s: %w", snapshot.ID, err)
	}
	return result, nil
}

func (a *ListingStoreAdapter) Get(ctx context.Context, id string) (domain.Listing, error) {
	row := a.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM listings WHERE id = $1`, listingColumns), id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
		}
		return domain.Listing{}, fmt.Errorf("failed to get listing %s: %w", id, err)
	}
	return listing, nil
}

func (a *ListingStoreAdapter) GetMany(ctx context.Context, ids []string) ([]domain.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := a.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM listings WHERE id = ANY($1) ORDER BY seq`, listingColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings by ids: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

// DeactivateMissing деактивирует активные записи источника, не попавшие
// в seenIDs, одним UPDATE и пишет историю пачкой через COPY.
func (a *ListingStoreAdapter) DeactivateMissing(ctx context.Context, seenIDs []string, source string) ([]string, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "ListingStoreAdapter",
		"method":    "DeactivateMissing",
		"source":    source,
		"seen_ids":  len(seenIDs),
	})

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		repoLogger.Error("Failed to begin transaction", err, nil)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if seenIDs == nil {
		seenIDs = []string{}
	}

	now := time.Now().UTC()
	rows, err := tx.Query(ctx, `
		UPDATE listings
		SET active = FALSE, last_updated = $3
		WHERE source = $1 AND active = TRUE AND id != ALL($2)
		RETURNING id`,
		source, seenIDs, now,
	)
	if err != nil {
		repoLogger.Error("Failed to deactivate missing listings", err, nil)
		return nil, fmt.Errorf("failed to deactivate missing listings: %w", err)
	}

	var removed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan deactivated id: %w", err)
		}
		removed = append(removed, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read deactivated ids: %w", err)
	}

	if len(removed) > 0 {
		entries := make([]domain.HistoryEntry, 0, len(removed))
		for _, id := range removed {
			entries = append(entries, domain.HistoryEntry{
				ListingID: id,
				Source:    source,
				Kind:      domain.ChangeDeactivated,
				NewValue:  domain.DeactivatedMarker,
				Timestamp: now,
			})
		}
		if err := a.insertHistory(ctx, tx, entries); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deactivation sweep: %w", err)
	}

	repoLogger.Info("Deactivation sweep finished", port.Fields{"removed": len(removed)})
	return removed, nil
}

func (a *ListingStoreAdapter) getForUpdate(ctx context.Context, tx pgx.Tx, id string) (domain.Listing, error) {
	row := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM listings WHERE id = $1 FOR UPDATE`, listingColumns), id)
	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, fmt.Errorf("failed to lock listing %s: %w", id, err)
	}
	return listing, nil
}

func (a *ListingStoreAdapter) insertListing(ctx context.Context, tx pgx.Tx, l domain.Listing) error {
	extra, err := marshalExtra(l.Extra)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO listings (id, source, url, address, city, property_type, price, area, rooms, extra, first_seen, last_seen, last_updated, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		l.ID, l.Source, l.URL, l.Address, l.City, l.PropertyType, l.Price, l.Area, l.Rooms, extra,
		l.FirstSeen, l.LastSeen, l.LastUpdated, l.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing %s: %w", l.ID, err)
	}
	return nil
}

func (a *ListingStoreAdapter) updateListing(ctx context.Context, tx pgx.Tx, l domain.Listing) error {
	extra, err := marshalExtra(l.Extra)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE listings
		SET url = $2, address = $3, city = $4, property_type = $5, price = $6, area = $7, rooms = $8,
		    extra = $9, last_seen = $10, last_updated = $11, active = TRUE
		WHERE id = $1`,
		l.ID, l.URL, l.Address, l.City, l.PropertyType, l.Price, l.Area, l.Rooms, extra,
		l.LastSeen, l.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing %s: %w", l.ID, err)
	}
	return nil
}

func (a *ListingStoreAdapter) insertHistory(ctx context.Context, tx pgx.Tx, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{e.ListingID, e.Source, string(e.Kind), e.Field, e.OldValue, e.NewValue, e.Timestamp})
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"listing_history"},
		[]string{"listing_id", "source", "change_kind", "field", "old_value", "new_value", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy history entries: %w", err)
	}
	return nil
}

func marshalExtra(extra map[string]interface{}) ([]byte, error) {
	if extra == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extra fields: %w", err)
	}
	return data, nil
}

func formatHistoryValue(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
