package postgres

import (
	"encoding/json"
	"fmt"

	"huizenzoeker/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanListing читает одну строку в порядке listingColumns.
func scanListing(row rowScanner) (domain.Listing, error) {
	var l domain.Listing
	var extra []byte

	err := row.Scan(
		&l.ID, &l.Source, &l.URL, &l.Address, &l.City, &l.PropertyType,
		&l.Price, &l.Area, &l.Rooms, &extra,
		&l.FirstSeen, &l.LastSeen, &l.LastUpdated, &l.Active,
	)
	if err != nil {
		return domain.Listing{}, err
	}

	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &l.Extra); err != nil {
			return domain.Listing{}, fmt.Errorf("failed to unmarshal extra fields for %s: %w", l.ID, err)
		}
	}
	if len(l.Extra) == 0 {
		l.Extra = nil
	}
	return l, nil
}

func collectListings(rows pgx.Rows) ([]domain.Listing, error) {
	var listings []domain.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listing rows: %w", err)
	}
	return listings, nil
}

func scanHistoryEntry(row rowScanner) (domain.HistoryEntry, error) {
	var e domain.HistoryEntry
	var kind string
	err := row.Scan(&e.ID, &e.ListingID, &e.Source, &kind, &e.Field, &e.OldValue, &e.NewValue, &e.Timestamp)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	e.Kind = domain.ChangeKind(kind)
	return e, nil
}

func collectHistory(rows pgx.Rows) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return entries, nil
}
