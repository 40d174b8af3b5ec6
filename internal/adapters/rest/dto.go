package rest

import (
	"time"

	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port/usecases_port"
)

// ListingDTO отдаётся наружу в плоском виде: MarshalJSON записи сам
// подмешивает ключи Extra на верхний уровень.
type ListingDTO = domain.Listing

type HistoryEntryDTO struct {
	ID        int64     `json:"id"`
	ListingID string    `json:"listing_id"`
	Source    string    `json:"source"`
	Kind      string    `json:"kind"`
	Field     string    `json:"field,omitempty"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ListingsResponseDTO struct {
	Listings []ListingDTO `json:"listings"`
	Count    int          `json:"count"`
}

type ListingDetailsResponseDTO struct {
	Listing ListingDTO        `json:"listing"`
	History []HistoryEntryDTO `json:"history"`
}

type HistoryResponseDTO struct {
	ListingID string            `json:"listing_id"`
	History   []HistoryEntryDTO `json:"history"`
}

type RecentChangeDTO struct {
	Entry   HistoryEntryDTO `json:"entry"`
	Listing ListingDTO      `json:"listing"`
}

type RecentChangesResponseDTO struct {
	Changes []RecentChangeDTO `json:"changes"`
}

type SourceStatDTO struct {
	Source   string `json:"source"`
	Active   int    `json:"active"`
	Inactive int    `json:"inactive"`
	Total    int    `json:"total"`
}

type StatsResponseDTO struct {
	Sources []SourceStatDTO `json:"sources"`
}

func toHistoryEntryDTO(entry domain.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:        entry.ID,
		ListingID: entry.ListingID,
		Source:    entry.Source,
		Kind:      string(entry.Kind),
		Field:     entry.Field,
		OldValue:  entry.OldValue,
		NewValue:  entry.NewValue,
		Timestamp: entry.Timestamp,
	}
}

func toHistoryEntryDTOs(entries []domain.HistoryEntry) []HistoryEntryDTO {
	dtos := make([]HistoryEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toHistoryEntryDTO(entry))
	}
	return dtos
}

func toRecentChangeDTOs(changes []usecases_port.RecentChange) []RecentChangeDTO {
	dtos := make([]RecentChangeDTO, 0, len(changes))
	for _, change := range changes {
		dtos = append(dtos, RecentChangeDTO{
			Entry:   toHistoryEntryDTO(change.Entry),
			Listing: change.Listing,
		})
	}
	return dtos
}

func toSourceStatDTOs(stats []domain.SourceStat) []SourceStatDTO {
	dtos := make([]SourceStatDTO, 0, len(stats))
	for _, stat := range stats {
		dtos = append(dtos, SourceStatDTO{
			Source:   stat.Source,
			Active:   stat.Active,
			Inactive: stat.Inactive,
			Total:    stat.Active + stat.Inactive,
		})
	}
	return dtos
}
