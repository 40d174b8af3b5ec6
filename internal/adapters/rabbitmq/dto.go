package rabbitmq

import (
	"huizenzoeker/internal/core/domain"
)

// SnapshotBatchEventDTO - входящее событие с полным пакетом снимков источника.
// Неизвестные ключи снимков сохраняются в Extra при десериализации.
type SnapshotBatchEventDTO struct {
	Source    string            `json:"source"`
	Snapshots []domain.Snapshot `json:"snapshots"`
}

// ListingChangesEventDTO - исходящее событие с итогом обработки пакета.
type ListingChangesEventDTO struct {
	Source  string              `json:"source"`
	New     []domain.Listing    `json:"new"`
	Updated []UpdatedListingDTO `json:"updated"`
	Removed []domain.Listing    `json:"removed"`
}

type UpdatedListingDTO struct {
	Listing domain.Listing   `json:"listing"`
	Diffs   []FieldChangeDTO `json:"diffs"`
}

type FieldChangeDTO struct {
	Field    string      `json:"field"`
	OldValue interface{} `json:"old_value"`
	NewValue interface{} `json:"new_value"`
}

func toListingChangesEventDTO(result domain.BatchResult) ListingChangesEventDTO {
	dto := ListingChangesEventDTO{
		Source:  result.Source,
		New:     result.New,
		Updated: make([]UpdatedListingDTO, 0, len(result.Updated)),
		Removed: result.Removed,
	}
	if dto.New == nil {
		dto.New = []domain.Listing{}
	}
	if dto.Removed == nil {
		dto.Removed = []domain.Listing{}
	}
	for _, u := range result.Updated {
		diffs := make([]FieldChangeDTO, 0, len(u.Diffs))
		for _, d := range u.Diffs {
			diffs = append(diffs, FieldChangeDTO{Field: d.Field, OldValue: d.Old, NewValue: d.New})
		}
		dto.Updated = append(dto.Updated, UpdatedListingDTO{Listing: u.Listing, Diffs: diffs})
	}
	return dto
}
