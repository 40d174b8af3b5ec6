package domain

import "time"

// ChangeKind - тип записи в истории изменений.
type ChangeKind string

const (
	ChangeCreated      ChangeKind = "created"
	ChangeFieldChanged ChangeKind = "field_changed"
	ChangeDeactivated  ChangeKind = "deactivated"
)

// DeactivatedMarker пишется в new_value записи deactivated вместо значения поля.
const DeactivatedMarker = "Property no longer available"

// HistoryEntry - одна запись append-only истории. Field заполнено только
// для field_changed, OldValue/NewValue - строковые представления значений.
type HistoryEntry struct {
	ID        int64
	ListingID string
	Source    string
	Kind      ChangeKind
	Field     string
	OldValue  string
	NewValue  string
	Timestamp time.Time
}
