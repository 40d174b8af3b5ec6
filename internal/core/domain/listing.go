package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("listing not found")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Listing - это главная сущность: одно объявление о недвижимости,
// как его в последний раз видел источник.
type Listing struct {
	ID           string
	Source       string
	URL          string
	Address      string
	City         string
	PropertyType string
	Price        int64
	Area         *int
	Rooms        *int

	Extra map[string]interface{}

	FirstSeen   time.Time
	LastSeen    time.Time
	LastUpdated time.Time
	Active      bool
}

// MarshalJSON возвращает плоский вид: ключи Extra подмешиваются на верхний
// уровень, известные поля имеют приоритет при коллизии имён.
func (l Listing) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(l.Extra)+13)
	for k, v := range l.Extra {
		flat[k] = v
	}
	flat["id"] = l.ID
	flat["source"] = l.Source
	flat["url"] = l.URL
	flat["address"] = l.Address
	flat["city"] = l.City
	flat["property_type"] = l.PropertyType
	flat["price"] = l.Price
	flat["area"] = l.Area
	flat["rooms"] = l.Rooms
	flat["first_seen"] = l.FirstSeen
	flat["last_seen"] = l.LastSeen
	flat["last_updated"] = l.LastUpdated
	flat["active"] = l.Active
	return json.Marshal(flat)
}

// Snapshot - одно наблюдение объявления из источника, вход для upsert.
type Snapshot struct {
	ID           string
	Source       string
	URL          string
	Address      string
	City         string
	PropertyType string
	Price        int64
	Area         *int
	Rooms        *int

	// Extra хранит все неизвестные ключи входного JSON как есть.
	Extra map[string]interface{}
}

var snapshotKnownKeys = map[string]struct{}{
	"id": {}, "source": {}, "url": {}, "address": {}, "city": {},
	"property_type": {}, "price": {}, "area": {}, "rooms": {},
}

// UnmarshalJSON разбирает известные поля и складывает остальные ключи в Extra.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type known struct {
		ID           string `json:"id"`
		Source       string `json:"source"`
		URL          string `json:"url"`
		Address      string `json:"address"`
		City         string `json:"city"`
		PropertyType string `json:"property_type"`
		Price        int64  `json:"price"`
		Area         *int   `json:"area"`
		Rooms        *int   `json:"rooms"`
	}
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = k.ID
	s.Source = k.Source
	s.URL = k.URL
	s.Address = k.Address
	s.City = k.City
	s.PropertyType = k.PropertyType
	s.Price = k.Price
	s.Area = k.Area
	s.Rooms = k.Rooms
	s.Extra = nil
	for key, val := range raw {
		if _, ok := snapshotKnownKeys[key]; ok {
			continue
		}
		var v interface{}
		if err := json.Unmarshal(val, &v); err != nil {
			return err
		}
		if s.Extra == nil {
			s.Extra = make(map[string]interface{})
		}
		s.Extra[key] = v
	}
	return nil
}

// Validate проверяет минимальные условия для upsert.
func (s Snapshot) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidSnapshot)
	}
	if s.Price < 0 {
		return fmt.Errorf("%w: negative price %d for id %s", ErrInvalidSnapshot, s.Price, s.ID)
	}
	return nil
}

// NewListing создаёт запись из снимка при первом появлении id.
func NewListing(s Snapshot, now time.Time) Listing {
	return Listing{
		ID:           s.ID,
		Source:       s.Source,
		URL:          s.URL,
		Address:      s.Address,
		City:         s.City,
		PropertyType: s.PropertyType,
		Price:        s.Price,
		Area:         s.Area,
		Rooms:        s.Rooms,
		Extra:        s.Extra,
		FirstSeen:    now,
		LastSeen:     now,
		LastUpdated:  now,
		Active:       true,
	}
}

// FieldChange - одно изменение отслеживаемого поля между наблюдениями.
type FieldChange struct {
	Field string
	Old   interface{}
	New   interface{}
}

// CoreFieldDiffs сравнивает отслеживаемые поля записи со снимком.
// Порядок полей фиксирован и совпадает с порядком записи в историю.
func CoreFieldDiffs(old Listing, s Snapshot) []FieldChange {
	var diffs []FieldChange
	if old.Price != s.Price {
		diffs = append(diffs, FieldChange{Field: "price", Old: old.Price, New: s.Price})
	}
	if !intPtrEqual(old.Area, s.Area) {
		diffs = append(diffs, FieldChange{Field: "area", Old: intPtrValue(old.Area), New: intPtrValue(s.Area)})
	}
	if !intPtrEqual(old.Rooms, s.Rooms) {
		diffs = append(diffs, FieldChange{Field: "rooms", Old: intPtrValue(old.Rooms), New: intPtrValue(s.Rooms)})
	}
	if old.PropertyType != s.PropertyType {
		diffs = append(diffs, FieldChange{Field: "property_type", Old: old.PropertyType, New: s.PropertyType})
	}
	if old.Address != s.Address {
		diffs = append(diffs, FieldChange{Field: "address", Old: old.Address, New: s.Address})
	}
	if old.City != s.City {
		diffs = append(diffs, FieldChange{Field: "city", Old: old.City, New: s.City})
	}
	return diffs
}

// ApplySnapshot переносит поля снимка в запись при обнаруженных изменениях.
func (l *Listing) ApplySnapshot(s Snapshot, now time.Time) {
	l.URL = s.URL
	l.Address = s.Address
	l.City = s.City
	l.PropertyType = s.PropertyType
	l.Price = s.Price
	l.Area = s.Area
	l.Rooms = s.Rooms
	l.Extra = s.Extra
	l.LastSeen = now
	l.LastUpdated = now
	l.Active = true
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrValue(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// UpsertStatus - исход одного upsert.
type UpsertStatus string

const (
	UpsertCreated   UpsertStatus = "new"
	UpsertUpdated   UpsertStatus = "updated"
	UpsertUnchanged UpsertStatus = "unchanged"
)

// UpsertResult - статус плюс список изменившихся полей (только для updated).
type UpsertResult struct {
	Status UpsertStatus
	Diffs  []FieldChange
}
