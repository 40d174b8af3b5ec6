package domain

import "strings"

// Criteria - конъюнктивный фильтр по записям. Нулевые значения означают
// отсутствие ограничения: MaxPrice = 0 - без верхней границы, пустые списки
// Cities и PropertyTypes пропускают всё.
type Criteria struct {
	MinPrice      int64
	MaxPrice      int64
	MinArea       int
	Cities        []string
	PropertyTypes []string
}

// IsZero сообщает, задано ли хоть одно условие.
func (c Criteria) IsZero() bool {
	return c.MinPrice == 0 && c.MaxPrice == 0 && c.MinArea == 0 &&
		len(c.Cities) == 0 && len(c.PropertyTypes) == 0
}

// Matches проверяет запись по всем условиям сразу.
// Отсутствующая площадь отсекается только при MinArea > 0.
func (c Criteria) Matches(l Listing) bool {
	if l.Price < c.MinPrice {
		return false
	}
	if c.MaxPrice > 0 && l.Price > c.MaxPrice {
		return false
	}
	if c.MinArea > 0 {
		if l.Area == nil || *l.Area < c.MinArea {
			return false
		}
	}
	if len(c.Cities) > 0 && !c.matchesCity(l.City) {
		return false
	}
	if len(c.PropertyTypes) > 0 && !c.matchesType(l.PropertyType) {
		return false
	}
	return true
}

func (c Criteria) matchesCity(city string) bool {
	lower := strings.ToLower(city)
	for _, want := range c.Cities {
		if strings.Contains(lower, strings.ToLower(want)) {
			return true
		}
	}
	return false
}

func (c Criteria) matchesType(propertyType string) bool {
	for _, want := range c.PropertyTypes {
		if strings.EqualFold(propertyType, want) {
			return true
		}
	}
	return false
}

// QueryFilters - критерии плюс параметры выборки из хранилища.
// По умолчанию выбираются только активные записи.
type QueryFilters struct {
	Criteria
	IncludeInactive bool
	Source          string
	Limit           int
}

// FilterListings возвращает подходящие записи, сохраняя порядок входа.
func FilterListings(listings []Listing, c Criteria) []Listing {
	filtered := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if c.Matches(l) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// FilterSnapshots - тот же предикат для ещё не сохранённых снимков,
// используется как предварительный фильтр перед обработкой пакета.
func FilterSnapshots(snapshots []Snapshot, c Criteria) []Snapshot {
	filtered := make([]Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if c.Matches(Listing{
			Price:        s.Price,
			Area:         s.Area,
			City:         s.City,
			PropertyType: s.PropertyType,
		}) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
