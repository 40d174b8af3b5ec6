package postgres

import (
	"fmt"
	"strings"

	"huizenzoeker/internal/core/domain"
)

type queryBuilder struct {
	conditions []string
	args       []interface{}
	argId      int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		argId:      1,
		conditions: make([]string, 0),
		args:       make([]interface{}, 0),
	}
}

func (qb *queryBuilder) addCondition(condition string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, qb.argId))
	qb.args = append(qb.args, arg)
	qb.argId++
}

func (qb *queryBuilder) addRawCondition(condition string) {
	qb.conditions = append(qb.conditions, condition)
}

// build создает итоговый WHERE и аргументы
func (qb *queryBuilder) build() (string, []interface{}) {
	whereClause := ""
	if len(qb.conditions) > 0 {
		whereClause = "WHERE " + strings.Join(qb.conditions, " AND ")
	}
	return whereClause, qb.args
}

// applyFilters разбирает QueryFilters и строит условия поверх таблицы listings.
// Пустые списки городов и типов означают отсутствие ограничения.
func applyFilters(filters domain.QueryFilters) (string, []interface{}) {
	qb := newQueryBuilder()

	if !filters.IncludeInactive {
		qb.addRawCondition("active = TRUE")
	}

	if filters.Source != "" {
		qb.addCondition("source = $%d", filters.Source)
	}

	if filters.MinPrice > 0 {
		qb.addCondition("price >= $%d", filters.MinPrice)
	}
	if filters.MaxPrice > 0 {
		qb.addCondition("price <= $%d", filters.MaxPrice)
	}

	// Отсутствующая площадь отсекается условием только при MinArea > 0
	if filters.MinArea > 0 {
		qb.addCondition("area >= $%d", filters.MinArea)
	}

	if len(filters.Cities) > 0 {
		patterns := make([]string, 0, len(filters.Cities))
		for _, city := range filters.Cities {
			patterns = append(patterns, "%"+city+"%")
		}
		qb.addCondition("city ILIKE ANY($%d)", patterns)
	}

	if len(filters.PropertyTypes) > 0 {
		lowered := make([]string, 0, len(filters.PropertyTypes))
		for _, pt := range filters.PropertyTypes {
			lowered = append(lowered, strings.ToLower(pt))
		}
		qb.addCondition("lower(property_type) = ANY($%d)", lowered)
	}

	return qb.build()
}
