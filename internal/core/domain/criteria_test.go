package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int {
	return &v
}

func TestCriteria_Matches_EmptyCriteriaMatchesEverything(t *testing.T) {
	c := Criteria{}

	assert.True(t, c.Matches(Listing{Price: 0}))
	assert.True(t, c.Matches(Listing{Price: 5000000, City: "Rotterdam"}))
	assert.True(t, c.Matches(Listing{Area: nil}))
}

func TestCriteria_Matches_PriceBounds(t *testing.T) {
	c := Criteria{MinPrice: 100000, MaxPrice: 300000}

	assert.False(t, c.Matches(Listing{Price: 99999}))
	assert.True(t, c.Matches(Listing{Price: 100000}))
	assert.True(t, c.Matches(Listing{Price: 300000}))
	assert.False(t, c.Matches(Listing{Price: 300001}))
}

func TestCriteria_Matches_MaxPriceZeroMeansUnbounded(t *testing.T) {
	c := Criteria{MinPrice: 100000}

	assert.True(t, c.Matches(Listing{Price: 99000000}))
}

func TestCriteria_Matches_MinArea(t *testing.T) {
	c := Criteria{MinArea: 80}

	assert.True(t, c.Matches(Listing{Area: intPtr(80)}))
	assert.False(t, c.Matches(Listing{Area: intPtr(79)}))

	// запись без площади отсекается только при заданном MinArea
	assert.False(t, c.Matches(Listing{Area: nil}))
	assert.True(t, Criteria{}.Matches(Listing{Area: nil}))
}

func TestCriteria_Matches_CitySubstringCaseInsensitive(t *testing.T) {
	c := Criteria{Cities: []string{"rotterdam", "Delft"}}

	assert.True(t, c.Matches(Listing{City: "Rotterdam"}))
	assert.True(t, c.Matches(Listing{City: "ROTTERDAM-ZUID"}))
	assert.True(t, c.Matches(Listing{City: "delft"}))
	assert.False(t, c.Matches(Listing{City: "Amsterdam"}))
	assert.False(t, c.Matches(Listing{City: ""}))
}

func TestCriteria_Matches_PropertyTypeExactCaseInsensitive(t *testing.T) {
	c := Criteria{PropertyTypes: []string{"Appartement", "woonhuis"}}

	assert.True(t, c.Matches(Listing{PropertyType: "appartement"}))
	assert.True(t, c.Matches(Listing{PropertyType: "Woonhuis"}))
	assert.False(t, c.Matches(Listing{PropertyType: "Penthouse appartement"}))
}

func TestCriteria_Matches_AllConditionsTogether(t *testing.T) {
	c := Criteria{
		MinPrice:      150000,
		MaxPrice:      400000,
		MinArea:       70,
		Cities:        []string{"Rotterdam"},
		PropertyTypes: []string{"woonhuis"},
	}

	match := Listing{
		Price:        250000,
		Area:         intPtr(95),
		City:         "Rotterdam",
		PropertyType: "Woonhuis",
	}
	assert.True(t, c.Matches(match))

	tooSmall := match
	tooSmall.Area = intPtr(60)
	assert.False(t, c.Matches(tooSmall))

	wrongCity := match
	wrongCity.City = "Utrecht"
	assert.False(t, c.Matches(wrongCity))
}

func TestFilterListings_PreservesOrder(t *testing.T) {
	listings := []Listing{
		{ID: "a", Price: 100},
		{ID: "b", Price: 500},
		{ID: "c", Price: 200},
	}

	filtered := FilterListings(listings, Criteria{MaxPrice: 300})

	assert.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].ID)
	assert.Equal(t, "c", filtered[1].ID)
}

func TestFilterSnapshots(t *testing.T) {
	snapshots := []Snapshot{
		{ID: "cheap", Price: 90000, City: "Rotterdam"},
		{ID: "good", Price: 210000, City: "Rotterdam"},
		{ID: "elsewhere", Price: 220000, City: "Groningen"},
	}

	filtered := FilterSnapshots(snapshots, Criteria{MinPrice: 100000, Cities: []string{"rotterdam"}})

	assert.Len(t, filtered, 1)
	assert.Equal(t, "good", filtered[0].ID)
}
