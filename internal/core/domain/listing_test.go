package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_UnmarshalJSON_UnknownKeysGoToExtra(t *testing.T) {
	raw := `{
		"id": "ooms_123",
		"source": "ooms",
		"price": 250000,
		"city": "Rotterdam",
		"garden": true,
		"energy_label": "A"
	}`

	var s Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.Equal(t, "ooms_123", s.ID)
	assert.Equal(t, int64(250000), s.Price)
	assert.Equal(t, "Rotterdam", s.City)
	assert.Equal(t, map[string]interface{}{"garden": true, "energy_label": "A"}, s.Extra)
}

func TestSnapshot_UnmarshalJSON_NoExtraKeys(t *testing.T) {
	var s Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "price": 1}`), &s))
	assert.Nil(t, s.Extra)
}

func TestListing_MarshalJSON_FlattensExtra(t *testing.T) {
	l := Listing{
		ID:    "ooms_123",
		Price: 250000,
		Extra: map[string]interface{}{"garden": true},
	}

	data, err := json.Marshal(l)
	require.NoError(t, err)

	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &flat))

	assert.Equal(t, "ooms_123", flat["id"])
	assert.Equal(t, float64(250000), flat["price"])
	assert.Equal(t, true, flat["garden"])
}

func TestListing_MarshalJSON_KnownFieldWinsOnCollision(t *testing.T) {
	l := Listing{
		ID:    "real-id",
		Extra: map[string]interface{}{"id": "extra-id"},
	}

	data, err := json.Marshal(l)
	require.NoError(t, err)

	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "real-id", flat["id"])
}

func TestSnapshot_Validate(t *testing.T) {
	assert.NoError(t, Snapshot{ID: "a", Price: 0}.Validate())

	err := Snapshot{Price: 100}.Validate()
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	err = Snapshot{ID: "a", Price: -1}.Validate()
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestCoreFieldDiffs_FixedOrder(t *testing.T) {
	old := Listing{
		Price:        150000,
		Area:         intPtr(90),
		Rooms:        intPtr(4),
		PropertyType: "woonhuis",
		Address:      "Dorpsweg 1",
		City:         "Rotterdam",
	}
	snapshot := Snapshot{
		Price:        190000,
		Area:         intPtr(90),
		Rooms:        intPtr(5),
		PropertyType: "woonhuis",
		Address:      "Dorpsweg 1",
		City:         "Schiedam",
	}

	diffs := CoreFieldDiffs(old, snapshot)

	require.Len(t, diffs, 3)
	assert.Equal(t, FieldChange{Field: "price", Old: int64(150000), New: int64(190000)}, diffs[0])
	assert.Equal(t, FieldChange{Field: "rooms", Old: 4, New: 5}, diffs[1])
	assert.Equal(t, FieldChange{Field: "city", Old: "Rotterdam", New: "Schiedam"}, diffs[2])
}

func TestCoreFieldDiffs_NilArea(t *testing.T) {
	old := Listing{Area: intPtr(80)}
	snapshot := Snapshot{Area: nil}

	diffs := CoreFieldDiffs(old, snapshot)

	require.Len(t, diffs, 1)
	assert.Equal(t, "area", diffs[0].Field)
	assert.Equal(t, 80, diffs[0].Old)
	assert.Nil(t, diffs[0].New)
}

func TestCoreFieldDiffs_NoChanges(t *testing.T) {
	old := Listing{Price: 100, City: "Delft"}
	snapshot := Snapshot{Price: 100, City: "Delft"}

	assert.Empty(t, CoreFieldDiffs(old, snapshot))
}

func TestCoreFieldDiffs_ExtraKeysDoNotCount(t *testing.T) {
	old := Listing{Price: 100, Extra: map[string]interface{}{"garden": false}}
	snapshot := Snapshot{Price: 100, Extra: map[string]interface{}{"garden": true}}

	assert.Empty(t, CoreFieldDiffs(old, snapshot))
}
