package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyFromPath(t *testing.T) {
	assert.Equal(t, "ListingSnapshotBatchEvent/1.0.0", generateKeyFromPath("events/listing-snapshot-batch/v1.json"))
	assert.Equal(t, "ListingChangesEvent/1.0.0", generateKeyFromPath("events/listing-changes/v1.json"))
	assert.Equal(t, "", generateKeyFromPath("events/broken.json"))
}

func TestValidateEvent_SnapshotBatch(t *testing.T) {
	valid := `{
		"source": "ooms",
		"snapshots": [
			{"id": "ooms_1", "price": 250000, "city": "Rotterdam", "garden": true},
			{"id": "ooms_2", "price": 0, "area": null}
		]
	}`
	assert.NoError(t, ValidateEvent("ListingSnapshotBatchEvent", "1.0.0", []byte(valid)))

	missingID := `{"source": "ooms", "snapshots": [{"price": 100}]}`
	assert.Error(t, ValidateEvent("ListingSnapshotBatchEvent", "1.0.0", []byte(missingID)))

	negativePrice := `{"source": "ooms", "snapshots": [{"id": "a", "price": -5}]}`
	assert.Error(t, ValidateEvent("ListingSnapshotBatchEvent", "1.0.0", []byte(negativePrice)))

	emptySource := `{"source": "", "snapshots": []}`
	assert.Error(t, ValidateEvent("ListingSnapshotBatchEvent", "1.0.0", []byte(emptySource)))
}

func TestValidateEvent_UnknownSchema(t *testing.T) {
	err := ValidateEvent("NoSuchEvent", "1.0.0", []byte(`{}`))
	assert.Error(t, err)
}

func TestValidateEvent_InvalidJSON(t *testing.T) {
	err := ValidateEvent("ListingSnapshotBatchEvent", "1.0.0", []byte(`{not json`))
	assert.Error(t, err)
}
