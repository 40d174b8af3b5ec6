package scrapers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPrice(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"€ 250.000", 250000, true},
		{"250.000 k.k.", 250000, true},
		{"€250.000,50", 250000, true},
		{"€ 1.250.000 v.o.n.", 1250000, true},
		{"Prijs op aanvraag", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := cleanPrice(tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.raw)
		}
	}
}

func TestCleanNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"95 m²", 95, true},
		{"120m2", 120, true},
		{"4 kamers", 4, true},
		{"ca. 85 m²", 85, true},
		{"onbekend", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := cleanNumber(tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.raw)
		}
	}
}

func TestListingID(t *testing.T) {
	assert.Equal(t, "ooms_dorpsweg-1", listingID("ooms", "https://www.ooms.com/woningaanbod/dorpsweg-1"))
	assert.Equal(t, "ooms_dorpsweg-1", listingID("ooms", "https://www.ooms.com/woningaanbod/dorpsweg-1/"))
	assert.Equal(t, "klipenvw_kade-12", listingID("klipenvw", "/woningaanbod/kade-12"))
}
