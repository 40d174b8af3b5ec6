package scrapers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huizenzoeker/internal/core/domain"
)

const listingsPage = `
<html><body>
  <div class="property-item">
    <a href="/woningaanbod/dorpsweg-1">Dorpsweg 1</a>
    <span class="address">Dorpsweg 1</span>
    <span class="city">Rotterdam</span>
    <span class="price">&euro; 250.000 k.k.</span>
    <span class="size">95 m&sup2;</span>
    <span class="rooms">4 kamers</span>
    <span class="type">Woonhuis</span>
  </div>
  <div class="property-item">
    <a href="/woningaanbod/kade-12">Kade 12</a>
    <span class="address">Kade 12</span>
    <span class="city">Schiedam</span>
    <span class="price">&euro; 180.000</span>
    <span class="type">Appartement</span>
  </div>
  <div class="property-item">
    <span class="address">Zonder link</span>
  </div>
</body></html>`

func testConfig(baseURL string) SiteConfig {
	return SiteConfig{
		Name:     "ooms",
		BaseURL:  baseURL,
		ListPath: "/woningaanbod",
		Selectors: Selectors{
			Item:    ".property-item",
			Link:    "a",
			Address: ".address",
			City:    ".city",
			Price:   ".price",
			Area:    ".size",
			Rooms:   ".rooms",
			Type:    ".type",
		},
	}
}

func TestFetchBatch_ParsesListingCards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/woningaanbod", r.URL.Path)
		w.Write([]byte(listingsPage))
	}))
	defer server.Close()

	adapter, err := NewSiteScraperAdapter(testConfig(server.URL))
	require.NoError(t, err)
	assert.Equal(t, "ooms", adapter.Name())

	snapshots, err := adapter.FetchBatch(context.Background(), domain.Criteria{})
	require.NoError(t, err)

	// карточка без ссылки пропускается
	require.Len(t, snapshots, 2)

	first := snapshots[0]
	assert.Equal(t, "ooms_dorpsweg-1", first.ID)
	assert.Equal(t, "ooms", first.Source)
	assert.Equal(t, server.URL+"/woningaanbod/dorpsweg-1", first.URL)
	assert.Equal(t, "Dorpsweg 1", first.Address)
	assert.Equal(t, "Rotterdam", first.City)
	assert.Equal(t, int64(250000), first.Price)
	require.NotNil(t, first.Area)
	assert.Equal(t, 95, *first.Area)
	require.NotNil(t, first.Rooms)
	assert.Equal(t, 4, *first.Rooms)
	assert.Equal(t, "Woonhuis", first.PropertyType)

	second := snapshots[1]
	assert.Equal(t, "ooms_kade-12", second.ID)
	assert.Equal(t, int64(180000), second.Price)
	assert.Nil(t, second.Area)
	assert.Nil(t, second.Rooms)
}

func TestFetchBatch_PriceFilterInURL(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer server.Close()

	adapter, err := NewSiteScraperAdapter(testConfig(server.URL))
	require.NoError(t, err)

	_, err = adapter.FetchBatch(context.Background(), domain.Criteria{MinPrice: 100000, MaxPrice: 300000})
	require.NoError(t, err)
	assert.Equal(t, "prijs-van=100000&prijs-tot=300000", gotQuery)
}

func TestFetchBatch_ServerErrorReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter, err := NewSiteScraperAdapter(testConfig(server.URL))
	require.NoError(t, err)

	_, err = adapter.FetchBatch(context.Background(), domain.Criteria{})
	assert.Error(t, err)
}

func TestNewSiteScraperAdapter_Validation(t *testing.T) {
	_, err := NewSiteScraperAdapter(SiteConfig{BaseURL: "https://example.com", Selectors: Selectors{Item: ".x"}})
	assert.Error(t, err)

	_, err = NewSiteScraperAdapter(SiteConfig{Name: "x", Selectors: Selectors{Item: ".x"}})
	assert.Error(t, err)

	_, err = NewSiteScraperAdapter(SiteConfig{Name: "x", BaseURL: "https://example.com"})
	assert.Error(t, err)
}

func TestBuildScrapers(t *testing.T) {
	adapters, unknown, err := BuildScrapers([]string{"ooms", "nonexistent", "klipenvw"})
	require.NoError(t, err)
	assert.Len(t, adapters, 2)
	assert.Equal(t, []string{"nonexistent"}, unknown)
}
