package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logger_adapter "huizenzoeker/internal/adapters/logger"
	"huizenzoeker/internal/core/domain"
)

func intPtr(v int) *int {
	return &v
}

func testAdapter() *NotifierAdapter {
	logger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{Level: slog.LevelError})
	return NewNotifierAdapter("test-token", "42", logger)
}

func collectMessages(t *testing.T) (*httptest.Server, *[]sendMessageRequest) {
	t.Helper()

	var messages []sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)

		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		messages = append(messages, req)

		json.NewEncoder(w).Encode(sendMessageResponse{OK: true})
	}))
	t.Cleanup(server.Close)
	return server, &messages
}

func TestNotify_SendsMessagesPerChangeAndSummary(t *testing.T) {
	server, messages := collectMessages(t)
	adapter := testAdapter().WithBaseURL(server.URL)

	result := domain.BatchResult{
		Source: "ooms",
		New: []domain.Listing{{
			ID: "ooms_1", Address: "Dorpsweg 1", City: "Rotterdam",
			Price: 250000, Area: intPtr(95), Rooms: intPtr(4),
			PropertyType: "Woonhuis", URL: "https://www.ooms.com/woningaanbod/dorpsweg-1",
		}},
		Updated: []domain.UpdatedListing{{
			Listing: domain.Listing{ID: "ooms_2", Address: "Kade 12", City: "Schiedam", Price: 190000},
			Diffs:   []domain.FieldChange{{Field: "price", Old: int64(150000), New: int64(190000)}},
		}},
		Removed: []domain.Listing{{ID: "ooms_3", Address: "Plein 3", City: "Vlaardingen", Price: 300000}},
	}

	err := adapter.Notify(context.Background(), result)
	require.NoError(t, err)

	require.Len(t, *messages, 4)
	for _, msg := range *messages {
		assert.Equal(t, "42", msg.ChatID)
		assert.Equal(t, "Markdown", msg.ParseMode)
	}

	newMsg := (*messages)[0].Text
	assert.Contains(t, newMsg, "Nieuwe woning")
	assert.Contains(t, newMsg, "Dorpsweg 1")
	assert.Contains(t, newMsg, "€250.000")
	assert.Contains(t, newMsg, "95 m²")
	assert.Contains(t, newMsg, "Bekijk op website")

	updatedMsg := (*messages)[1].Text
	assert.Contains(t, updatedMsg, "Gewijzigde woning")
	assert.Contains(t, updatedMsg, "Wijzigingen:")
	assert.Contains(t, updatedMsg, "Prijs: €150.000 → €190.000")

	removedMsg := (*messages)[2].Text
	assert.Contains(t, removedMsg, "Verwijderde woning")

	summary := (*messages)[3].Text
	assert.Contains(t, summary, "Samenvatting (ooms)")
	assert.Contains(t, summary, "Nieuw: 1")
	assert.Contains(t, summary, "Gewijzigd: 1")
	assert.Contains(t, summary, "Verwijderd: 1")
}

func TestNotify_DisabledWithoutToken(t *testing.T) {
	logger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{Level: slog.LevelError})
	adapter := NewNotifierAdapter("", "", logger)

	assert.False(t, adapter.Enabled())

	err := adapter.Notify(context.Background(), domain.BatchResult{
		Source: "ooms",
		New:    []domain.Listing{{ID: "a"}},
	})
	assert.NoError(t, err)
}

func TestNotify_APIErrorReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(sendMessageResponse{OK: false, Description: "chat not found"})
	}))
	defer server.Close()

	adapter := testAdapter().WithBaseURL(server.URL)

	err := adapter.Notify(context.Background(), domain.BatchResult{
		Source: "ooms",
		New:    []domain.Listing{{ID: "a"}},
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to send"))
}

func TestFormatEuro(t *testing.T) {
	assert.Equal(t, "€250.000", formatEuro(250000))
	assert.Equal(t, "€1.250.000", formatEuro(1250000))
	assert.Equal(t, "€999", formatEuro(999))
	assert.Equal(t, "€0", formatEuro(0))
}

func TestDutchFieldName(t *testing.T) {
	assert.Equal(t, "Prijs", dutchFieldName("price"))
	assert.Equal(t, "Oppervlakte", dutchFieldName("area"))
	assert.Equal(t, "Kamers", dutchFieldName("rooms"))
	assert.Equal(t, "iets_anders", dutchFieldName("iets_anders"))
}
