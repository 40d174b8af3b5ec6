package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
	"huizenzoeker/internal/core/port/usecases_port"
)

const (
	defaultRecentChangesLimit = 50
	defaultHistoryLimit       = 100
)

type ListingHandlers struct {
	queryListingsUC     usecases_port.QueryListingsUseCase
	getListingDetailsUC usecases_port.GetListingDetailsUseCase
	getRecentChangesUC  usecases_port.GetRecentChangesUseCase
	getSourceStatsUC    usecases_port.GetSourceStatsUseCase
}

// NewListingHandlers - конструктор для наших обработчиков.
func NewListingHandlers(queryListingsUC usecases_port.QueryListingsUseCase,
	getListingDetailsUC usecases_port.GetListingDetailsUseCase,
	getRecentChangesUC usecases_port.GetRecentChangesUseCase,
	getSourceStatsUC usecases_port.GetSourceStatsUseCase) *ListingHandlers {
	return &ListingHandlers{
		queryListingsUC:     queryListingsUC,
		getListingDetailsUC: getListingDetailsUC,
		getRecentChangesUC:  getRecentChangesUC,
		getSourceStatsUC:    getSourceStatsUC,
	}
}

// HandleQueryListings - обработчик для GET /api/v1/listings
func (h *ListingHandlers) HandleQueryListings(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleQueryListings"})

	filters, err := parseQueryFilters(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	listings, err := h.queryListingsUC.Execute(r.Context(), filters)
	if err != nil {
		logger.Error("Use case execution failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to query listings")
		return
	}

	if listings == nil {
		listings = []domain.Listing{}
	}
	RespondWithJSON(w, http.StatusOK, ListingsResponseDTO{
		Listings: listings,
		Count:    len(listings),
	})
}

// HandleGetListing - обработчик для GET /api/v1/listings/{id}
func (h *ListingHandlers) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleGetListing"})

	listingID := chi.URLParam(r, "id")
	if listingID == "" {
		WriteJSONError(w, http.StatusBadRequest, "Listing id is required")
		return
	}

	details, err := h.getListingDetailsUC.Execute(r.Context(), listingID, defaultHistoryLimit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			WriteJSONError(w, http.StatusNotFound, fmt.Sprintf("Listing '%s' not found", listingID))
			return
		}
		logger.Error("Use case execution failed", err, port.Fields{"listing_id": listingID})
		WriteJSONError(w, http.StatusInternalServerError, "Failed to get listing")
		return
	}

	RespondWithJSON(w, http.StatusOK, ListingDetailsResponseDTO{
		Listing: details.Listing,
		History: toHistoryEntryDTOs(details.History),
	})
}

// HandleGetListingHistory - обработчик для GET /api/v1/listings/{id}/history
func (h *ListingHandlers) HandleGetListingHistory(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleGetListingHistory"})

	listingID := chi.URLParam(r, "id")
	if listingID == "" {
		WriteJSONError(w, http.StatusBadRequest, "Listing id is required")
		return
	}

	limit, err := parseIntParam(r, "limit", defaultHistoryLimit)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	details, err := h.getListingDetailsUC.Execute(r.Context(), listingID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			WriteJSONError(w, http.StatusNotFound, fmt.Sprintf("Listing '%s' not found", listingID))
			return
		}
		logger.Error("Use case execution failed", err, port.Fields{"listing_id": listingID})
		WriteJSONError(w, http.StatusInternalServerError, "Failed to get listing history")
		return
	}

	RespondWithJSON(w, http.StatusOK, HistoryResponseDTO{
		ListingID: listingID,
		History:   toHistoryEntryDTOs(details.History),
	})
}

// HandleGetRecentChanges - обработчик для GET /api/v1/changes/recent
func (h *ListingHandlers) HandleGetRecentChanges(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleGetRecentChanges"})

	limit, err := parseIntParam(r, "limit", defaultRecentChangesLimit)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	criteria, err := parseCriteria(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	changes, err := h.getRecentChangesUC.Execute(r.Context(), limit, criteria)
	if err != nil {
		logger.Error("Use case execution failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to get recent changes")
		return
	}

	RespondWithJSON(w, http.StatusOK, RecentChangesResponseDTO{
		Changes: toRecentChangeDTOs(changes),
	})
}

// HandleGetSourceStats - обработчик для GET /api/v1/stats
func (h *ListingHandlers) HandleGetSourceStats(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleGetSourceStats"})

	stats, err := h.getSourceStatsUC.Execute(r.Context())
	if err != nil {
		logger.Error("Use case execution failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to get source stats")
		return
	}

	RespondWithJSON(w, http.StatusOK, StatsResponseDTO{
		Sources: toSourceStatDTOs(stats),
	})
}

// HandleHealth - обработчик для GET /health
func (h *ListingHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseCriteria читает условия фильтрации из query-параметров запроса.
func parseCriteria(r *http.Request) (domain.Criteria, error) {
	query := r.URL.Query()

	minPrice, err := parseInt64Param(r, "min_price", 0)
	if err != nil {
		return domain.Criteria{}, err
	}
	maxPrice, err := parseInt64Param(r, "max_price", 0)
	if err != nil {
		return domain.Criteria{}, err
	}
	minArea, err := parseIntParam(r, "min_area", 0)
	if err != nil {
		return domain.Criteria{}, err
	}

	return domain.Criteria{
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
		MinArea:       minArea,
		Cities:        splitListParam(query.Get("cities")),
		PropertyTypes: splitListParam(query.Get("property_types")),
	}, nil
}

// parseQueryFilters читает критерии из query-параметров запроса.
func parseQueryFilters(r *http.Request) (domain.QueryFilters, error) {
	var filters domain.QueryFilters
	query := r.URL.Query()

	criteria, err := parseCriteria(r)
	if err != nil {
		return filters, err
	}
	limit, err := parseIntParam(r, "limit", 0)
	if err != nil {
		return filters, err
	}

	filters.Criteria = criteria
	filters.Source = query.Get("source")
	filters.Limit = limit
	filters.IncludeInactive = query.Get("include_inactive") == "true"

	return filters, nil
}

func splitListParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func parseIntParam(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("parameter '%s' must be a non-negative number", name)
	}
	return value, nil
}

func parseInt64Param(r *http.Request, name string, defaultValue int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("parameter '%s' must be a non-negative number", name)
	}
	return value, nil
}
