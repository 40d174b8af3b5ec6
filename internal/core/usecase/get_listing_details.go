package usecase

import (
	"context"
	"fmt"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/port"
	"huizenzoeker/internal/core/port/usecases_port"
)

// GetListingDetailsUseCase отдает запись вместе с её историей.
type GetListingDetailsUseCase struct {
	store port.ListingStorePort
}

func NewGetListingDetailsUseCase(store port.ListingStorePort) *GetListingDetailsUseCase {
	return &GetListingDetailsUseCase{store: store}
}

func (uc *GetListingDetailsUseCase) Execute(ctx context.Context, listingID string, historyLimit int) (*usecases_port.ListingDetails, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "GetListingDetails", "listing_id": listingID})

	listing, err := uc.store.Get(ctx, listingID)
	if err != nil {
		ucLogger.Error("Storage returned an error during get", err, nil)
		return nil, fmt.Errorf("failed to get listing %s: %w", listingID, err)
	}

	history, err := uc.store.History(ctx, listingID, historyLimit)
	if err != nil {
		ucLogger.Error("Storage returned an error during history read", err, nil)
		return nil, fmt.Errorf("failed to get history for listing %s: %w", listingID, err)
	}

	return &usecases_port.ListingDetails{Listing: listing, History: history}, nil
}
