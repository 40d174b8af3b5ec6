package usecases_port

import (
	"context"

	"huizenzoeker/internal/core/domain"
)

// ListingDetails - запись вместе с её историей изменений.
type ListingDetails struct {
	Listing domain.Listing
	History []domain.HistoryEntry
}

type GetListingDetailsUseCase interface {
	Execute(ctx context.Context, listingID string, historyLimit int) (*ListingDetails, error)
}
