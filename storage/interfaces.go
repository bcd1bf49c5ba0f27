package storage

import (
	"context"

	"gr-rentals/models"
)

// ListingWriter is the interface any storage backend must satisfy to
// receive ingested listings.
type ListingWriter interface {
	Upsert(ctx context.Context, l *models.Listing) error
	Close() error
}

// ListingReader loads the full listings table.
type ListingReader interface {
	FetchAll(ctx context.Context) ([]*models.Listing, error)
}

// ListingStore is a backend that can be both written and read.
type ListingStore interface {
	ListingWriter
	ListingReader
}
