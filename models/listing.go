package models

import "time"

// Source tags.
const (
	SourceCraigslist = "craigslist"
	SourceManual     = "manual"
)

// FeedEntry holds one unprocessed item as it came off the RSS feed.
type FeedEntry struct {
	Title     string
	Summary   string
	Link      string
	Published string
}

// Flags are the boolean amenity indicators derived from listing text.
type Flags struct {
	HasCentralAir       bool `json:"has_central_air"`
	HasOffstreetParking bool `json:"has_offstreet_prk"`
	HasGarage           bool `json:"has_garage"`
	HasDishwasher       bool `json:"has_dishwasher"`
	PetsAllowed         bool `json:"pets_allowed"`
}

// Listing is the normalized row stored in the listings table.
// Nil pointers are stored as NULL.
type Listing struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	SourceID    *string    `json:"source_id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       *int       `json:"price"`
	Bedrooms    *float64   `json:"bedrooms"`
	Bathrooms   *float64   `json:"bathrooms"`
	Sqft        *int       `json:"sqft"`
	Flags
	Neighborhood *string    `json:"neighborhood"`
	City         *string    `json:"city"`
	CreatedAt    time.Time  `json:"created_at"`
	PostedAt     *time.Time `json:"posted_at"`
}

// Summary holds the dashboard metrics over a set of listings.
type Summary struct {
	Count          int     `json:"count"`
	MedianPrice    int     `json:"median_price"`
	AvgBedrooms    float64 `json:"avg_bedrooms"`
	WithCentralAir int     `json:"with_central_air"`
}

// RunReport describes one ingestion run.
type RunReport struct {
	RunID      string
	Source     string
	Processed  int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
}
