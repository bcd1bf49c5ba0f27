package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"gr-rentals/models"
	"gr-rentals/utils"
)

// listingColumns is the column order used for every insert and select.
var listingColumns = []string{
	"id", "source", "source_id", "url", "title", "description",
	"price", "bedrooms", "bathrooms", "sqft",
	"has_central_air", "has_offstreet_prk", "has_garage", "has_dishwasher", "pets_allowed",
	"neighborhood", "city", "created_at", "posted_at",
}

var _ ListingStore = (*SQLStore)(nil)

// SQLStore persists listings to PostgreSQL or SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	upsert  string
}

// Options tunes how Open waits for the database to come up.
type Options struct {
	PingAttempts int
	PingDelay    time.Duration
}

// DefaultOptions mirrors a database container that takes a few seconds to
// accept connections.
var DefaultOptions = Options{PingAttempts: 10, PingDelay: 500 * time.Millisecond}

// Open connects using dsn, waits for the server to answer, runs schema
// migrations, and returns a ready-to-use SQLStore.
func Open(ctx context.Context, dsn string, opts Options, logger *utils.Logger) (*SQLStore, error) {
	d, source, err := dialectFor(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrStorage, err)
	}

	db, err := sql.Open(d.driver, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: open: %v", utils.ErrStorage, d.name, err)
	}

	retry := &utils.RetryConfig{
		MaxAttempts: opts.PingAttempts,
		BaseDelay:   opts.PingDelay,
		Logger:      logger,
	}
	if err := retry.Do(ctx, d.name+"-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", utils.ErrStorage, err)
	}

	s := &SQLStore{db: db, dialect: d, upsert: buildUpsert(d)}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: migrate: %v", utils.ErrStorage, d.name, err)
	}

	if logger != nil {
		logger.Debug("[storage] Connected to %s", d.name)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	ts := s.dialect.timestampType
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS listings (
			id                TEXT PRIMARY KEY,
			source            TEXT,
			source_id         TEXT,
			url               TEXT,
			title             TEXT,
			description       TEXT,
			price             INTEGER,
			bedrooms          REAL,
			bathrooms         REAL,
			sqft              INTEGER,
			has_central_air   INTEGER,
			has_offstreet_prk INTEGER,
			has_garage        INTEGER,
			has_dishwasher    INTEGER,
			pets_allowed      INTEGER,
			neighborhood      TEXT,
			city              TEXT,
			created_at        %s,
			posted_at         %s
		);

		CREATE INDEX IF NOT EXISTS idx_listings_source   ON listings(source);
		CREATE INDEX IF NOT EXISTS idx_listings_price    ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_bedrooms ON listings(bedrooms);
	`, ts, ts))
	return err
}

func buildUpsert(d dialect) string {
	placeholders := make([]string, len(listingColumns))
	updates := make([]string, 0, len(listingColumns)-1)
	for i, c := range listingColumns {
		placeholders[i] = d.placeholder(i + 1)
		if c != "id" {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO listings (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		strings.Join(listingColumns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

// Upsert inserts l, or overwrites every column of the row with the same id.
func (s *SQLStore) Upsert(ctx context.Context, l *models.Listing) error {
	_, err := s.db.ExecContext(ctx, s.upsert,
		l.ID, l.Source, optString(l.SourceID), l.URL, l.Title, l.Description,
		optInt(l.Price), optFloat(l.Bedrooms), optFloat(l.Bathrooms), optInt(l.Sqft),
		boolToInt(l.HasCentralAir), boolToInt(l.HasOffstreetParking), boolToInt(l.HasGarage),
		boolToInt(l.HasDishwasher), boolToInt(l.PetsAllowed),
		optString(l.Neighborhood), optString(l.City), l.CreatedAt.UTC(), optTime(l.PostedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: upsert %s: %v", utils.ErrStorage, s.dialect.name, l.ID, err)
	}
	return nil
}

// FetchAll retrieves every stored listing.
func (s *SQLStore) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+strings.Join(listingColumns, ", ")+" FROM listings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: fetch all: %v", utils.ErrStorage, s.dialect.name, err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: scan row: %v", utils.ErrStorage, s.dialect.name, err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Count returns the number of stored listings.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %s: count: %v", utils.ErrStorage, s.dialect.name, err)
	}
	return n, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func scanListing(rows *sql.Rows) (*models.Listing, error) {
	var (
		l                                      models.Listing
		source, sourceID, link, title, desc    sql.NullString
		neighborhood, city                     sql.NullString
		price, sqft                            sql.NullInt64
		beds, baths                            sql.NullFloat64
		air, parking, garage, dishwasher, pets sql.NullInt64
		createdAt, postedAt                    nullTime
	)
	if err := rows.Scan(
		&l.ID, &source, &sourceID, &link, &title, &desc,
		&price, &beds, &baths, &sqft,
		&air, &parking, &garage, &dishwasher, &pets,
		&neighborhood, &city, &createdAt, &postedAt,
	); err != nil {
		return nil, err
	}

	l.Source = source.String
	l.SourceID = stringPtr(sourceID)
	l.URL = link.String
	l.Title = title.String
	l.Description = desc.String
	l.Price = intPtr(price)
	l.Bedrooms = floatPtr(beds)
	l.Bathrooms = floatPtr(baths)
	l.Sqft = intPtr(sqft)
	l.HasCentralAir = air.Int64 != 0
	l.HasOffstreetParking = parking.Int64 != 0
	l.HasGarage = garage.Int64 != 0
	l.HasDishwasher = dishwasher.Int64 != 0
	l.PetsAllowed = pets.Int64 != 0
	l.Neighborhood = stringPtr(neighborhood)
	l.City = stringPtr(city)
	if createdAt.Valid {
		l.CreatedAt = createdAt.Time
	}
	if postedAt.Valid {
		t := postedAt.Time
		l.PostedAt = &t
	}
	return &l, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func optString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func optInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func optFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
