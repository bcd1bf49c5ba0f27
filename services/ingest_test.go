package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gr-rentals/models"
	"gr-rentals/storage"
	"gr-rentals/utils"
)

type fakeSource struct {
	entries []models.FeedEntry
	err     error
}

func (f *fakeSource) Fetch(context.Context) ([]models.FeedEntry, error) {
	return f.entries, f.err
}

type failingWriter struct {
	calls int
}

func (w *failingWriter) Upsert(context.Context, *models.Listing) error {
	w.calls++
	if w.calls > 1 {
		return fmt.Errorf("%w: disk full", utils.ErrStorage)
	}
	return nil
}

func (w *failingWriter) Close() error { return nil }

func openStore(t *testing.T) *storage.SQLStore {
	t.Helper()
	dsn := "sqlite:" + filepath.Join(t.TempDir(), "rentals.db")
	s, err := storage.Open(context.Background(), dsn, storage.Options{PingAttempts: 1}, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

const testLink = "https://grandrapids.craigslist.org/apa/d/grand-rapids-2br/123456789.html"

func TestIngestFeedEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	src := &fakeSource{entries: []models.FeedEntry{{
		Title:     "2 bed, 1 bath, $950/mo, central air, garage",
		Summary:   "<p>Freshly painted</p>",
		Link:      testLink,
		Published: "Wed, 01 May 2024 08:30:00 -0400",
	}}}

	report, err := NewIngestor(src, store, newTestLogger()).IngestFeed(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)
	require.NotEmpty(t, report.RunID)

	rows, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	l := rows[0]
	require.Equal(t, "craigslist", l.Source)
	require.Equal(t, "123456789", *l.SourceID)
	require.Equal(t, 950, *l.Price)
	require.Equal(t, 2.0, *l.Bedrooms)
	require.Equal(t, 1.0, *l.Bathrooms)
	require.True(t, l.HasCentralAir)
	require.True(t, l.HasGarage)
	require.False(t, l.HasOffstreetParking)
	require.Nil(t, l.Neighborhood)
}

func TestIngestFeedTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	src := &fakeSource{entries: []models.FeedEntry{{Title: "2BR $900", Link: testLink}}}
	in := NewIngestor(src, store, newTestLogger())

	_, err := in.IngestFeed(ctx)
	require.NoError(t, err)

	src.entries = []models.FeedEntry{{Title: "2BR $975 price drop", Link: testLink}}
	_, err = in.IngestFeed(ctx)
	require.NoError(t, err)

	rows, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 975, *rows[0].Price)
	require.Equal(t, "2BR $975 price drop", rows[0].Title)
}

func TestIngestFeedSkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	src := &fakeSource{entries: []models.FeedEntry{
		{Summary: "orphan description"},
		{Title: "1 bed $700", Link: "https://example.org/apa/1.html"},
		{Title: "no link but a title $800"},
	}}

	report, err := NewIngestor(src, store, newTestLogger()).IngestFeed(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Processed)
	require.Equal(t, 1, report.Skipped)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestIngestFeedFetchErrorAborts(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	src := &fakeSource{err: fmt.Errorf("%w: GET feed: status 503", utils.ErrFetch)}

	report, err := NewIngestor(src, store, newTestLogger()).IngestFeed(ctx)
	require.ErrorIs(t, err, utils.ErrFetch)
	require.Equal(t, 0, report.Processed)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestIngestFeedStorageErrorAborts(t *testing.T) {
	src := &fakeSource{entries: []models.FeedEntry{
		{Title: "a", Link: "https://example.org/1"},
		{Title: "b", Link: "https://example.org/2"},
		{Title: "c", Link: "https://example.org/3"},
	}}
	w := &failingWriter{}

	report, err := NewIngestor(src, w, newTestLogger()).IngestFeed(context.Background())
	require.ErrorIs(t, err, utils.ErrStorage)
	require.Equal(t, 1, report.Processed)
	require.Equal(t, 2, w.calls)
}

func TestIngestFeedWithoutSource(t *testing.T) {
	_, err := NewIngestor(nil, &failingWriter{}, newTestLogger()).IngestFeed(context.Background())
	require.True(t, errors.Is(err, utils.ErrConfig))
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manual.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIngestCSV(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	path := writeCSV(t, "url,title,description,price,bedrooms,bathrooms,sqft,has_central_air,has_offstreet_prk,has_garage,has_dishwasher,pets_allowed,neighborhood,city,posted_at\n"+
		"https://example.org/m/1,Duplex,,1100,,1,900,1,0,,,,,Grand Rapids,2024-04-30\n"+
		",No url,,1,,,,,,,,,,,\n"+
		"https://example.org/m/2,House,,call,3,2,,0,1,1,1,1,Eastown,,\n")

	in := NewIngestor(nil, store, newTestLogger())
	report, err := in.IngestCSV(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 2, report.Processed)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, models.SourceManual, report.Source)

	// a second import updates in place
	_, err = in.IngestCSV(ctx, path)
	require.NoError(t, err)

	rows, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byURL := map[string]*models.Listing{}
	for _, r := range rows {
		byURL[r.URL] = r
	}

	duplex := byURL["https://example.org/m/1"]
	require.NotNil(t, duplex)
	require.Equal(t, StableID("manual", nil, "https://example.org/m/1"), duplex.ID)
	require.Nil(t, duplex.Bedrooms, "empty bedrooms must be NULL")
	require.Equal(t, 1100, *duplex.Price)
	require.True(t, duplex.HasCentralAir)
	require.False(t, duplex.HasGarage)

	house := byURL["https://example.org/m/2"]
	require.NotNil(t, house)
	require.Nil(t, house.Price)
	require.Equal(t, 3.0, *house.Bedrooms)
	require.True(t, house.PetsAllowed)
	require.Equal(t, "Eastown", *house.Neighborhood)
}

func TestIngestCSVMissingFile(t *testing.T) {
	_, err := NewIngestor(nil, &failingWriter{}, newTestLogger()).IngestCSV(context.Background(), "/nonexistent/manual.csv")
	require.Error(t, err)
}
