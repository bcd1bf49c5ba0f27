package craigslist

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gr-rentals/utils"
)

const sampleRDF = `<?xml version="1.0" encoding="utf-8"?>
<rdf:RDF xmlns="http://purl.org/rss/1.0/"
         xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel rdf:about="https://grandrapids.craigslist.org/search/apa?format=rss">
    <title>craigslist grand rapids | apts/housing for rent</title>
    <link>https://grandrapids.craigslist.org/search/apa</link>
    <description></description>
  </channel>
  <item rdf:about="https://grandrapids.craigslist.org/apa/d/grand-rapids-2br/123456789.html">
    <title><![CDATA[2 bed, 1 bath, $950/mo, central air, garage]]></title>
    <link>https://grandrapids.craigslist.org/apa/d/grand-rapids-2br/123456789.html</link>
    <description><![CDATA[<p>Freshly painted.</p>]]></description>
    <dc:date>2024-05-01T08:30:00-04:00</dc:date>
  </item>
  <item rdf:about="https://grandrapids.craigslist.org/apa/d/wyoming-studio/987654321.html">
    <title>Studio near downtown $700</title>
    <link>https://grandrapids.craigslist.org/apa/d/wyoming-studio/987654321.html</link>
    <description>Heat included</description>
    <dc:date>2024-05-02T09:00:00-04:00</dc:date>
  </item>
</rdf:RDF>`

func quietLogger() *utils.Logger { return utils.NewLoggerWithLevel(io.Discard, "error") }

func TestParseFeedRDF(t *testing.T) {
	entries, err := ParseFeed([]byte(sampleRDF))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "2 bed, 1 bath, $950/mo, central air, garage", entries[0].Title)
	require.Equal(t, "https://grandrapids.craigslist.org/apa/d/grand-rapids-2br/123456789.html", entries[0].Link)
	require.Contains(t, entries[0].Summary, "Freshly painted.")
	require.Equal(t, "2024-05-01T08:30:00-04:00", entries[0].Published)
	require.Equal(t, "Studio near downtown $700", entries[1].Title)
}

func TestParseFeedRejectsGarbage(t *testing.T) {
	_, err := ParseFeed([]byte("<html><body>blocked</body></html>"))
	require.ErrorIs(t, err, utils.ErrFeedParse)
}

func TestScraperFetchOverHTTP(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRDF))
	}))
	defer srv.Close()

	s := NewWithFetcher(srv.URL, NewHTTPFetcher(5*time.Second, "rentals-test/1.0"), quietLogger())
	entries, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "rentals-test/1.0", gotUA)
}

func TestScraperFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewWithFetcher(srv.URL, NewHTTPFetcher(5*time.Second, "ua"), quietLogger())
	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, utils.ErrFetch)
	require.Contains(t, err.Error(), "403")
}

func TestScraperFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := NewWithFetcher(srv.URL, NewHTTPFetcher(50*time.Millisecond, "ua"), quietLogger())
	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, utils.ErrFetch)
}

func TestFindChromeBinaryPrefersConfigured(t *testing.T) {
	require.Equal(t, "/opt/chrome", findChromeBinary("/opt/chrome"))

	t.Setenv("CHROME_BIN", "/env/chrome")
	require.Equal(t, "/env/chrome", findChromeBinary(""))
}
