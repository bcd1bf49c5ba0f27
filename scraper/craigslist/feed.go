package craigslist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"gr-rentals/config"
	"gr-rentals/models"
	"gr-rentals/utils"
)

// maxFeedBytes caps how much of a response is read.
const maxFeedBytes = 10 << 20

// Fetcher retrieves the raw feed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is a plain GET with a browser-like User-Agent.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", utils.ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/rdf+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", utils.ErrFetch, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %d", utils.ErrFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", utils.ErrFetch, err)
	}
	return body, nil
}

// Scraper turns the configured Craigslist RSS search into feed entries.
type Scraper struct {
	feedURL string
	fetcher Fetcher
	logger  *utils.Logger
}

// New picks the fetcher from cfg.FetchMode.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	var fetcher Fetcher
	if cfg.FetchMode == "browser" {
		fetcher = NewBrowserFetcher(cfg.FetchTimeout(), cfg.UserAgent, cfg.ChromeBin, logger)
	} else {
		fetcher = NewHTTPFetcher(cfg.FetchTimeout(), cfg.UserAgent)
	}
	return NewWithFetcher(cfg.FeedURL, fetcher, logger)
}

func NewWithFetcher(feedURL string, fetcher Fetcher, logger *utils.Logger) *Scraper {
	return &Scraper{feedURL: feedURL, fetcher: fetcher, logger: logger}
}

// Fetch downloads and parses the feed. A failed request or an unparseable
// document fails the whole call.
func (s *Scraper) Fetch(ctx context.Context) ([]models.FeedEntry, error) {
	s.logger.Info("[craigslist] Fetching %s", s.feedURL)

	body, err := s.fetcher.Fetch(ctx, s.feedURL)
	if err != nil {
		return nil, err
	}

	entries, err := ParseFeed(body)
	if err != nil {
		return nil, err
	}

	s.logger.Info("[craigslist] Feed returned %d entries", len(entries))
	return entries, nil
}

// ParseFeed reads an RSS 1.0/2.0 or Atom document into feed entries.
// Items keep their source order.
func ParseFeed(data []byte) ([]models.FeedEntry, error) {
	feed, err := gofeed.NewParser().ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrFeedParse, err)
	}

	entries := make([]models.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		summary := item.Description
		if strings.TrimSpace(summary) == "" {
			summary = item.Content
		}
		published := item.Published
		if published == "" {
			published = item.Updated
		}
		entries = append(entries, models.FeedEntry{
			Title:     strings.TrimSpace(item.Title),
			Summary:   summary,
			Link:      strings.TrimSpace(item.Link),
			Published: published,
		})
	}
	return entries, nil
}
