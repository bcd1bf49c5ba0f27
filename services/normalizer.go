package services

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"gr-rentals/models"
)

// StableID hashes source|sourceID|url into the listing primary key.
// Absent parts contribute an empty string.
func StableID(source string, sourceID *string, rawURL string) string {
	sid := ""
	if sourceID != nil {
		sid = *sourceID
	}
	sum := sha256.Sum256([]byte(source + "|" + sid + "|" + rawURL))
	return hex.EncodeToString(sum[:])
}

var digitsRegexp = regexp.MustCompile(`[0-9]+`)

// SourceIDFromLink returns the last run of digits in the link's path, which
// for a Craigslist post is the post id after any digits in the slug.
func SourceIDFromLink(link string) *string {
	u, err := url.Parse(link)
	if err != nil {
		return nil
	}
	runs := digitsRegexp.FindAllString(u.Path, -1)
	if len(runs) == 0 {
		return nil
	}
	id := runs[len(runs)-1]
	return &id
}

// CleanHTML returns the visible text of an HTML fragment, one space between
// text nodes.
func CleanHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}

	var parts []string
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, " ")
}

func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// NormalizeFeedEntry runs every extractor over a feed entry and assembles
// the canonical row.
func NormalizeFeedEntry(e models.FeedEntry, now time.Time) *models.Listing {
	desc := CleanHTML(e.Summary)
	text := e.Title + "\n" + desc

	sid := SourceIDFromLink(e.Link)

	return &models.Listing{
		ID:           StableID(models.SourceCraigslist, sid, e.Link),
		Source:       models.SourceCraigslist,
		SourceID:     sid,
		URL:          e.Link,
		Title:        e.Title,
		Description:  desc,
		Price:        ParsePrice(text),
		Bedrooms:     ParseBedrooms(text),
		Bathrooms:    ParseBathrooms(text),
		Sqft:         ParseSqft(text),
		Flags:        ParseFlags(text),
		Neighborhood: ParseNeighborhood(e.Title, desc),
		City:         nil,
		CreatedAt:    now.UTC(),
		PostedAt:     ParseWhen(e.Published),
	}
}

// NormalizeCSVRow coerces a manual-import row keyed by models.CSVHeaders.
// Columns that are present but unparseable are stored as absent and
// reported in the returned slice.
func NormalizeCSVRow(row map[string]string, now time.Time) (*models.Listing, []string) {
	var bad []string
	get := func(k string) string { return strings.TrimSpace(row[k]) }

	intCol := func(k string) *int {
		v := get(k)
		if v == "" {
			return nil
		}
		n := toInt(v)
		if n == nil {
			bad = append(bad, k)
		}
		return n
	}
	sqftCol := func() *int {
		n := intCol("sqft")
		if n != nil && *n == 0 {
			bad = append(bad, "sqft")
			return nil
		}
		return n
	}
	floatCol := func(k string) *float64 {
		v := get(k)
		if v == "" {
			return nil
		}
		f := toFloat(strings.ReplaceAll(v, ",", ""))
		if f == nil {
			bad = append(bad, k)
		}
		return f
	}
	boolCol := func(k string) bool {
		v := get(k)
		if v == "" {
			return false
		}
		if n, err := strconv.Atoi(v); err == nil {
			return n != 0
		}
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		bad = append(bad, k)
		return false
	}
	strCol := func(k string) *string {
		v := get(k)
		if v == "" {
			return nil
		}
		return &v
	}

	link := get("url")
	l := &models.Listing{
		ID:          StableID(models.SourceManual, nil, link),
		Source:      models.SourceManual,
		URL:         link,
		Title:       row["title"],
		Description: row["description"],
		Price:       intCol("price"),
		Bedrooms:    floatCol("bedrooms"),
		Bathrooms:   floatCol("bathrooms"),
		Sqft:        sqftCol(),
		Flags: models.Flags{
			HasCentralAir:       boolCol("has_central_air"),
			HasOffstreetParking: boolCol("has_offstreet_prk"),
			HasGarage:           boolCol("has_garage"),
			HasDishwasher:       boolCol("has_dishwasher"),
			PetsAllowed:         boolCol("pets_allowed"),
		},
		Neighborhood: strCol("neighborhood"),
		City:         strCol("city"),
		CreatedAt:    now.UTC(),
	}

	if v := get("posted_at"); v != "" {
		l.PostedAt = ParseWhen(v)
		if l.PostedAt == nil {
			bad = append(bad, "posted_at")
		}
	}

	return l, bad
}
