package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"gr-rentals/models"
)

var (
	// priceRegexp captures the numeral after the first dollar sign
	priceRegexp = regexp.MustCompile(`\$\s*([0-9][0-9,.]*)`)
	bedRegexp   = regexp.MustCompile(`(?i)(\d+(\.\d+)?)\s*(bed|bd|br|brm|bedroom)s?`)
	bathRegexp  = regexp.MustCompile(`(?i)(\d+(\.\d+)?)\s*(bath|ba|bathroom)s?`)
	sqftRegexp  = regexp.MustCompile(`(?i)(\d{3,5})\s*(sq\s?ft|ft²|sqft)`)
)

// Phrase lists for the amenity flags. Matching is a lower-cased substring
// test, so negations ("no pets") are not detected.
var (
	centralAirPhrases = []string{"central air", "central a/c", "central ac", "air conditioning", "a/c", "ac included"}
	parkingPhrases    = []string{"off-street parking", "off street parking", "driveway", "assigned parking", "lot parking"}
	garagePhrases     = []string{"garage", "detached garage", "attached garage"}
	dishwasherPhrases = []string{"dishwasher", "d/w"}
	petPhrases        = []string{"pets ok", "cats ok", "dogs ok", "pet friendly"}
)

// ParsePrice returns the first dollar amount in text as an integer.
// Only the first match is considered, even when it is not the rent.
func ParsePrice(text string) *int {
	m := priceRegexp.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return toInt(m[1])
}

// ParseBedrooms returns the count in the first "<n> bed"-style phrase.
func ParseBedrooms(text string) *float64 {
	return firstFloat(bedRegexp, text)
}

// ParseBathrooms returns the count in the first "<n> bath"-style phrase.
func ParseBathrooms(text string) *float64 {
	return firstFloat(bathRegexp, text)
}

// ParseSqft returns the first 3-5 digit number followed by a square-footage unit.
func ParseSqft(text string) *int {
	m := sqftRegexp.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return positive(toInt(m[1]))
}

// ParseFlags tests text against each amenity's phrase list.
func ParseFlags(text string) models.Flags {
	t := strings.ToLower(text)
	return models.Flags{
		HasCentralAir:       containsAny(t, centralAirPhrases),
		HasOffstreetParking: containsAny(t, parkingPhrases),
		HasGarage:           containsAny(t, garagePhrases),
		HasDishwasher:       containsAny(t, dishwasherPhrases),
		PetsAllowed:         containsAny(t, petPhrases),
	}
}

// ParseWhen parses a free-form date such as an RSS pubDate or an ISO-8601
// timestamp. Unparseable input yields nil.
func ParseWhen(text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	t, err := dateparse.ParseAny(text)
	if err != nil {
		return nil
	}
	return &t
}

// ParseNeighborhood is reserved for neighborhood inference, which is not
// implemented; it always reports absent.
func ParseNeighborhood(title, description string) *string {
	return nil
}

func firstFloat(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return toFloat(m[1])
}

// toInt strips thousands separators and dollar signs, then parses a
// non-negative integer. Anything else (a decimal part, a stray dot, a minus
// sign) is absent.
func toInt(raw string) *int {
	cleaned := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(raw))
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// toFloat parses a finite, non-negative decimal.
func toFloat(raw string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// positive drops zero; square footage is never 0.
func positive(n *int) *int {
	if n == nil || *n <= 0 {
		return nil
	}
	return n
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
