package services

import (
	"sort"
	"strings"

	"gr-rentals/models"
)

// TriState is an Any/Yes/No amenity filter.
type TriState string

const (
	Any TriState = "Any"
	Yes TriState = "Yes"
	No  TriState = "No"
)

// ParseTriState accepts any casing of Any/Yes/No; anything else is Any.
func ParseTriState(s string) TriState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return Yes
	case "no":
		return No
	default:
		return Any
	}
}

func (t TriState) match(v bool) bool {
	switch t {
	case Yes:
		return v
	case No:
		return !v
	default:
		return true
	}
}

// Filter narrows the listing table the way the dashboard controls do.
// An empty Sources slice keeps every source.
type Filter struct {
	Sources    []string
	BedMin     float64
	BedMax     float64
	PriceMin   int
	PriceMax   int
	CentralAir TriState
	Parking    TriState
}

// Bounds are the slider limits derived from the data.
type Bounds struct {
	Sources  []string
	BedMax   float64
	PriceMax int
	HasBeds  bool
	HasPrice bool
}

// ComputeBounds finds the available sources and the upper range limits.
// Without any bedroom or price values the limits fall back to 5 and 5000.
func ComputeBounds(listings []*models.Listing) Bounds {
	b := Bounds{BedMax: 5, PriceMax: 5000}
	seen := make(map[string]bool)
	for _, l := range listings {
		if !seen[l.Source] {
			seen[l.Source] = true
			b.Sources = append(b.Sources, l.Source)
		}
		if l.Bedrooms != nil {
			if !b.HasBeds || *l.Bedrooms > b.BedMax {
				b.BedMax = *l.Bedrooms
			}
			b.HasBeds = true
		}
		if l.Price != nil {
			if !b.HasPrice || *l.Price > b.PriceMax {
				b.PriceMax = *l.Price
			}
			b.HasPrice = true
		}
	}
	sort.Strings(b.Sources)
	return b
}

// DefaultFilter selects everything within b.
func DefaultFilter(b Bounds) Filter {
	return Filter{
		BedMax:     b.BedMax,
		PriceMax:   b.PriceMax,
		CentralAir: Any,
		Parking:    Any,
	}
}

// Apply returns the listings matching f, keeping their order. An empty
// Sources slice keeps every source. Missing bedroom and price values count
// as 0, and each range is only enforced when the rows of the selected
// sources have at least one value in that column.
func (f Filter) Apply(listings []*models.Listing) []*models.Listing {
	selected := listings
	if len(f.Sources) > 0 {
		sources := make(map[string]bool, len(f.Sources))
		for _, s := range f.Sources {
			sources[s] = true
		}
		selected = make([]*models.Listing, 0, len(listings))
		for _, l := range listings {
			if sources[l.Source] {
				selected = append(selected, l)
			}
		}
	}
	b := ComputeBounds(selected)

	out := make([]*models.Listing, 0, len(selected))
	for _, l := range selected {
		if b.HasBeds {
			beds := 0.0
			if l.Bedrooms != nil {
				beds = *l.Bedrooms
			}
			if beds < f.BedMin || beds > f.BedMax {
				continue
			}
		}
		if b.HasPrice {
			price := 0
			if l.Price != nil {
				price = *l.Price
			}
			if price < f.PriceMin || price > f.PriceMax {
				continue
			}
		}
		if !f.CentralAir.match(l.HasCentralAir) || !f.Parking.match(l.HasOffstreetParking) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// SortColumns lists the columns the table can be ordered by.
var SortColumns = []string{
	"source", "price", "bedrooms", "bathrooms", "sqft",
	"has_central_air", "has_offstreet_prk", "has_garage", "has_dishwasher", "pets_allowed",
	"neighborhood", "city", "title", "url", "posted_at",
}

// SortListings orders listings in place by column, then by bedrooms when the
// column is price. Missing values always sort last regardless of direction.
// An unknown column falls back to price.
func SortListings(listings []*models.Listing, column string, desc bool) {
	keys := []string{column}
	if !validColumn(column) {
		keys = []string{"price"}
	}
	if keys[0] == "price" {
		keys = append(keys, "bedrooms")
	}

	sort.SliceStable(listings, func(i, j int) bool {
		for _, k := range keys {
			c := compareColumn(listings[i], listings[j], k, desc)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func validColumn(c string) bool {
	for _, s := range SortColumns {
		if s == c {
			return true
		}
	}
	return false
}

// compareColumn returns -1 when a sorts before b. Nulls go last, and desc
// only flips the order of present values.
func compareColumn(a, b *models.Listing, column string, desc bool) int {
	av, aok := columnValue(a, column)
	bv, bok := columnValue(b, column)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}

	c := 0
	switch x := av.(type) {
	case float64:
		y := bv.(float64)
		if x < y {
			c = -1
		} else if x > y {
			c = 1
		}
	case string:
		c = strings.Compare(x, bv.(string))
	}
	if desc {
		c = -c
	}
	return c
}

// columnValue returns a comparable value for column and whether it is present.
func columnValue(l *models.Listing, column string) (any, bool) {
	switch column {
	case "source":
		return l.Source, true
	case "price":
		return intValue(l.Price)
	case "bedrooms":
		return floatValue(l.Bedrooms)
	case "bathrooms":
		return floatValue(l.Bathrooms)
	case "sqft":
		return intValue(l.Sqft)
	case "has_central_air":
		return boolValue(l.HasCentralAir), true
	case "has_offstreet_prk":
		return boolValue(l.HasOffstreetParking), true
	case "has_garage":
		return boolValue(l.HasGarage), true
	case "has_dishwasher":
		return boolValue(l.HasDishwasher), true
	case "pets_allowed":
		return boolValue(l.PetsAllowed), true
	case "neighborhood":
		return stringValue(l.Neighborhood)
	case "city":
		return stringValue(l.City)
	case "title":
		return l.Title, true
	case "url":
		return l.URL, true
	case "posted_at":
		if l.PostedAt == nil {
			return nil, false
		}
		return float64(l.PostedAt.UnixNano()), true
	}
	return nil, false
}

func intValue(v *int) (any, bool) {
	if v == nil {
		return nil, false
	}
	return float64(*v), true
}

func floatValue(v *float64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func stringValue(v *string) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func boolValue(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
