package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gr-rentals/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text string
		want *int
	}{
		{"$1,234", intp(1234)},
		{"$1234", intp(1234)},
		{"Rent: $ 875 per month", intp(875)},
		{"$950/mo", intp(950)},
		{"$1,200/mo, 2 bed, $50 pet fee", intp(1200)},
		{"$1,200.50", nil},
		{"asking $", nil},
		{"1200 per month", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := ParsePrice(tt.text)
		if !equalInt(got, tt.want) {
			t.Errorf("ParsePrice(%q) = %v; want %v", tt.text, deref(got), deref(tt.want))
		}
	}
}

func TestParseBedrooms(t *testing.T) {
	tests := []struct {
		text string
		want *float64
	}{
		{"2 bed", floatp(2)},
		{"2BR apartment", floatp(2)},
		{"Cozy 2br near downtown", floatp(2)},
		{"3 Bedrooms, 2 baths", floatp(3)},
		{"1.5 bd", floatp(1.5)},
		{"studio", nil},
	}

	for _, tt := range tests {
		got := ParseBedrooms(tt.text)
		if !equalFloat(got, tt.want) {
			t.Errorf("ParseBedrooms(%q) = %v; want %v", tt.text, derefF(got), derefF(tt.want))
		}
	}
}

func TestParseBathrooms(t *testing.T) {
	tests := []struct {
		text string
		want *float64
	}{
		{"2 bed, 1 bath", floatp(1)},
		{"1.5 BA", floatp(1.5)},
		{"2 bathrooms", floatp(2)},
		{"shared facilities", nil},
	}

	for _, tt := range tests {
		got := ParseBathrooms(tt.text)
		if !equalFloat(got, tt.want) {
			t.Errorf("ParseBathrooms(%q) = %v; want %v", tt.text, derefF(got), derefF(tt.want))
		}
	}
}

func TestParseSqft(t *testing.T) {
	tests := []struct {
		text string
		want *int
	}{
		{"850 sqft", intp(850)},
		{"1200 sq ft", intp(1200)},
		{"approx 950ft²", intp(950)},
		{"12 sqft closet", nil},
		{"000 sqft", nil},
		{"large yard", nil},
	}

	for _, tt := range tests {
		got := ParseSqft(tt.text)
		if !equalInt(got, tt.want) {
			t.Errorf("ParseSqft(%q) = %v; want %v", tt.text, deref(got), deref(tt.want))
		}
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		text string
		want models.Flags
	}{
		{
			text: "Central Air, attached GARAGE and a dishwasher",
			want: models.Flags{HasCentralAir: true, HasGarage: true, HasDishwasher: true},
		},
		{
			text: "Off-street parking in the driveway, cats ok",
			want: models.Flags{HasOffstreetParking: true, PetsAllowed: true},
		},
		{
			// presence only: the negation is not detected
			text: "pet friendly, no pets in unit 2",
			want: models.Flags{PetsAllowed: true},
		},
		{
			text: "quiet street",
			want: models.Flags{},
		},
	}

	for _, tt := range tests {
		got := ParseFlags(tt.text)
		if got != tt.want {
			t.Errorf("ParseFlags(%q) = %+v; want %+v", tt.text, got, tt.want)
		}
	}
}

func TestParseWhen(t *testing.T) {
	got := ParseWhen("Mon, 02 Jan 2006 15:04:05 -0700")
	require.NotNil(t, got)
	require.True(t, got.Equal(time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC)))

	got = ParseWhen("2024-03-05T10:00:00Z")
	require.NotNil(t, got)
	require.Equal(t, 2024, got.Year())
	require.Equal(t, time.March, got.Month())

	require.Nil(t, ParseWhen(""))
	require.Nil(t, ParseWhen("someday"))
}

func TestParseNeighborhoodAlwaysAbsent(t *testing.T) {
	require.Nil(t, ParseNeighborhood("2 bed in Eastown", "Walk to Wealthy Street"))
}

func intp(n int) *int { return &n }

func floatp(f float64) *float64 { return &f }

func equalInt(a, b *int) bool {
	return (a == nil && b == nil) || (a != nil && b != nil && *a == *b)
}

func equalFloat(a, b *float64) bool {
	return (a == nil && b == nil) || (a != nil && b != nil && *a == *b)
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefF(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
