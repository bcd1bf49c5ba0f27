package services

import (
	"bytes"
	"strings"
	"testing"

	"gr-rentals/models"
	"gr-rentals/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerWithLevel(&bytes.Buffer{}, "error") }

func sampleListings() []*models.Listing {
	return []*models.Listing{
		{Source: "craigslist", Title: "A", Price: intp(900), Bedrooms: floatp(1), URL: "https://example.org/1"},
		{Source: "craigslist", Title: "B", Price: intp(1500), Bedrooms: floatp(3), Flags: models.Flags{HasCentralAir: true}},
		{Source: "manual", Title: "C", Price: intp(1200), Bedrooms: nil, Flags: models.Flags{HasCentralAir: true, HasOffstreetParking: true}},
		{Source: "manual", Title: "D", Price: nil, Bedrooms: floatp(2)},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.Count != 4 {
		t.Errorf("Count: got %d, want 4", r.Count)
	}
	if r.WithCentralAir != 2 {
		t.Errorf("WithCentralAir: got %d, want 2", r.WithCentralAir)
	}
}

func TestInsightMedianAndAverage(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleListings())
	if r.MedianPrice != 1200 {
		t.Errorf("MedianPrice: got %d, want 1200", r.MedianPrice)
	}
	if r.AvgBedrooms != 2 {
		t.Errorf("AvgBedrooms: got %.2f, want 2.00", r.AvgBedrooms)
	}
}

func TestInsightEvenMedianTruncates(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate([]*models.Listing{
		{Price: intp(1000), Bedrooms: floatp(1)},
		{Price: intp(1001), Bedrooms: floatp(1)},
		{Price: intp(5), Bedrooms: floatp(2)},
		{Price: intp(2000)},
	})
	if r.MedianPrice != 1000 {
		t.Errorf("MedianPrice: got %d, want 1000", r.MedianPrice)
	}
	if r.AvgBedrooms != 1.33 {
		t.Errorf("AvgBedrooms: got %.4f, want 1.33", r.AvgBedrooms)
	}
}

func TestInsightEmpty(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r != (models.Summary{}) {
		t.Errorf("empty input: got %+v, want zero summary", r)
	}
}

func TestInsightNoValues(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate([]*models.Listing{{Source: "manual"}})
	if r.Count != 1 || r.MedianPrice != 0 || r.AvgBedrooms != 0 {
		t.Errorf("got %+v, want count 1 and zero metrics", r)
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	listings := sampleListings()
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(listings), CountBySource(listings))

	out := buf.String()
	for _, want := range []string{"Listings           : 4", "Median price       : $1200", "craigslist", "manual"} {
		if !strings.Contains(out, want) {
			t.Errorf("Print output missing %q:\n%s", want, out)
		}
	}
}
