package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"gr-rentals/models"
	"gr-rentals/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the dashboard metrics over listings. Listings without a
// price or bedroom count are left out of the median and the average; both
// are 0 when nothing qualifies.
func (s *InsightService) Generate(listings []*models.Listing) models.Summary {
	summary := models.Summary{Count: len(listings)}
	if len(listings) == 0 {
		return summary
	}

	var prices []int
	var bedTotal float64
	var bedCount int

	for _, l := range listings {
		if l.Price != nil {
			prices = append(prices, *l.Price)
		}
		if l.Bedrooms != nil {
			bedTotal += *l.Bedrooms
			bedCount++
		}
		if l.HasCentralAir {
			summary.WithCentralAir++
		}
	}

	summary.MedianPrice = median(prices)
	if bedCount > 0 {
		summary.AvgBedrooms = round2(bedTotal / float64(bedCount))
	}

	s.logger.Debug("[insights] %d listings, %d priced, %d with bedrooms", len(listings), len(prices), bedCount)
	return summary
}

// Print writes a plain-text summary for the terminal.
func (s *InsightService) Print(w io.Writer, summary models.Summary, bySource map[string]int) {
	sep := strings.Repeat("═", 44)
	thin := strings.Repeat("─", 44)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  GRAND RAPIDS RENTALS\n")
	fmt.Fprintf(w, "%s\n\n", sep)

	fmt.Fprintf(w, "  Listings           : %d\n", summary.Count)
	fmt.Fprintf(w, "  Median price       : $%d\n", summary.MedianPrice)
	fmt.Fprintf(w, "  Avg bedrooms       : %.2f\n", summary.AvgBedrooms)
	fmt.Fprintf(w, "  With central air   : %d\n", summary.WithCentralAir)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  By source\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(bySource) == 0 {
		fmt.Fprintf(w, "  No data yet\n")
	}
	sources := make([]string, 0, len(bySource))
	for src := range bySource {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		fmt.Fprintf(w, "  %-18s %d\n", src, bySource[src])
	}

	fmt.Fprintf(w, "\n%s\n\n", sep)
}

// CountBySource tallies listings per source tag.
func CountBySource(listings []*models.Listing) map[string]int {
	counts := make(map[string]int)
	for _, l := range listings {
		counts[l.Source]++
	}
	return counts
}

// median returns the integer part of the median, 0 for an empty slice.
func median(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return int(float64(sorted[mid-1]+sorted[mid]) / 2)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
