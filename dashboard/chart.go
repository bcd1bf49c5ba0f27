package dashboard

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"gr-rentals/models"
)

const (
	chartWidth  = 640
	chartHeight = 360
	chartMargin = 48
	maxXTicks   = 10
)

// scatterSVG plots price against bedrooms for rows that have both. It
// returns an empty string when there is nothing to plot.
func scatterSVG(listings []*models.Listing) template.HTML {
	type point struct {
		beds  float64
		price int
		title string
		url   string
	}
	var points []point
	maxBeds, maxPrice := 1.0, 1
	for _, l := range listings {
		if l.Bedrooms == nil || l.Price == nil || math.IsNaN(*l.Bedrooms) || math.IsInf(*l.Bedrooms, 0) {
			continue
		}
		points = append(points, point{*l.Bedrooms, *l.Price, l.Title, l.URL})
		maxBeds = math.Max(maxBeds, *l.Bedrooms)
		if *l.Price > maxPrice {
			maxPrice = *l.Price
		}
	}
	if len(points) == 0 {
		return ""
	}

	xMax, xStep := math.Ceil(maxBeds), 1.0
	if xMax > maxXTicks {
		xMax = niceCeil(maxBeds)
		xStep = xMax / 5
	}
	yMax := niceCeil(float64(maxPrice))
	plotW := float64(chartWidth - 2*chartMargin)
	plotH := float64(chartHeight - 2*chartMargin)
	x := func(v float64) float64 { return chartMargin + v/xMax*plotW }
	y := func(v float64) float64 { return chartHeight - chartMargin - v/yMax*plotH }

	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="scatter" viewBox="0 0 %d %d" role="img" aria-label="Price vs bedrooms">`, chartWidth, chartHeight)

	// axes
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="axis"/>`, chartMargin, chartHeight-chartMargin, chartWidth-chartMargin, chartHeight-chartMargin)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="axis"/>`, chartMargin, chartMargin, chartMargin, chartHeight-chartMargin)

	for i := 0.0; i <= xMax; i += xStep {
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" class="tick" text-anchor="middle">%g</text>`, x(i), chartHeight-chartMargin+18, i)
	}
	for i := 0; i <= 4; i++ {
		v := yMax * float64(i) / 4
		fmt.Fprintf(&b, `<text x="%d" y="%.1f" class="tick" text-anchor="end">$%d</text>`, chartMargin-6, y(v)+4, int(v))
	}
	fmt.Fprintf(&b, `<text x="%d" y="%d" class="label" text-anchor="middle">Bedrooms</text>`, chartWidth/2, chartHeight-8)
	fmt.Fprintf(&b, `<text x="14" y="%d" class="label" text-anchor="middle" transform="rotate(-90 14 %d)">Price</text>`, chartHeight/2, chartHeight/2)

	for _, p := range points {
		circle := fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="5" class="point"><title>%s: $%d, %g bd</title></circle>`,
			x(p.beds), y(float64(p.price)), template.HTMLEscapeString(p.title), p.price, p.beds)
		if isWebURL(p.url) {
			fmt.Fprintf(&b, `<a href="%s" target="_blank" rel="noopener">%s</a>`, template.HTMLEscapeString(p.url), circle)
		} else {
			b.WriteString(circle)
		}
	}

	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

func isWebURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// niceCeil rounds up to 1, 2 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if v <= m*exp {
			return m * exp
		}
	}
	return 10 * exp
}
