package dashboard

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"gr-rentals/models"
	"gr-rentals/services"
	"gr-rentals/storage"
)

type columnView struct {
	Name   string
	Label  string
	Href   string
	Active bool
	Desc   bool
}

type indexView struct {
	Empty     bool
	Bounds    services.Bounds
	Filter    services.Filter
	Selected  map[string]bool
	TriStates []services.TriState
	Summary   models.Summary
	Rows      []*models.Listing
	Columns   []columnView
	Chart     template.HTML
	CSVHref   string
	Auth      bool
}

type loginView struct {
	Error string
}

type apiResponse struct {
	Summary  models.Summary    `json:"summary"`
	Listings []*models.Listing `json:"listings"`
}

var columnLabels = map[string]string{
	"source":            "Source",
	"price":             "Price",
	"bedrooms":          "Beds",
	"bathrooms":         "Baths",
	"sqft":              "Sq ft",
	"has_central_air":   "Central air",
	"has_offstreet_prk": "Parking",
	"has_garage":        "Garage",
	"has_dishwasher":    "Dishwasher",
	"pets_allowed":      "Pets",
	"neighborhood":      "Neighborhood",
	"city":              "City",
	"title":             "Title",
	"url":               "URL",
	"posted_at":         "Posted",
}

// query is the parsed dashboard state shared by every listing view.
type query struct {
	filter services.Filter
	bounds services.Bounds
	sort   string
	desc   bool
}

// parseQuery reads filter and sort parameters, falling back to the defaults
// derived from the data. No source boxes ticked means every source.
func parseQuery(v url.Values, listings []*models.Listing) query {
	b := services.ComputeBounds(listings)
	f := services.DefaultFilter(b)

	for _, src := range v["source"] {
		if src != "" {
			f.Sources = append(f.Sources, src)
		}
	}
	f.BedMin = floatParam(v, "bed_min", f.BedMin)
	f.BedMax = floatParam(v, "bed_max", f.BedMax)
	f.PriceMin = intParam(v, "price_min", f.PriceMin)
	f.PriceMax = intParam(v, "price_max", f.PriceMax)
	f.CentralAir = services.ParseTriState(v.Get("air"))
	f.Parking = services.ParseTriState(v.Get("parking"))

	q := query{filter: f, bounds: b, sort: "price"}
	if s := v.Get("sort"); s != "" {
		q.sort = s
	}
	q.desc = v.Get("dir") == "desc"
	return q
}

func (q query) apply(listings []*models.Listing) []*models.Listing {
	rows := q.filter.Apply(listings)
	services.SortListings(rows, q.sort, q.desc)
	return rows
}

func floatParam(v url.Values, key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(v.Get(key), 64); err == nil {
		return f
	}
	return fallback
}

func intParam(v url.Values, key string, fallback int) int {
	if n, err := strconv.Atoi(v.Get(key)); err == nil {
		return n
	}
	return fallback
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	listings, err := s.loadListings(r.Context())
	if err != nil {
		s.logger.Error("[dashboard] Load failed: %v", err)
		http.Error(w, "could not load listings", http.StatusInternalServerError)
		return
	}

	view := indexView{Auth: s.authEnabled(), TriStates: []services.TriState{services.Any, services.Yes, services.No}}
	if len(listings) == 0 {
		view.Empty = true
		s.render(w, http.StatusOK, "index.html", view)
		return
	}

	v := r.URL.Query()
	q := parseQuery(v, listings)
	rows := q.apply(listings)

	view.Bounds = q.bounds
	view.Filter = q.filter
	view.Selected = selectedSources(q)
	view.Summary = s.insights.Generate(rows)
	view.Rows = rows
	view.Columns = sortColumns(v, q)
	view.Chart = scatterSVG(rows)
	view.CSVHref = "/listings.csv?" + v.Encode()

	s.render(w, http.StatusOK, "index.html", view)
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	listings, err := s.loadListings(r.Context())
	if err != nil {
		s.logger.Error("[dashboard] Load failed: %v", err)
		http.Error(w, "could not load listings", http.StatusInternalServerError)
		return
	}
	rows := parseQuery(r.URL.Query(), listings).apply(listings)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="listings.csv"`)
	cw, err := storage.NewCSVStreamWriter(w)
	if err != nil {
		s.logger.Error("[dashboard] CSV export failed: %v", err)
		return
	}
	if err := cw.Write(rows); err != nil {
		s.logger.Error("[dashboard] CSV export failed: %v", err)
	}
	_ = cw.Close()
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	listings, err := s.loadListings(r.Context())
	if err != nil {
		s.logger.Error("[dashboard] Load failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load listings"})
		return
	}
	rows := parseQuery(r.URL.Query(), listings).apply(listings)
	writeJSON(w, http.StatusOK, apiResponse{
		Summary:  s.insights.Generate(rows),
		Listings: rows,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func selectedSources(q query) map[string]bool {
	selected := make(map[string]bool)
	if len(q.filter.Sources) == 0 {
		for _, src := range q.bounds.Sources {
			selected[src] = true
		}
		return selected
	}
	for _, src := range q.filter.Sources {
		selected[src] = true
	}
	return selected
}

// sortColumns builds header links; clicking the active column flips direction.
func sortColumns(v url.Values, q query) []columnView {
	cols := make([]columnView, 0, len(services.SortColumns))
	for _, name := range services.SortColumns {
		active := name == q.sort
		next := url.Values{}
		for k, vals := range v {
			next[k] = vals
		}
		next.Set("sort", name)
		if active && !q.desc {
			next.Set("dir", "desc")
		} else {
			next.Del("dir")
		}
		cols = append(cols, columnView{
			Name:   name,
			Label:  columnLabels[name],
			Href:   "/?" + next.Encode(),
			Active: active,
			Desc:   active && q.desc,
		})
	}
	return cols
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
