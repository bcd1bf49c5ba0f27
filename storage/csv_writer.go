package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gr-rentals/models"
)

// CSVWriter writes listings in the manual-import column layout, so an
// export can be edited and imported again.
type CSVWriter struct {
	closer io.Closer
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w, err := newCSVWriter(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// NewCSVStreamWriter writes to an arbitrary stream, such as an HTTP response.
// Close flushes but does not close w.
func NewCSVStreamWriter(w io.Writer) (*CSVWriter, error) {
	return newCSVWriter(w, nil)
}

func newCSVWriter(w io.Writer, closer io.Closer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.CSVHeaders); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	cw.Flush()
	return &CSVWriter{closer: closer, writer: cw}, nil
}

// Write appends listings as rows.
func (c *CSVWriter) Write(listings []*models.Listing) error {
	for _, l := range listings {
		if err := c.writer.Write(csvRow(l)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return err
	}
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func csvRow(l *models.Listing) []string {
	return []string{
		l.URL,
		l.Title,
		l.Description,
		formatInt(l.Price),
		formatFloat(l.Bedrooms),
		formatFloat(l.Bathrooms),
		formatInt(l.Sqft),
		strconv.Itoa(boolToInt(l.HasCentralAir)),
		strconv.Itoa(boolToInt(l.HasOffstreetParking)),
		strconv.Itoa(boolToInt(l.HasGarage)),
		strconv.Itoa(boolToInt(l.HasDishwasher)),
		strconv.Itoa(boolToInt(l.PetsAllowed)),
		formatString(l.Neighborhood),
		formatString(l.City),
		formatTime(l.PostedAt),
	}
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
