package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// EachCSVRow reads the CSV at path and calls fn for every data row, keyed by
// the header names. line is the 1-based line number of the row in the file.
// Returning an error from fn stops the scan.
func EachCSVRow(path string, fn func(line int, row map[string]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	return eachCSVRow(f, fn)
}

func eachCSVRow(r io.Reader, fn func(line int, row map[string]string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("csv: read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv: read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		if err := fn(line, row); err != nil {
			return err
		}
	}
}
