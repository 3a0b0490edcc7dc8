// Package catalogue loads optical galaxy catalogues (NED exports) and keeps
// the entries that fall inside the radio survey footprint.
package catalogue

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/radioxmatch/internal/monitoring"
)

// Entry is one optical catalogue row.
type Entry struct {
	Name string
	RA   float64 // degrees
	Dec  float64 // degrees
}

// Footprint decides whether a position is inside the survey area.
type Footprint interface {
	Contains(ra, dec float64) bool
}

// RowError describes a catalogue row that could not be parsed. Rows are
// skipped, never partially kept.
type RowError struct {
	Line   int
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalogue line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("catalogue line %d: %s", e.Line, e.Reason)
}

func (e *RowError) Unwrap() error { return e.Err }

// Stats summarises a load.
type Stats struct {
	Rows        int // data rows read, header excluded
	Kept        int
	OutOfBounds int
	Malformed   int
}

// Load reads the catalogue at path. See Parse.
func Load(path string, fp Footprint) ([]Entry, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()

	entries, stats, err := Parse(f, fp)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return entries, stats, nil
}

// Parse reads comma-delimited (name, ra, dec) rows after a single header row
// and returns the entries strictly inside fp, in input order. Extra columns
// are ignored. Malformed rows are logged and skipped.
func Parse(r io.Reader, fp Footprint) ([]Entry, Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		entries []Entry
		stats   Stats
		line    int
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Malformed++
				monitoring.Logf("skipping %v", &RowError{Line: perr.Line, Reason: "unparseable CSV", Err: err})
				continue
			}
			return nil, stats, fmt.Errorf("read catalogue: %w", err)
		}
		if line == 1 {
			continue // header
		}
		stats.Rows++

		entry, rowErr := parseRecord(line, record)
		if rowErr != nil {
			stats.Malformed++
			monitoring.Logf("skipping %v", rowErr)
			continue
		}
		if !fp.Contains(entry.RA, entry.Dec) {
			stats.OutOfBounds++
			continue
		}
		entries = append(entries, entry)
		stats.Kept++
	}
	return entries, stats, nil
}

func parseRecord(line int, record []string) (Entry, *RowError) {
	if len(record) < 3 {
		return Entry{}, &RowError{Line: line, Reason: fmt.Sprintf("expected 3 columns, got %d", len(record))}
	}
	name := strings.TrimSpace(record[0])
	if name == "" {
		return Entry{}, &RowError{Line: line, Reason: "empty name"}
	}
	ra, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return Entry{}, &RowError{Line: line, Reason: "bad ra", Err: err}
	}
	dec, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return Entry{}, &RowError{Line: line, Reason: "bad dec", Err: err}
	}
	return Entry{Name: name, RA: ra, Dec: dec}, nil
}
