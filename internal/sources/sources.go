// Package sources reads radio detections out of source-finder annotation
// files (kvis .ann). Only rows whose third and fourth whitespace-separated
// fields parse as numbers are detections; drawing directives such as
// "COLOR GREEN" and comment lines are skipped.
package sources

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/radioxmatch/internal/monitoring"
)

// Column indices of the detection position within an annotation row.
const (
	RAColumn  = 2
	DecColumn = 3
)

// Detection is a radio source position in degrees.
type Detection struct {
	RA  float64
	Dec float64
}

// RowError describes an annotation row that carries no usable position.
type RowError struct {
	File   string
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// Parse reads detections from one annotation stream in file order. name is
// used only for diagnostics. It returns the number of skipped rows.
func Parse(r io.Reader, name string) ([]Detection, int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		out     []Detection
		skipped int
		line    int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) <= DecColumn {
			skipped++
			monitoring.Logf("skipping %v", &RowError{File: name, Line: line, Reason: fmt.Sprintf("only %d fields", len(fields))})
			continue
		}
		ra, errRA := strconv.ParseFloat(fields[RAColumn], 64)
		dec, errDec := strconv.ParseFloat(fields[DecColumn], 64)
		if errRA != nil || errDec != nil {
			skipped++
			monitoring.Logf("skipping %v", &RowError{File: name, Line: line, Reason: "non-numeric position"})
			continue
		}
		out = append(out, Detection{RA: ra, Dec: dec})
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read %s: %w", name, err)
	}
	return out, skipped, nil
}

// LoadFile reads one annotation file.
func LoadFile(path string) ([]Detection, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open annotation file: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// LoadAll reads every annotation file in the given order and concatenates
// their detections. Duplicates across files are kept.
func LoadAll(paths []string) ([]Detection, error) {
	var all []Detection
	for _, p := range paths {
		dets, skipped, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		monitoring.Logf("loaded %d detections from %s (%d rows skipped)", len(dets), p, skipped)
		all = append(all, dets...)
	}
	return all, nil
}
