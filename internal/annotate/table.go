// Package annotate turns cross-match results into the two artefacts consumed
// downstream: a kvis annotation file marking each match, and a positional
// match table (full_name, ra, dec) used by the image renderer.
package annotate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/banshee-data/radioxmatch/internal/crossmatch"
)

// Row is one matched galaxy.
type Row struct {
	FullName         string
	RA               float64
	Dec              float64
	SeparationArcsec float64
}

// Table is the ordered match table. Rows are addressed by position; the
// position doubles as the figure index of the rendered overlay.
type Table struct {
	Name string
	Rows []Row
}

// NewTable projects match results into a table.
func NewTable(name string, matches []crossmatch.Match) *Table {
	t := &Table{Name: name, Rows: make([]Row, len(matches))}
	for i, m := range matches {
		t.Rows[i] = Row{
			FullName:         m.Entry.Name,
			RA:               m.Entry.RA,
			Dec:              m.Entry.Dec,
			SeparationArcsec: m.SeparationArcsec,
		}
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Coords returns the (ra, dec) pairs of every row in table order.
func (t *Table) Coords() [][2]float64 {
	out := make([][2]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = [2]float64{r.RA, r.Dec}
	}
	return out
}

var csvHeader = []string{"full_name", "ra", "dec", "separation_arcsec"}

// WriteCSV writes the table with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := []string{
			r.FullName,
			formatFloat(r.RA),
			formatFloat(r.Dec),
			strconv.FormatFloat(r.SeparationArcsec, 'f', 4, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the table to path.
func (t *Table) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create match table: %w", err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write match table: %w", err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
