package annotate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Directive is one kvis drawing instruction, e.g. "CIRCLE W 90 -32 0.01 0.01".
type Directive struct {
	Shape  string
	Mode   string
	RA     float64
	Dec    float64
	Width  float64
	Length float64
}

// String renders the directive as bare space-separated tokens. kvis rejects
// brackets, quotes and commas, so none are emitted.
func (d Directive) String() string {
	return strings.Join([]string{
		d.Shape,
		d.Mode,
		formatFloat(d.RA),
		formatFloat(d.Dec),
		formatFloat(d.Width),
		formatFloat(d.Length),
	}, " ")
}

// Style fixes the non-positional tokens of every directive.
type Style struct {
	Shape string
	Mode  string
	Size  float64
}

// DefaultStyle matches the markers used for the S190510g field.
var DefaultStyle = Style{Shape: "CIRCLE", Mode: "W", Size: 0.01}

// Directives builds one directive per table row, in table order.
func Directives(t *Table, s Style) []Directive {
	out := make([]Directive, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = Directive{Shape: s.Shape, Mode: s.Mode, RA: r.RA, Dec: r.Dec, Width: s.Size, Length: s.Size}
	}
	return out
}

// Write emits one line per row.
func Write(w io.Writer, t *Table, s Style) error {
	bw := bufio.NewWriter(w)
	for _, d := range Directives(t, s) {
		if _, err := bw.WriteString(d.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save writes the annotation file to path.
func Save(path string, t *Table, s Style) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create annotation file: %w", err)
	}
	if err := Write(f, t, s); err != nil {
		f.Close()
		return fmt.Errorf("write annotation file: %w", err)
	}
	return f.Close()
}

// ParseDirective parses a line written by Write.
func ParseDirective(line string) (Directive, error) {
	fields := strings.Fields(line)
	if len(fields) != 6 {
		return Directive{}, fmt.Errorf("expected 6 tokens, got %d", len(fields))
	}
	nums := make([]float64, 4)
	for i, f := range fields[2:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Directive{}, fmt.Errorf("token %d: %w", i+2, err)
		}
		nums[i] = v
	}
	return Directive{
		Shape: fields[0], Mode: fields[1],
		RA: nums[0], Dec: nums[1], Width: nums[2], Length: nums[3],
	}, nil
}

// Parse reads every non-blank line of an annotation stream.
func Parse(r io.Reader) ([]Directive, error) {
	var out []Directive
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		d, err := ParseDirective(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, d)
	}
	return out, sc.Err()
}
