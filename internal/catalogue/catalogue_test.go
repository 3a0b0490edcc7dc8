package catalogue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radioxmatch/internal/config"
	"github.com/banshee-data/radioxmatch/internal/monitoring"
)

func TestParseKeepsOnlyRowsInsideBounds(t *testing.T) {
	defer monitoring.SetLogger(monitoring.Logf)
	monitoring.SetLogger(nil)

	input := strings.Join([]string{
		"objname,ra,dec",
		"ESO 364- G 010,90.0,-32.0",
		"WISEA J064000.00-320000.0,100.0,-32.0", // outside max_ra
		"2MASX J06000002-3200000,90.0001,-32.0",
		"edge ra,93.4917,-32.0", // boundary excluded
		"edge dec,90.0,-36.3556",
		"below dec,90.0,-40.0",
	}, "\n")

	entries, stats, err := Parse(strings.NewReader(input), config.DefaultBounds)
	require.NoError(t, err)

	want := []Entry{
		{Name: "ESO 364- G 010", RA: 90.0, Dec: -32.0},
		{Name: "2MASX J06000002-3200000", RA: 90.0001, Dec: -32.0},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Stats{Rows: 6, Kept: 2, OutOfBounds: 4}, stats)
}

func TestParseSkipsMalformedRows(t *testing.T) {
	var logs []string
	restore := monitoring.Capture(&logs)
	defer restore()

	input := strings.Join([]string{
		"objname,ra,dec",
		"short row,90.0",
		"bad ra,ninety,-32.0",
		"bad dec,90.0,",
		",90.0,-32.0",
		"good,91.5,-33.25,extra,columns",
	}, "\n")

	entries, stats, err := Parse(strings.NewReader(input), config.DefaultBounds)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{Name: "good", RA: 91.5, Dec: -33.25}, entries[0])
	assert.Equal(t, 4, stats.Malformed)
	assert.Len(t, logs, 4)
	assert.Contains(t, logs[1], "bad ra")
}

func TestParseHeaderOnly(t *testing.T) {
	entries, stats, err := Parse(strings.NewReader("objname,ra,dec\n"), config.DefaultBounds)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, stats.Rows)
}

// The filter is exactly min < ra < max and min < dec < max for every row.
func TestParseBoundsProperty(t *testing.T) {
	defer monitoring.SetLogger(monitoring.Logf)
	monitoring.SetLogger(nil)

	b := config.Bounds{MinRA: 10, MaxRA: 20, MinDec: -5, MaxDec: 5}
	var sb strings.Builder
	sb.WriteString("name,ra,dec\n")
	var all []Entry
	for ra := 8.0; ra <= 22.0; ra += 0.5 {
		for dec := -7.0; dec <= 7.0; dec += 0.5 {
			e := Entry{Name: "g", RA: ra, Dec: dec}
			all = append(all, e)
			sb.WriteString("g," + formatFloat(ra) + "," + formatFloat(dec) + "\n")
		}
	}

	entries, _, err := Parse(strings.NewReader(sb.String()), b)
	require.NoError(t, err)

	var want []Entry
	for _, e := range all {
		if b.MinRA < e.RA && e.RA < b.MaxRA && b.MinDec < e.Dec && e.Dec < b.MaxDec {
			want = append(want, e)
		}
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("bounds filter mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "galaxies.csv")
	require.NoError(t, os.WriteFile(path, []byte("objname,ra,dec\nNGC 1,90.0,-32.0\n"), 0644))

	entries, stats, err := Load(path, config.DefaultBounds)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, stats.Kept)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.csv"), config.DefaultBounds)
	assert.Error(t, err)
}

func TestRowErrorUnwrap(t *testing.T) {
	inner := os.ErrInvalid
	err := &RowError{Line: 3, Reason: "bad ra", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "catalogue line 3: bad ra: invalid argument", err.Error())
}
