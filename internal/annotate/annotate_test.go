package annotate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/radioxmatch/internal/catalogue"
	"github.com/banshee-data/radioxmatch/internal/crossmatch"
	"github.com/banshee-data/radioxmatch/internal/sources"
)

func sampleTable() *Table {
	matches := []crossmatch.Match{
		{Entry: catalogue.Entry{Name: "ESO 364- G 010", RA: 90.0, Dec: -32.0}, Detection: sources.Detection{RA: 90, Dec: -32}},
		{Entry: catalogue.Entry{Name: "2MASX J06000002-3200000", RA: 90.0001, Dec: -32.0}, SeparationArcsec: 0.3053},
		{Entry: catalogue.Entry{Name: "NGC 2090", RA: 86.7578125, Dec: -34.2505}, SeparationArcsec: 1.25},
	}
	return NewTable("S190510g_matches", matches)
}

func TestWriteFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTable(), DefaultStyle))

	want := "CIRCLE W 90 -32 0.01 0.01\n" +
		"CIRCLE W 90.0001 -32 0.01 0.01\n" +
		"CIRCLE W 86.7578125 -34.2505 0.01 0.01\n"
	assert.Equal(t, want, buf.String())
	assert.False(t, strings.ContainsAny(buf.String(), "()',[]\""), "no punctuation survives")
}

func TestRoundTripMatchesTable(t *testing.T) {
	table := sampleTable()
	path := filepath.Join(t.TempDir(), "matches.ann")
	require.NoError(t, Save(path, table, DefaultStyle))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)

	if diff := cmp.Diff(Directives(table, DefaultStyle), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	for i, d := range got {
		assert.Equal(t, table.Rows[i].RA, d.RA)
		assert.Equal(t, table.Rows[i].Dec, d.Dec)
	}
}

func TestCustomStyle(t *testing.T) {
	var buf bytes.Buffer
	s := Style{Shape: "CROSS", Mode: "W", Size: 0.02}
	require.NoError(t, Write(&buf, sampleTable(), s))
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, "CROSS W 90 -32 0.02 0.02", first)
}

func TestParseDirectiveErrors(t *testing.T) {
	_, err := ParseDirective("CIRCLE W 90 -32 0.01")
	assert.ErrorContains(t, err, "expected 6 tokens")

	_, err = ParseDirective("CIRCLE W (90 -32 0.01 0.01")
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("CIRCLE W 1 2 3 4\n\nbad line\n"))
	assert.ErrorContains(t, err, "line 3")
}

func TestTableCoordsAndCSV(t *testing.T) {
	table := sampleTable()
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, [2]float64{90.0001, -32}, table.Coords()[1])

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "full_name,ra,dec,separation_arcsec", lines[0])
	assert.Equal(t, "ESO 364- G 010,90,-32,0.0000", lines[1])
	assert.Equal(t, "2MASX J06000002-3200000,90.0001,-32,0.3053", lines[2])

	path := filepath.Join(t.TempDir(), "matches.csv")
	require.NoError(t, table.SaveCSV(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
}

func TestEmptyTable(t *testing.T) {
	table := NewTable("empty", nil)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table, DefaultStyle))
	assert.Empty(t, buf.String())
	got, err := Parse(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}
