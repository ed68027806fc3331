package varscan

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = `Chrom	Position	Ref	Var	Cons	Reads2	VarFreq
C1	13	A	G	G	50	87.3%

C1	200	C	T	T	8	99%
C1	xyz	C	T	T	8	99%
C1	300	C	T
`

func TestParser_Records(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(testTable))
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, []string{"Chrom", "Position", "Ref", "Var", "Cons", "Reads2", "VarFreq"}, p.Header())

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.Line)
	assert.Equal(t, "C1", rec.Contig)
	assert.Equal(t, int64(13), rec.Pos)
	assert.Equal(t, "A", rec.Ref)
	assert.Equal(t, "G", rec.Alt)
	assert.Equal(t, "50", rec.Coverage)
	assert.Equal(t, "87.3%", rec.Frequency)
	assert.Empty(t, rec.Malformed)
	assert.Len(t, rec.Fields, 7)

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Line, "blank line skipped")
	assert.Equal(t, int64(200), rec.Pos)

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Contains(t, rec.Malformed, "invalid position")

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Contains(t, rec.Malformed, "expected at least 7 columns, found 4")
	assert.Equal(t, []string{"C1", "300", "C", "T"}, rec.Fields)

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestParser_NoTrailingNewline(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader("h1 h2 h3 h4 h5 h6 h7\nC1 5 A T . 20 75%"))
	require.NoError(t, err)

	rec, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "75%", rec.Frequency)

	rec, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestParser_EmptyInput(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader(""))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "missing header line", perr.Message)
}

func TestParser_CustomColumns(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader("pos contig ref alt freq cov\n10 C2 G A 0.9 30\n"))
	require.NoError(t, err)
	p.SetColumns(Columns{Contig: 1, Position: 0, Ref: 2, Alt: 3, Coverage: 5, Frequency: 4})

	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "C2", rec.Contig)
	assert.Equal(t, int64(10), rec.Pos)
	assert.Equal(t, "30", rec.Coverage)
	assert.Equal(t, "0.9", rec.Frequency)
}

func TestNewParser_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.tsv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testTable))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	p, err := NewParser(path)
	require.NoError(t, err)
	defer p.Close()

	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(13), rec.Pos)
}

func TestNewParser_MissingFile(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "missing.tsv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"87.3%", 0.873, false},
		{"65.0%", 0.65, false},
		{"100%", 1, false},
		{"0.75", 0.75, false},
		{" 70% ", 0.7, false},
		{"abc%", 0, true},
		{"", 0, true},
		{"NaN%", 0, true},
		{"NaN", 0, true},
		{"Inf%", 0, true},
		{"-Inf", 0, true},
		{"250%", 0, true},
		{"1.5", 0, true},
		{"-1%", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrequency(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseCoverage(t *testing.T) {
	n, err := ParseCoverage("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = ParseCoverage("4.2")
	assert.Error(t, err)

	_, err = ParseCoverage("-3")
	assert.Error(t, err)
}

func TestColumns_MinFields(t *testing.T) {
	assert.Equal(t, 7, DefaultColumns().MinFields())
}
