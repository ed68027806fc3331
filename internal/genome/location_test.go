package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		input      string
		spans      []Span
		complement bool
		partial    bool
	}{
		{"10..21", []Span{{10, 21}}, false, false},
		{"7", []Span{{7, 7}}, false, false},
		{"<1..>90", []Span{{1, 90}}, false, true},
		{"complement(40..51)", []Span{{40, 51}}, true, false},
		{"join(1..10,20..30)", []Span{{1, 10}, {20, 30}}, false, false},
		{"complement(join(1..10,20..30))", []Span{{1, 10}, {20, 30}}, true, false},
		{"join(complement(20..30),complement(1..10))", []Span{{1, 10}, {20, 30}}, true, false},
		{"order(5..6,1..2)", []Span{{1, 2}, {5, 6}}, false, false},
		{"join(1..10, 20..30)", []Span{{1, 10}, {20, 30}}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, err := ParseLocation(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.spans, loc.Spans)
			assert.Equal(t, tt.complement, loc.Complement)
			assert.Equal(t, tt.partial, loc.Partial)
		})
	}
}

func TestParseLocation_Invalid(t *testing.T) {
	for _, input := range []string{
		"",
		"x..10",
		"10..y",
		"20..10",
		"J00194.1:100..202",
		"join(1..10,complement(20..30))",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseLocation(input)
			assert.Error(t, err)
		})
	}
}

func TestLocation_Offset(t *testing.T) {
	fwd, err := ParseLocation("join(1..3,10..12)")
	require.NoError(t, err)

	off, ok := fwd.Offset(1)
	require.True(t, ok)
	assert.Equal(t, int64(0), off)
	off, ok = fwd.Offset(10)
	require.True(t, ok)
	assert.Equal(t, int64(3), off)
	_, ok = fwd.Offset(5)
	assert.False(t, ok, "intron position")

	rev, err := ParseLocation("complement(join(1..3,10..12))")
	require.NoError(t, err)
	off, ok = rev.Offset(12)
	require.True(t, ok)
	assert.Equal(t, int64(0), off)
	off, ok = rev.Offset(1)
	require.True(t, ok)
	assert.Equal(t, int64(5), off)
}

func TestLocation_String(t *testing.T) {
	loc, err := ParseLocation("complement(join(1..3,10..12))")
	require.NoError(t, err)
	assert.Equal(t, "complement(join(1..3,10..12))", loc.String())
	assert.Equal(t, int64(6), loc.Len())
}
