// Package varscan reads VarScan-style variant call tables.
package varscan

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Columns holds the zero-based indices of the columns the classifier reads.
type Columns struct {
	Contig    int
	Position  int
	Ref       int
	Alt       int
	Coverage  int
	Frequency int
}

// DefaultColumns returns the VarScan column layout: contig, position,
// reference, alternate, an unused column, coverage and frequency.
func DefaultColumns() Columns {
	return Columns{Contig: 0, Position: 1, Ref: 2, Alt: 3, Coverage: 5, Frequency: 6}
}

// MinFields returns the number of fields a row needs to be classified.
func (c Columns) MinFields() int {
	return max(c.Contig, c.Position, c.Ref, c.Alt, c.Coverage, c.Frequency) + 1
}

// Record is one row of the variant table. Records are never modified after
// parsing; classification results are kept alongside them.
type Record struct {
	Line   int      // 1-based line number in the input
	Fields []string // the raw row

	Contig    string
	Pos       int64
	Ref       string
	Alt       string
	Coverage  string // raw value, parsed on demand
	Frequency string // raw value, e.g. "87.3%"

	// Malformed describes why the row could not be parsed, or is empty.
	Malformed string
}

// CoverageValue parses the total read depth of the record.
func (r *Record) CoverageValue() (int64, error) {
	return ParseCoverage(r.Coverage)
}

// FrequencyValue parses the variant frequency of the record as a fraction.
func (r *Record) FrequencyValue() (float64, error) {
	return ParseFrequency(r.Frequency)
}

// ParseCoverage parses a read depth.
func ParseCoverage(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid coverage %q", s)
	}
	return n, nil
}

// ParseFrequency parses a variant frequency into a fraction. Values with a
// trailing '%' are percentages ("87.3%" is 0.873); bare values are already
// fractions.
func ParseFrequency(s string) (float64, error) {
	v := strings.TrimSpace(s)
	pct := strings.HasSuffix(v, "%")
	v = strings.TrimSuffix(v, "%")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}
	if pct {
		f /= 100
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("invalid frequency %q: outside 0-100%%", s)
	}
	return f, nil
}
