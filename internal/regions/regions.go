// Package regions computes the positions of a contig that are too close to
// a contig end or an assembly gap for a variant call to be trusted.
package regions

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"

	"github.com/inodb/snpfilter/internal/genome"
)

// Range is a 1-based inclusive stretch of unsafe positions.
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of positions in the range.
func (r Range) Len() int64 {
	return r.End - r.Start + 1
}

// Set is the union of unsafe ranges on one contig. A Set is immutable after
// Build and safe for concurrent reads.
type Set struct {
	contig string
	length int64
	ranges []Range // sorted, non-overlapping, non-adjacent
	tree   interval.IntTree
}

// Build computes the unsafe set of a contig: gapDistance bases from each
// contig end and on both sides of every assembly gap.
//
// Marked ranges, clamped to [1, len(contig)]:
//
//	[1, d]                      contig start
//	[len-d, len]                contig end
//	[gapStart-d, gapStart]      before each gap
//	[gapEnd, gapEnd+d-1]        after each gap
func Build(c *genome.Contig, gapDistance int) *Set {
	s := &Set{contig: c.Name, length: c.Len()}
	d := int64(gapDistance)
	if d <= 0 || s.length == 0 {
		return s
	}

	raw := []Range{
		{1, d},
		{s.length - d, s.length},
	}
	for _, g := range c.Gaps() {
		raw = append(raw,
			Range{g.Start() - d, g.Start()},
			Range{g.End(), g.End() + d - 1},
		)
	}

	s.ranges = merge(raw, s.length)
	for i, r := range s.ranges {
		// IntTree ranges are half-open.
		err := s.tree.Insert(unsafeInterval{id: uintptr(i), start: int(r.Start), end: int(r.End) + 1}, true)
		if err != nil {
			// merge never produces empty or inverted ranges.
			panic(fmt.Sprintf("regions: insert %v: %v", r, err))
		}
	}
	s.tree.AdjustRanges()
	return s
}

// merge clamps ranges to [1, length] and folds overlapping or adjacent
// ranges together.
func merge(raw []Range, length int64) []Range {
	clamped := make([]Range, 0, len(raw))
	for _, r := range raw {
		if r.Start < 1 {
			r.Start = 1
		}
		if r.End > length {
			r.End = length
		}
		if r.Start <= r.End {
			clamped = append(clamped, r)
		}
	}
	sort.Slice(clamped, func(i, j int) bool { return clamped[i].Start < clamped[j].Start })

	var out []Range
	for _, r := range clamped {
		if n := len(out); n > 0 && r.Start <= out[n-1].End+1 {
			if r.End > out[n-1].End {
				out[n-1].End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Contig returns the name of the contig the set was built for.
func (s *Set) Contig() string { return s.contig }

// Contains returns true if pos is unsafe.
func (s *Set) Contains(pos int64) bool {
	if s == nil || pos < 1 || pos > s.length {
		return false
	}
	return len(s.tree.Get(point(pos))) > 0
}

// Ranges returns the merged unsafe ranges in ascending order.
func (s *Set) Ranges() []Range {
	out := make([]Range, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// Len returns the number of unsafe positions.
func (s *Set) Len() int64 {
	var n int64
	for _, r := range s.ranges {
		n += r.Len()
	}
	return n
}

// Positions returns every unsafe position in ascending order.
func (s *Set) Positions() []int64 {
	out := make([]int64, 0, s.Len())
	for _, r := range s.ranges {
		for p := r.Start; p <= r.End; p++ {
			out = append(out, p)
		}
	}
	return out
}

type unsafeInterval struct {
	id         uintptr
	start, end int
}

func (i unsafeInterval) Overlap(b interval.IntRange) bool {
	return i.end > b.Start && i.start < b.End
}
func (i unsafeInterval) ID() uintptr { return i.id }
func (i unsafeInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.start, End: i.end}
}

// point queries the tree for the interval holding a single position.
type point int64

func (p point) Overlap(b interval.IntRange) bool {
	return b.Start <= int(p) && int(p) < b.End
}
