// Package genome provides the reference genome model and its loaders.
package genome

import (
	"fmt"
	"sort"
)

// FeatureType is the annotation type of a feature (GenBank feature key).
type FeatureType string

// Feature types the classifier cares about.
const (
	FeatureCDS         FeatureType = "CDS"
	FeatureTRNA        FeatureType = "tRNA"
	FeatureRRNA        FeatureType = "rRNA"
	FeatureAssemblyGap FeatureType = "assembly_gap"
)

// IsGene reports whether features of this type are considered genes
// (coding sequence or structural RNA).
func (t FeatureType) IsGene() bool {
	return t == FeatureCDS || t == FeatureTRNA || t == FeatureRRNA
}

// Span is a single contiguous stretch of a feature location.
type Span struct {
	Start int64 // 1-based
	End   int64 // 1-based, inclusive
}

// Len returns the number of bases covered by the span.
func (s Span) Len() int64 {
	return s.End - s.Start + 1
}

// Location describes where a feature lies on its contig.
type Location struct {
	Spans      []Span // ascending by Start
	Complement bool   // feature is on the reverse strand
	Partial    bool   // location carried < or > markers
}

// NewLocation builds a location from spans, sorting them by start.
func NewLocation(spans []Span, complement bool) (Location, error) {
	if len(spans) == 0 {
		return Location{}, fmt.Errorf("location has no spans")
	}
	s := make([]Span, len(spans))
	copy(s, spans)
	for _, sp := range s {
		if sp.Start < 1 || sp.Start > sp.End {
			return Location{}, fmt.Errorf("invalid span %d..%d", sp.Start, sp.End)
		}
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Start < s[j].Start })
	return Location{Spans: s, Complement: complement}, nil
}

// Start returns the leftmost position of the location.
func (l Location) Start() int64 {
	if len(l.Spans) == 0 {
		return 0
	}
	return l.Spans[0].Start
}

// End returns the rightmost position of the location.
func (l Location) End() int64 {
	var end int64
	for _, s := range l.Spans {
		if s.End > end {
			end = s.End
		}
	}
	return end
}

// Len returns the total number of bases covered by the location.
func (l Location) Len() int64 {
	var n int64
	for _, s := range l.Spans {
		n += s.Len()
	}
	return n
}

// Contains returns true if pos falls within any span of the location.
func (l Location) Contains(pos int64) bool {
	for _, s := range l.Spans {
		if pos >= s.Start && pos <= s.End {
			return true
		}
	}
	return false
}

// Offset returns the zero-based offset of pos within the spliced,
// strand-oriented sequence of the location.
func (l Location) Offset(pos int64) (int64, bool) {
	var before int64
	found := false
	for _, s := range l.Spans {
		if pos >= s.Start && pos <= s.End {
			before += pos - s.Start
			found = true
			break
		}
		before += s.Len()
	}
	if !found {
		return 0, false
	}
	if l.Complement {
		return l.Len() - 1 - before, true
	}
	return before, true
}

// String renders the location in GenBank notation.
func (l Location) String() string {
	var s string
	for i, sp := range l.Spans {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d..%d", sp.Start, sp.End)
	}
	if len(l.Spans) > 1 {
		s = "join(" + s + ")"
	}
	if l.Complement {
		s = "complement(" + s + ")"
	}
	return s
}

// Feature is an annotated region of a contig.
type Feature struct {
	Type        FeatureType
	Location    Location
	LocusTag    string            // unique gene identifier, may be empty
	Translation string            // annotated amino-acid sequence (CDS only)
	CodonStart  int               // 1, 2 or 3; offset of the first complete codon
	Qualifiers  map[string]string // remaining qualifiers, first value wins
}

// Start returns the 1-based leftmost position of the feature.
func (f *Feature) Start() int64 { return f.Location.Start() }

// End returns the 1-based rightmost position of the feature (inclusive).
func (f *Feature) End() int64 { return f.Location.End() }

// Contains returns true if the given position is within the feature.
func (f *Feature) Contains(pos int64) bool {
	return f.Location.Contains(pos)
}

// IsCoding returns true if the feature is a protein-coding sequence.
func (f *Feature) IsCoding() bool {
	return f.Type == FeatureCDS
}

// GeneID returns the identity used for one-mutation-per-gene tracking.
// Features without a locus tag fall back to their coordinates.
func (f *Feature) GeneID(contig string) string {
	if f.LocusTag != "" {
		return f.LocusTag
	}
	return fmt.Sprintf("%s:%d-%d", contig, f.Start(), f.End())
}
