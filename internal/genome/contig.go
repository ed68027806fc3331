package genome

import "fmt"

// Contig is a named nucleotide sequence with its ordered annotations.
// Contigs are immutable once loaded.
type Contig struct {
	Name     string
	Seq      []byte     // upper-case nucleotides
	Features []*Feature // source order
}

// Len returns the length of the contig sequence.
func (c *Contig) Len() int64 {
	return int64(len(c.Seq))
}

// Base returns the nucleotide at a 1-based position.
func (c *Contig) Base(pos int64) (byte, bool) {
	if pos < 1 || pos > c.Len() {
		return 0, false
	}
	return c.Seq[pos-1], true
}

// Gaps returns the assembly-gap features of the contig in source order.
func (c *Contig) Gaps() []*Feature {
	var gaps []*Feature
	for _, f := range c.Features {
		if f.Type == FeatureAssemblyGap {
			gaps = append(gaps, f)
		}
	}
	return gaps
}

// Extract returns the spliced sequence of a location, reverse complemented
// when the location is on the reverse strand.
func (c *Contig) Extract(l Location) ([]byte, error) {
	out := make([]byte, 0, l.Len())
	for _, s := range l.Spans {
		if s.Start < 1 || s.End > c.Len() {
			return nil, fmt.Errorf("span %d..%d outside contig %s (length %d)", s.Start, s.End, c.Name, c.Len())
		}
		out = append(out, c.Seq[s.Start-1:s.End]...)
	}
	if l.Complement {
		reverseComplement(out)
	}
	return out, nil
}

// reverseComplement reverse complements seq in place.
func reverseComplement(seq []byte) {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		seq[i], seq[j] = Complement(seq[j]), Complement(seq[i])
	}
}

// Complement returns the complementary base of an upper-case nucleotide.
// Anything else maps to N.
func Complement(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'G':
		return 'C'
	case 'C':
		return 'G'
	default:
		return 'N'
	}
}
