package genome

import (
	"errors"
	"fmt"
)

// ErrUnknownContig is returned when a lookup names a contig that was not loaded.
var ErrUnknownContig = errors.New("unknown contig")

// Index provides read-only lookups over a loaded genome.
//
// Gene lookups follow a first-match policy: features are scanned in the
// order they appear in the source annotation and the first CDS, tRNA or rRNA
// containing the position is returned. Overlapping annotations are not
// reported as ambiguous.
type Index struct {
	contigs map[string]*Contig
	order   []string
	// genes stores the CDS/tRNA/rRNA features of each contig, source order
	genes map[string][]*Feature
}

// NewIndex builds an index over the given contigs.
func NewIndex(contigs []*Contig) (*Index, error) {
	if len(contigs) == 0 {
		return nil, errors.New("genome has no contigs")
	}

	idx := &Index{
		contigs: make(map[string]*Contig, len(contigs)),
		genes:   make(map[string][]*Feature, len(contigs)),
	}
	for _, c := range contigs {
		if _, dup := idx.contigs[c.Name]; dup {
			return nil, fmt.Errorf("duplicate contig %q", c.Name)
		}
		idx.contigs[c.Name] = c
		idx.order = append(idx.order, c.Name)

		var genes []*Feature
		for _, f := range c.Features {
			if f.Type.IsGene() {
				genes = append(genes, f)
			}
		}
		idx.genes[c.Name] = genes
	}
	return idx, nil
}

// FeatureAt returns the first gene feature containing pos, or nil if the
// position is intergenic.
func (idx *Index) FeatureAt(contig string, pos int64) (*Feature, error) {
	genes, ok := idx.genes[contig]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContig, contig)
	}
	for _, f := range genes {
		if f.Contains(pos) {
			return f, nil
		}
	}
	return nil, nil
}

// Contig returns a loaded contig by name.
func (idx *Index) Contig(name string) (*Contig, error) {
	c, ok := idx.contigs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContig, name)
	}
	return c, nil
}

// Contigs returns all contigs in load order.
func (idx *Index) Contigs() []*Contig {
	out := make([]*Contig, len(idx.order))
	for i, name := range idx.order {
		out[i] = idx.contigs[name]
	}
	return out
}

// ContigCount returns the number of loaded contigs.
func (idx *Index) ContigCount() int {
	return len(idx.order)
}

// FeatureCount returns the total number of gene features in the index.
func (idx *Index) FeatureCount() int {
	count := 0
	for _, genes := range idx.genes {
		count += len(genes)
	}
	return count
}
