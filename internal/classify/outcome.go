// Package classify decides, for each variant call, whether it is a
// trustworthy non-synonymous mutation or why it was rejected.
package classify

import (
	"fmt"

	"github.com/inodb/snpfilter/internal/translate"
)

// Reason is the code recorded for a rejected variant.
type Reason string

// Rejection reasons, in the order the rules are evaluated.
const (
	ReasonMalformed    Reason = "malformed_row"
	ReasonReferenceN   Reason = "reference_N"
	ReasonIntergenic   Reason = "intergenic"
	ReasonSynonymous   Reason = "synonymous"
	ReasonNearGap      Reason = "near_gap"
	ReasonLowCoverage  Reason = "low_coverage"
	ReasonLowFrequency Reason = "low_frequency"
	ReasonRepeatGene   Reason = "multiple_mutations_in_same_gene"
)

// Reasons lists every rejection reason in rule order.
var Reasons = []Reason{
	ReasonMalformed,
	ReasonReferenceN,
	ReasonIntergenic,
	ReasonSynonymous,
	ReasonNearGap,
	ReasonLowCoverage,
	ReasonLowFrequency,
	ReasonRepeatGene,
}

// NoAminoAcid is reported as the residue of variants without an amino-acid
// change.
const NoAminoAcid = "-"

// Outcome is the result of classifying one record: either Accepted or
// Rejected.
type Outcome interface {
	outcome()
}

// Accepted is the outcome of a variant that passed every rule.
type Accepted struct {
	GeneID     string
	// Translated is false for tRNA/rRNA genes and for positions outside the
	// complete codons of a partial CDS. Change is then zero.
	Translated bool
	Change     translate.Change
	Coverage   int64
	Frequency  float64 // fraction
}

// Rejected is the outcome of a variant that failed a rule.
type Rejected struct {
	Reason     Reason
	Diagnostic string
	GeneID     string // empty when no gene was found
}

func (Accepted) outcome() {}
func (Rejected) outcome() {}

// OldAA returns the original residue, or "-" when there is none.
func (a Accepted) OldAA() string {
	if !a.Translated {
		return NoAminoAcid
	}
	return string(a.Change.Old)
}

// NewAA returns the mutated residue, or "-" when there is none.
func (a Accepted) NewAA() string {
	if !a.Translated {
		return NoAminoAcid
	}
	return string(a.Change.New)
}

func (r Rejected) String() string {
	if r.Diagnostic == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s (%s)", r.Reason, r.Diagnostic)
}

// MutatedGenes records the genes that already carry an accepted mutation.
// It is owned by a single classification loop and only ever grows.
type MutatedGenes struct {
	ids map[string]struct{}
}

// NewMutatedGenes returns an empty set.
func NewMutatedGenes() *MutatedGenes {
	return &MutatedGenes{ids: make(map[string]struct{})}
}

// Has returns true if the gene already has an accepted mutation.
func (m *MutatedGenes) Has(id string) bool {
	_, ok := m.ids[id]
	return ok
}

// Add marks a gene as mutated.
func (m *MutatedGenes) Add(id string) {
	m.ids[id] = struct{}{}
}

// Len returns the number of mutated genes.
func (m *MutatedGenes) Len() int {
	return len(m.ids)
}
