package translate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inodb/snpfilter/internal/genome"
)

// Translation errors.
var (
	ErrPositionOutsideFeature     = errors.New("position outside feature")
	ErrTranslationIndexOutOfRange = errors.New("codon index out of range of translation")
	ErrNoTranslation              = errors.New("feature is not protein coding")

	// ErrIncompleteCodon is returned for positions in the leading or trailing
	// bases of a partial coding sequence that belong to no complete codon.
	ErrIncompleteCodon = errors.New("position not in a complete codon")
)

// IndexMode selects how a variant position maps to a residue index.
type IndexMode int

const (
	// IndexCodon uses the codon containing the position within the spliced,
	// strand-oriented coding sequence.
	IndexCodon IndexMode = iota
	// IndexCeil uses ceil((pos-start)/3) measured from the feature's leftmost
	// base, ignoring strand. Kept for reproducing older result sets.
	IndexCeil
)

func (m IndexMode) String() string {
	switch m {
	case IndexCodon:
		return "codon"
	case IndexCeil:
		return "ceil"
	}
	return fmt.Sprintf("IndexMode(%d)", int(m))
}

// Change is the amino-acid pair at the residue a variant falls in.
type Change struct {
	Old byte
	New byte
}

// Synonymous returns true if the substitution leaves the residue unchanged.
func (c Change) Synonymous() bool {
	return c.Old == c.New
}

// Translator computes amino-acid changes caused by single-base substitutions.
// It holds no mutable state and is safe for concurrent use.
type Translator struct {
	table  int
	starts map[string]bool
	mode   IndexMode
}

// New creates a translator for an NCBI translation table (1 or 11).
func New(table int) (*Translator, error) {
	starts, ok := startCodons[table]
	if !ok {
		return nil, fmt.Errorf("unsupported translation table %d", table)
	}
	return &Translator{table: table, starts: starts}, nil
}

// SetIndexMode changes how positions map to residue indices.
func (t *Translator) SetIndexMode(mode IndexMode) {
	t.mode = mode
}

// IndexMode returns how positions map to residue indices.
func (t *Translator) IndexMode() IndexMode {
	return t.mode
}

// Table returns the NCBI translation table number.
func (t *Translator) Table() int {
	return t.table
}

// Translate returns the residue at pos in the feature's original translation
// and in the translation obtained after replacing the base at pos with
// newBase. newBase is given on the forward strand of the contig.
func (t *Translator) Translate(c *genome.Contig, f *genome.Feature, pos int64, newBase byte) (Change, error) {
	if !f.IsCoding() {
		return Change{}, fmt.Errorf("%w: %s", ErrNoTranslation, f.Type)
	}
	offset, ok := f.Location.Offset(pos)
	if !ok {
		return Change{}, fmt.Errorf("%w: %d not in %s", ErrPositionOutsideFeature, pos, f.Location)
	}

	nts, err := c.Extract(f.Location)
	if err != nil {
		return Change{}, err
	}
	frame := int64(f.CodonStart - 1)
	if frame < 0 {
		frame = 0
	}
	if frame > int64(len(nts)) {
		frame = int64(len(nts))
	}
	codingOffset := offset - frame
	if codingOffset < 0 || codingOffset >= (int64(len(nts))-frame)/3*3 {
		return Change{}, fmt.Errorf("%w: %d in %s", ErrIncompleteCodon, pos, f.GeneID(c.Name))
	}

	original := t.original(f, string(nts[frame:]))

	base := upper(newBase)
	if f.Location.Complement {
		base = genome.Complement(base)
	}
	nts[offset] = base
	mutated := []byte(TranslateSequence(string(nts[frame:])))

	// An alternative initiation codon still encodes M at the first residue.
	if len(mutated) > 0 && mutated[0] != 'M' && len(original) > 0 && original[0] == 'M' &&
		int64(len(nts)) >= frame+3 && t.starts[string(nts[frame:frame+3])] {
		mutated[0] = 'M'
	}

	idx := t.index(f, pos, codingOffset)
	if idx < 0 || idx >= int64(len(original)) || idx >= int64(len(mutated)) {
		return Change{}, fmt.Errorf("%w: residue %d of %s (original %d aa, mutated %d aa)",
			ErrTranslationIndexOutOfRange, idx, f.GeneID(c.Name), len(original), len(mutated))
	}
	return Change{Old: original[idx], New: mutated[idx]}, nil
}

// original returns the feature's reference protein. The annotated
// translation is preferred; a terminal stop is appended when the coding
// sequence ends in one so that stop-codon variants index a real residue.
func (t *Translator) original(f *genome.Feature, coding string) string {
	aa := f.Translation
	if aa == "" {
		aa = TranslateSequence(coding)
		for len(aa) > 0 && aa[len(aa)-1] == '*' {
			aa = aa[:len(aa)-1]
		}
	}
	if n := len(coding) / 3 * 3; n >= 3 && IsStopCodon(coding[n-3:n]) && !strings.HasSuffix(aa, "*") {
		aa += "*"
	}
	return aa
}

func (t *Translator) index(f *genome.Feature, pos, codingOffset int64) int64 {
	if t.mode == IndexCeil {
		d := pos - f.Start()
		return (d + 2) / 3
	}
	return codingOffset / 3
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
