package output

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/inodb/snpfilter/internal/classify"
	"github.com/inodb/snpfilter/internal/translate"
)

// Output file suffixes.
const (
	GoodSuffix = "_good_snps.tsv"
	BadSuffix  = "_bad_snps.tsv"
)

// WriteSummary writes the human-readable run summary: totals, rejection
// counts in rule order and depth/frequency statistics of accepted variants,
// followed by the codon index mode the residues were read with.
func WriteSummary(w io.Writer, t *classify.Tally, mode translate.IndexMode) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Good variants = %d\n", t.Accepted)
	fmt.Fprintf(&b, "Bad variants = %d\n", t.Rejected())
	b.WriteString("Reasons variants were rejected:\n")
	for _, r := range classify.Reasons {
		fmt.Fprintf(&b, "\t%d : %s\n", t.Count(r), r)
	}

	if t.Accepted > 0 {
		covMean, covMedian := meanMedian(t.Coverage)
		freqMean, freqMedian := meanMedian(t.Frequency)
		fmt.Fprintf(&b, "Accepted coverage: mean %.1f, median %.1f\n", covMean, covMedian)
		fmt.Fprintf(&b, "Accepted frequency: mean %.3f, median %.3f\n", freqMean, freqMedian)
	}
	fmt.Fprintf(&b, "Codon index = %s\n", mode)

	_, err := io.WriteString(w, b.String())
	return err
}

func meanMedian(x []float64) (mean, median float64) {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return stat.Mean(sorted, nil), stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// DefaultPrefix derives the output prefix from the variant table path: the
// file name up to its first '.', in the same directory.
func DefaultPrefix(variantPath string) string {
	dir, base := filepath.Split(variantPath)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return dir + base
}

// GoodPath returns the accepted-variants table path for a prefix.
func GoodPath(prefix string) string { return prefix + GoodSuffix }

// BadPath returns the rejected-variants table path for a prefix.
func BadPath(prefix string) string { return prefix + BadSuffix }
