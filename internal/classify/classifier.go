package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/snpfilter/internal/genome"
	"github.com/inodb/snpfilter/internal/regions"
	"github.com/inodb/snpfilter/internal/translate"
	"github.com/inodb/snpfilter/internal/varscan"
)

// GenomeLookup is the read-only genome query surface the classifier needs.
type GenomeLookup interface {
	Contig(name string) (*genome.Contig, error)
	FeatureAt(contig string, pos int64) (*genome.Feature, error)
}

// AminoAcidTranslator computes the residue change of a substitution.
type AminoAcidTranslator interface {
	Translate(c *genome.Contig, f *genome.Feature, pos int64, newBase byte) (translate.Change, error)
}

// RecordSource yields variant records in input order.
// Next returns nil, nil when there are no more records.
type RecordSource interface {
	Next() (*varscan.Record, error)
}

// Sink receives every record with its outcome, in input order.
type Sink interface {
	Write(rec *varscan.Record, o Outcome) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(rec *varscan.Record, o Outcome) error

// Write calls f(rec, o).
func (f SinkFunc) Write(rec *varscan.Record, o Outcome) error {
	return f(rec, o)
}

// Options holds the classification thresholds.
type Options struct {
	MinCoverage  int64   // minimum total read depth
	GapDistance  int     // bases from a contig end or gap considered unsafe
	MinFrequency float64 // minimum variant frequency, as a fraction
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{MinCoverage: 10, GapDistance: 300, MinFrequency: 0.7}
}

// Classifier applies the filtering rules to variant records.
type Classifier struct {
	genome GenomeLookup
	unsafe map[string]*regions.Set
	tr     AminoAcidTranslator
	opts   Options
	logger *zap.Logger
}

// New creates a classifier. unsafe maps contig names to their unsafe
// region sets; a contig without a set has no unsafe positions.
func New(g GenomeLookup, unsafe map[string]*regions.Set, tr AminoAcidTranslator, opts Options, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		genome: g,
		unsafe: unsafe,
		tr:     tr,
		opts:   opts,
		logger: logger,
	}
}

// Classify decides the outcome of one record. The first failing rule wins.
// genes is only modified when the record is accepted.
//
// An error is returned only for conditions that must stop the run: a
// record naming a contig that is not in the genome, or a translation that
// does not reach the variant's codon.
func (c *Classifier) Classify(rec *varscan.Record, genes *MutatedGenes) (Outcome, error) {
	if rec.Malformed != "" {
		return Rejected{Reason: ReasonMalformed, Diagnostic: rec.Malformed}, nil
	}
	if len(rec.Ref) != 1 || len(rec.Alt) != 1 {
		return Rejected{Reason: ReasonMalformed, Diagnostic: fmt.Sprintf("not a single-base substitution: %s>%s", rec.Ref, rec.Alt)}, nil
	}

	if strings.EqualFold(rec.Ref, "N") {
		return Rejected{Reason: ReasonReferenceN}, nil
	}

	contig, err := c.genome.Contig(rec.Contig)
	if err != nil {
		return nil, err
	}
	c.checkReference(contig, rec)

	f, err := c.genome.FeatureAt(rec.Contig, rec.Pos)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return Rejected{Reason: ReasonIntergenic}, nil
	}
	gene := f.GeneID(rec.Contig)

	var (
		change     translate.Change
		translated bool
	)
	if f.IsCoding() {
		change, err = c.tr.Translate(contig, f, rec.Pos, rec.Alt[0])
		switch {
		case errors.Is(err, translate.ErrIncompleteCodon):
			c.logger.Debug("variant outside complete codons of partial CDS",
				zap.String("gene", gene),
				zap.Int64("pos", rec.Pos),
				zap.Int("line", rec.Line))
		case err != nil:
			return nil, fmt.Errorf("gene %s: %w", gene, err)
		case change.Synonymous():
			return Rejected{Reason: ReasonSynonymous, Diagnostic: fmt.Sprintf("%c>%c", change.Old, change.New), GeneID: gene}, nil
		default:
			translated = true
		}
	}

	if c.unsafe[rec.Contig].Contains(rec.Pos) {
		return Rejected{
			Reason:     ReasonNearGap,
			Diagnostic: fmt.Sprintf("within %d bp of contig end or assembly gap", c.opts.GapDistance),
			GeneID:     gene,
		}, nil
	}

	cov, err := rec.CoverageValue()
	if err != nil {
		return Rejected{Reason: ReasonMalformed, Diagnostic: err.Error(), GeneID: gene}, nil
	}
	if cov < c.opts.MinCoverage {
		return Rejected{Reason: ReasonLowCoverage, Diagnostic: fmt.Sprintf("coverage %d < %d", cov, c.opts.MinCoverage), GeneID: gene}, nil
	}

	freq, err := rec.FrequencyValue()
	if err != nil {
		return Rejected{Reason: ReasonMalformed, Diagnostic: err.Error(), GeneID: gene}, nil
	}
	if freq < c.opts.MinFrequency {
		return Rejected{Reason: ReasonLowFrequency, Diagnostic: fmt.Sprintf("frequency %g < %g", freq, c.opts.MinFrequency), GeneID: gene}, nil
	}

	if genes.Has(gene) {
		return Rejected{Reason: ReasonRepeatGene, Diagnostic: fmt.Sprintf("gene %s already mutated", gene), GeneID: gene}, nil
	}
	genes.Add(gene)

	return Accepted{
		GeneID:     gene,
		Translated: translated,
		Change:     change,
		Coverage:  cov,
		Frequency: freq,
	}, nil
}

// checkReference warns when the record's reference base disagrees with the
// genome. Such records are still classified.
func (c *Classifier) checkReference(contig *genome.Contig, rec *varscan.Record) {
	base, ok := contig.Base(rec.Pos)
	if !ok {
		c.logger.Warn("variant position beyond contig end",
			zap.String("contig", rec.Contig),
			zap.Int64("pos", rec.Pos),
			zap.Int64("length", contig.Len()),
			zap.Int("line", rec.Line))
		return
	}
	if !strings.EqualFold(string(base), rec.Ref) {
		c.logger.Warn("reference base mismatch",
			zap.String("contig", rec.Contig),
			zap.Int64("pos", rec.Pos),
			zap.String("record", rec.Ref),
			zap.String("genome", string(base)),
			zap.Int("line", rec.Line))
	}
}

// Run classifies every record from src in input order, sending each record
// and its outcome to sink. It owns the MutatedGenes set for the run.
func (c *Classifier) Run(ctx context.Context, src RecordSource, sink Sink) (*Tally, error) {
	tally := NewTally()
	genes := NewMutatedGenes()

	for {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		rec, err := src.Next()
		if err != nil {
			return tally, fmt.Errorf("read variant: %w", err)
		}
		if rec == nil {
			break
		}

		o, err := c.Classify(rec, genes)
		if err != nil {
			return tally, fmt.Errorf("line %d: %w", rec.Line, err)
		}
		if r, ok := o.(Rejected); ok {
			c.logger.Debug("variant rejected",
				zap.Int("line", rec.Line),
				zap.String("reason", string(r.Reason)),
				zap.String("diagnostic", r.Diagnostic))
		}

		tally.Add(o)
		if err := sink.Write(rec, o); err != nil {
			return tally, fmt.Errorf("write outcome: %w", err)
		}
	}

	c.logger.Info("classification complete",
		zap.Int("accepted", tally.Accepted),
		zap.Int("rejected", tally.Rejected()),
		zap.Int("mutated_genes", genes.Len()))
	return tally, nil
}
