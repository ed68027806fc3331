package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/snpfilter/internal/classify"
	"github.com/inodb/snpfilter/internal/output"
	"github.com/inodb/snpfilter/internal/regions"
	"github.com/inodb/snpfilter/internal/store"
	"github.com/inodb/snpfilter/internal/translate"
	"github.com/inodb/snpfilter/internal/varscan"
)

func (a *app) newFilterCmd() *cobra.Command {
	var (
		input string
		gf    genomeFlags
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Classify variant calls into good and bad SNPs",
		Long: `Classify every variant of a VarScan-style table against an annotated
reference genome. Accepted variants are written to <prefix>_good_snps.tsv with
their amino-acid change, rejected variants to <prefix>_bad_snps.tsv with the
reason they were rejected.`,
		Example: `  snpfilter filter -i calls.tsv -g genome.gb
  snpfilter filter -i calls.tsv --gff genome.gff --fasta genome.fa -c 20 -f 0.8
  snpfilter filter -i calls.tsv -g genome.gb --results-db results.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, filterKeys); err != nil {
				return err
			}
			if input == "" {
				return usageErrorf("a variant table is required (--input)")
			}
			if err := gf.validate(); err != nil {
				return err
			}
			return a.runFilter(cmd, input, &gf)
		},
	}

	defaults := classify.DefaultOptions()
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "Variant table (VarScan format, '-' for stdin)")
	gf.register(f)
	f.Int64P("min-coverage", "c", defaults.MinCoverage, "Minimum total read depth")
	f.IntP("gap-distance", "d", defaults.GapDistance, "Minimum distance from a contig end or assembly gap")
	f.Float64P("min-frequency", "f", defaults.MinFrequency, "Minimum variant frequency, as a fraction")
	f.StringP("output", "o", "", "Output prefix (default: input file name up to the first '.')")
	f.String("results-db", "", "Also store results in a database (.duckdb or .sqlite)")
	f.Int("workers", 0, "Workers for building unsafe regions (0 = all CPUs)")
	f.Int("translation-table", 11, "NCBI translation table (1 or 11)")
	f.Bool("legacy-codon-index", false, "Locate residues with ceil((pos-start)/3) like older releases")

	return cmd
}

var filterKeys = map[string]string{
	"min_coverage":       "min-coverage",
	"gap_distance":       "gap-distance",
	"min_frequency":      "min-frequency",
	"output":             "output",
	"results_db":         "results-db",
	"workers":            "workers",
	"translation_table":  "translation-table",
	"legacy_codon_index": "legacy-codon-index",
}

func filterOptions() (classify.Options, error) {
	opts := classify.Options{
		MinCoverage:  viper.GetInt64("min_coverage"),
		GapDistance:  viper.GetInt("gap_distance"),
		MinFrequency: viper.GetFloat64("min_frequency"),
	}
	switch {
	case opts.MinCoverage < 0:
		return opts, usageErrorf("--min-coverage must not be negative")
	case opts.GapDistance < 0:
		return opts, usageErrorf("--gap-distance must not be negative")
	case opts.MinFrequency < 0 || opts.MinFrequency > 1:
		return opts, usageErrorf("--min-frequency must be a fraction between 0 and 1, got %g", opts.MinFrequency)
	}
	return opts, nil
}

func (a *app) runFilter(cmd *cobra.Command, input string, gf *genomeFlags) error {
	ctx := cmd.Context()
	logger := a.logger

	opts, err := filterOptions()
	if err != nil {
		return err
	}

	tr, err := translate.New(viper.GetInt("translation_table"))
	if err != nil {
		return usageErrorf("%v", err)
	}
	if viper.GetBool("legacy_codon_index") {
		tr.SetIndexMode(translate.IndexCeil)
	}

	idx, err := gf.load(logger)
	if err != nil {
		return err
	}

	unsafe, err := regions.BuildAll(ctx, idx.Contigs(), opts.GapDistance, viper.GetInt("workers"))
	if err != nil {
		return fmt.Errorf("build unsafe regions: %w", err)
	}

	parser, err := varscan.NewParser(input)
	if err != nil {
		return err
	}
	defer parser.Close()

	prefix := viper.GetString("output")
	if prefix == "" {
		if input == "-" {
			return usageErrorf("--output is required when reading from stdin")
		}
		prefix = output.DefaultPrefix(input)
	}

	goodFile, err := os.Create(output.GoodPath(prefix))
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer goodFile.Close()
	badFile, err := os.Create(output.BadPath(prefix))
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer badFile.Close()

	report, err := output.NewReport(goodFile, badFile, parser.Header())
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	resultsDB := viper.GetString("results_db")
	var rows []store.Classification
	sink := classify.SinkFunc(func(rec *varscan.Record, o classify.Outcome) error {
		if resultsDB != "" {
			rows = append(rows, store.NewClassification(rec, o))
		}
		return report.Write(rec, o)
	})

	run := store.NewRun(opts)
	run.CodonIndex = tr.IndexMode().String()
	classifier := classify.New(idx, unsafe, tr, opts, logger)
	tally, err := classifier.Run(ctx, parser, sink)
	if err != nil {
		return err
	}
	if err := report.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := goodFile.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := badFile.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("wrote results",
		zap.String("good", output.GoodPath(prefix)),
		zap.String("bad", output.BadPath(prefix)))

	if resultsDB != "" {
		run.Accepted, run.Rejected = tally.Accepted, tally.Rejected()
		if err := saveRun(resultsDB, run, gf.path(), input, rows, logger); err != nil {
			return err
		}
	}

	return output.WriteSummary(cmd.OutOrStdout(), tally, tr.IndexMode())
}

func saveRun(path string, run store.Run, genomePath, variantsPath string, rows []store.Classification, logger *zap.Logger) error {
	var err error
	if run.Genome, err = store.StatFile(genomePath); err != nil {
		return err
	}
	if variantsPath != "-" {
		if run.Variants, err = store.StatFile(variantsPath); err != nil {
			return err
		}
	}

	s, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open results database: %w", err)
	}
	defer s.Close()

	if err := s.SaveRun(run, rows); err != nil {
		return err
	}
	logger.Info("stored run",
		zap.String("run_id", run.ID),
		zap.String("database", path),
		zap.String("backend", string(s.Backend())))
	return nil
}
