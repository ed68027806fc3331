package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/snpfilter/internal/classify"
	"github.com/inodb/snpfilter/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show runs stored in a results database",
		Long: `Without arguments, list the runs stored by filter --results-db.
With a run ID, print its settings, rejection counts and mutated genes.`,
		Example: `  snpfilter runs --results-db results.duckdb
  snpfilter runs --results-db results.duckdb 0b6f3c1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{"results_db": "results-db"}); err != nil {
				return err
			}
			path := viper.GetString("results_db")
			if path == "" {
				return usageErrorf("a results database is required (--results-db)")
			}

			s, err := store.Open(path)
			if err != nil {
				return fmt.Errorf("open results database: %w", err)
			}
			defer s.Close()

			if len(args) == 0 {
				return listRuns(cmd.OutOrStdout(), s)
			}
			return showRun(cmd.OutOrStdout(), s, args[0])
		},
	}

	cmd.Flags().String("results-db", "", "Results database written by filter (.duckdb or .sqlite)")
	return cmd
}

func listRuns(w io.Writer, s *store.Store) error {
	runs, err := s.ListRuns()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "run_id\tstarted_at\tvariants\taccepted\trejected")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Variants.Path, r.Accepted, r.Rejected)
	}
	return nil
}

func showRun(w io.Writer, s *store.Store, id string) error {
	r, err := s.GetRun(id)
	if err != nil {
		return err
	}
	counts, err := s.ReasonCounts(id)
	if err != nil {
		return err
	}
	genes, err := s.MutatedGenes(id)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run = %s\n", r.ID)
	fmt.Fprintf(&b, "Started = %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Genome = %s\n", r.Genome.Path)
	fmt.Fprintf(&b, "Variants = %s\n", r.Variants.Path)
	fmt.Fprintf(&b, "Settings = min coverage %d, gap distance %d, min frequency %g, codon index %s\n",
		r.MinCoverage, r.GapDistance, r.MinFrequency, r.CodonIndex)
	fmt.Fprintf(&b, "Good variants = %d\n", r.Accepted)
	fmt.Fprintf(&b, "Bad variants = %d\n", r.Rejected)
	b.WriteString("Reasons variants were rejected:\n")
	for _, reason := range classify.Reasons {
		fmt.Fprintf(&b, "\t%d : %s\n", counts[string(reason)], reason)
	}
	fmt.Fprintf(&b, "Mutated genes = %s\n", strings.Join(genes, ","))

	_, err = io.WriteString(w, b.String())
	return err
}
