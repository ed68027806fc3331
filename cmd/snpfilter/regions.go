package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/snpfilter/internal/classify"
	"github.com/inodb/snpfilter/internal/regions"
)

func (a *app) newRegionsCmd() *cobra.Command {
	var gf genomeFlags

	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Print the unsafe regions of a genome as BED",
		Long: `Print, for every contig, the positions within the gap distance of a
contig end or an assembly gap. Variants in these regions are rejected as
near_gap by the filter command.`,
		Example: `  snpfilter regions -g genome.gb -d 300 > unsafe.bed`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{
				"gap_distance": "gap-distance",
				"workers":      "workers",
			}); err != nil {
				return err
			}
			if err := gf.validate(); err != nil {
				return err
			}
			gapDistance := viper.GetInt("gap_distance")
			if gapDistance < 0 {
				return usageErrorf("--gap-distance must not be negative")
			}

			idx, err := gf.load(a.logger)
			if err != nil {
				return err
			}
			sets, err := regions.BuildAll(cmd.Context(), idx.Contigs(), gapDistance, viper.GetInt("workers"))
			if err != nil {
				return fmt.Errorf("build unsafe regions: %w", err)
			}

			for _, c := range idx.Contigs() {
				s := sets[c.Name]
				a.logger.Debug("unsafe regions",
					zap.String("contig", c.Name),
					zap.Int64("positions", s.Len()))
				if err := regions.WriteBED(cmd.OutOrStdout(), s); err != nil {
					return err
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	gf.register(f)
	f.IntP("gap-distance", "d", classify.DefaultOptions().GapDistance, "Distance from a contig end or assembly gap")
	f.Int("workers", 0, "Workers (0 = all CPUs)")

	return cmd
}
