package main

import (
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/inodb/snpfilter/internal/genome"
)

// genomeFlags selects the reference genome input.
type genomeFlags struct {
	genBank string
	gff     string
	fasta   string
}

func (g *genomeFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.genBank, "genbank", "g", "", "Reference genome in GenBank format")
	fs.StringVar(&g.gff, "gff", "", "Reference annotation in GFF format (with --fasta)")
	fs.StringVar(&g.fasta, "fasta", "", "Reference sequences in FASTA format (with --gff)")
}

func (g *genomeFlags) validate() error {
	switch {
	case g.genBank != "" && (g.gff != "" || g.fasta != ""):
		return usageErrorf("use either --genbank or --gff with --fasta, not both")
	case g.genBank != "":
		return nil
	case g.gff != "" && g.fasta != "":
		return nil
	case g.gff != "" || g.fasta != "":
		return usageErrorf("--gff and --fasta must be given together")
	}
	return usageErrorf("a reference genome is required (--genbank, or --gff with --fasta)")
}

// path returns the file that identifies the genome in run metadata.
func (g *genomeFlags) path() string {
	if g.genBank != "" {
		return g.genBank
	}
	return g.gff
}

func (g *genomeFlags) load(logger *zap.Logger) (*genome.Index, error) {
	var (
		contigs []*genome.Contig
		err     error
	)
	if g.genBank != "" {
		logger.Info("loading genome", zap.String("genbank", g.genBank))
		contigs, err = genome.LoadGenBank(g.genBank)
	} else {
		logger.Info("loading genome", zap.String("gff", g.gff), zap.String("fasta", g.fasta))
		contigs, err = genome.LoadGFF(g.gff, g.fasta)
	}
	if err != nil {
		return nil, err
	}

	idx, err := genome.NewIndex(contigs)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded genome",
		zap.Int("contigs", idx.ContigCount()),
		zap.Int("genes", idx.FeatureCount()))
	return idx, nil
}
