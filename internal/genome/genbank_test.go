package genome

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGenBank holds two records. C1 carries a forward CDS (geneA, 10..21),
// an assembly gap (31..39) and a reverse-strand CDS (geneB, 40..51).
const testGenBank = `LOCUS       C1                        60 bp    DNA     linear   BCT 01-JAN-2020
DEFINITION  Test contig one.
ACCESSION   C1
FEATURES             Location/Qualifiers
     source          1..60
                     /organism="Testus example"
                     /mol_type="genomic DNA"
     gene            10..21
                     /locus_tag="geneA"
     CDS             10..21
                     /locus_tag="geneA"
                     /product="hypothetical
                     protein"
                     /codon_start=1
                     /translation="MK
                     T"
     assembly_gap    31..39
                     /estimated_length=9
                     /gap_type="within scaffold"
     CDS             complement(40..51)
                     /locus_tag="geneB"
                     /translation="MAW"
ORIGIN
        1 gcgcgcgcga tgaaaaccta agcgcgcgcg nnnnnnnnnt taccaagcca tgcgcgcgcg
//
LOCUS       C2                        20 bp    DNA     linear   BCT 01-JAN-2020
FEATURES             Location/Qualifiers
     tRNA            5..10
                     /locus_tag="trnA"
                     /product="tRNA-Ala"
ORIGIN
        1 acgtacgtac gtacgtacgt
//
`

func TestReadGenBank_Records(t *testing.T) {
	contigs, err := ReadGenBank(strings.NewReader(testGenBank))
	require.NoError(t, err)
	require.Len(t, contigs, 2)

	c1 := contigs[0]
	assert.Equal(t, "C1", c1.Name)
	assert.Equal(t, int64(60), c1.Len())
	assert.Equal(t, "GCGCGCGCGATGAAAACCTAAGCGCGCGCGNNNNNNNNNTTACCAAGCCATGCGCGCGCG", string(c1.Seq))
	require.Len(t, c1.Features, 5)

	types := make([]FeatureType, len(c1.Features))
	for i, f := range c1.Features {
		types[i] = f.Type
	}
	assert.Equal(t, []FeatureType{"source", "gene", FeatureCDS, FeatureAssemblyGap, FeatureCDS}, types)

	c2 := contigs[1]
	assert.Equal(t, "C2", c2.Name)
	assert.Equal(t, int64(20), c2.Len())
	require.Len(t, c2.Features, 1)
	assert.Equal(t, FeatureTRNA, c2.Features[0].Type)
	assert.Equal(t, "trnA", c2.Features[0].LocusTag)
}

func TestReadGenBank_Qualifiers(t *testing.T) {
	contigs, err := ReadGenBank(strings.NewReader(testGenBank))
	require.NoError(t, err)

	geneA := contigs[0].Features[2]
	assert.Equal(t, "geneA", geneA.LocusTag)
	assert.Equal(t, "MKT", geneA.Translation, "translation lines are joined without spaces")
	assert.Equal(t, "hypothetical protein", geneA.Qualifiers["product"])
	assert.Equal(t, 1, geneA.CodonStart)
	assert.Equal(t, int64(10), geneA.Start())
	assert.Equal(t, int64(21), geneA.End())
	assert.False(t, geneA.Location.Complement)

	gap := contigs[0].Features[3]
	assert.Equal(t, "within scaffold", gap.Qualifiers["gap_type"])

	geneB := contigs[0].Features[4]
	assert.True(t, geneB.Location.Complement)
	assert.Equal(t, "MAW", geneB.Translation)
}

func TestReadGenBank_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{
			name:  "bad location",
			input: "LOCUS       X 10 bp\nFEATURES             Location/Qualifiers\n     CDS             abc..def\nORIGIN\n        1 acgtacgtac\n//\n",
			msg:   "invalid location start",
		},
		{
			name:  "no sequence",
			input: "LOCUS       X 10 bp\nFEATURES             Location/Qualifiers\n     CDS             1..3\n//\n",
			msg:   "has no sequence",
		},
		{
			name:  "feature past end",
			input: "LOCUS       X 10 bp\nFEATURES             Location/Qualifiers\n     CDS             1..30\nORIGIN\n        1 acgtacgtac\n//\n",
			msg:   "extends past end",
		},
		{
			name:  "unterminated",
			input: "LOCUS       X 10 bp\nORIGIN\n        1 acgtacgtac\n",
			msg:   "not terminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGenBank(strings.NewReader(tt.input))
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, perr.Message, tt.msg)
		})
	}
}

func TestLoadGenBank_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genome.gb.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(testGenBank))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	contigs, err := LoadGenBank(path)
	require.NoError(t, err)
	assert.Len(t, contigs, 2)
}

func TestLoadGenBank_MissingFile(t *testing.T) {
	_, err := LoadGenBank(filepath.Join(t.TempDir(), "missing.gb"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
