package genome

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestIndex(t *testing.T) *Index {
	t.Helper()
	contigs, err := ReadGenBank(strings.NewReader(testGenBank))
	require.NoError(t, err)
	idx, err := NewIndex(contigs)
	require.NoError(t, err)
	return idx
}

func TestIndex_FeatureAt(t *testing.T) {
	idx := loadTestIndex(t)

	tests := []struct {
		name   string
		contig string
		pos    int64
		want   string // locus tag, "" for intergenic
	}{
		{"cds first base", "C1", 10, "geneA"},
		{"cds last base", "C1", 21, "geneA"},
		{"before cds", "C1", 9, ""},
		{"gap is not a gene", "C1", 35, ""},
		{"reverse strand cds", "C1", 45, "geneB"},
		{"trna", "C2", 7, "trnA"},
		{"after trna", "C2", 11, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := idx.FeatureAt(tt.contig, tt.pos)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.LocusTag)
		})
	}
}

func TestIndex_FeatureAt_FirstMatchWins(t *testing.T) {
	first := &Feature{Type: FeatureCDS, LocusTag: "first", Location: Location{Spans: []Span{{1, 30}}}}
	second := &Feature{Type: FeatureRRNA, LocusTag: "second", Location: Location{Spans: []Span{{10, 20}}}}
	gene := &Feature{Type: "gene", LocusTag: "gene", Location: Location{Spans: []Span{{1, 30}}}}

	idx, err := NewIndex([]*Contig{{
		Name:     "X",
		Seq:      []byte(strings.Repeat("A", 30)),
		Features: []*Feature{gene, first, second},
	}})
	require.NoError(t, err)

	f, err := idx.FeatureAt("X", 15)
	require.NoError(t, err)
	assert.Same(t, first, f)
}

func TestIndex_UnknownContig(t *testing.T) {
	idx := loadTestIndex(t)

	_, err := idx.FeatureAt("nope", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownContig))

	_, err = idx.Contig("nope")
	assert.ErrorIs(t, err, ErrUnknownContig)
}

func TestIndex_Counts(t *testing.T) {
	idx := loadTestIndex(t)
	assert.Equal(t, 2, idx.ContigCount())
	assert.Equal(t, 3, idx.FeatureCount())

	names := []string{}
	for _, c := range idx.Contigs() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"C1", "C2"}, names)
}

func TestNewIndex_Errors(t *testing.T) {
	_, err := NewIndex(nil)
	assert.Error(t, err)

	_, err = NewIndex([]*Contig{{Name: "A", Seq: []byte("A")}, {Name: "A", Seq: []byte("C")}})
	assert.Error(t, err)
}

func TestContig_Extract(t *testing.T) {
	idx := loadTestIndex(t)
	c, err := idx.Contig("C1")
	require.NoError(t, err)

	geneA, err := idx.FeatureAt("C1", 10)
	require.NoError(t, err)
	seq, err := c.Extract(geneA.Location)
	require.NoError(t, err)
	assert.Equal(t, "ATGAAAACCTAA", string(seq))

	geneB, err := idx.FeatureAt("C1", 40)
	require.NoError(t, err)
	seq, err = c.Extract(geneB.Location)
	require.NoError(t, err)
	assert.Equal(t, "ATGGCTTGGTAA", string(seq))

	gaps := c.Gaps()
	require.Len(t, gaps, 1)
	assert.Equal(t, int64(31), gaps[0].Start())
}

func TestComplement(t *testing.T) {
	for in, want := range map[byte]byte{'A': 'T', 'T': 'A', 'G': 'C', 'C': 'G', 'N': 'N', '-': 'N'} {
		assert.Equal(t, string(want), string(Complement(in)), "Complement(%c)", in)
	}
}

func TestFeature_GeneID(t *testing.T) {
	f := &Feature{Type: FeatureCDS, Location: Location{Spans: []Span{{5, 10}}}}
	assert.Equal(t, "X:5-10", f.GeneID("X"))
	f.LocusTag = "tag"
	assert.Equal(t, "tag", f.GeneID("X"))
}
