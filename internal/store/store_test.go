package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/snpfilter/internal/classify"
	"github.com/inodb/snpfilter/internal/translate"
	"github.com/inodb/snpfilter/internal/varscan"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testClassifications() []Classification {
	rec := func(line int, pos int64) *varscan.Record {
		return &varscan.Record{Line: line, Contig: "C1", Pos: pos, Ref: "A", Alt: "G"}
	}
	return []Classification{
		NewClassification(rec(2, 13), classify.Accepted{GeneID: "geneA", Translated: true, Change: translate.Change{Old: 'K', New: 'E'}}),
		NewClassification(rec(3, 17), classify.Rejected{Reason: classify.ReasonRepeatGene, GeneID: "geneA", Diagnostic: "gene geneA already mutated"}),
		NewClassification(rec(4, 5), classify.Rejected{Reason: classify.ReasonIntergenic}),
		NewClassification(rec(5, 6), classify.Rejected{Reason: classify.ReasonIntergenic}),
		NewClassification(rec(6, 23), classify.Accepted{GeneID: "trnA"}),
	}
}

func TestBackendFor(t *testing.T) {
	assert.Equal(t, DuckDB, BackendFor(""))
	assert.Equal(t, DuckDB, BackendFor("results.duckdb"))
	assert.Equal(t, DuckDB, BackendFor("results.db"))
	assert.Equal(t, SQLite, BackendFor("results.sqlite"))
	assert.Equal(t, SQLite, BackendFor("RESULTS.SQLITE3"))
}

func TestNewClassification(t *testing.T) {
	cs := testClassifications()

	assert.True(t, cs[0].Accepted)
	assert.Equal(t, "K", cs[0].OldAA)
	assert.Equal(t, "E", cs[0].NewAA)
	assert.Empty(t, cs[0].Reason)

	assert.False(t, cs[1].Accepted)
	assert.Equal(t, "multiple_mutations_in_same_gene", cs[1].Reason)
	assert.Equal(t, "geneA", cs[1].LocusTag)

	assert.Equal(t, "-", cs[4].OldAA)
}

func TestStore_Backends(t *testing.T) {
	backends := map[string]func(*testing.T) *Store{
		"duckdb": openInMemory,
		"sqlite": openSQLite,
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			assert.Equal(t, Backend(name), s.Backend())

			run := NewRun(classify.DefaultOptions())
			run.Genome = FileFingerprint{Path: "genome.gb", Size: 1234}
			run.Variants = FileFingerprint{Path: "calls.tsv", Size: 99}
			run.CodonIndex = "codon"
			run.Accepted, run.Rejected = 2, 3
			require.NoError(t, s.SaveRun(run, testClassifications()))

			got, err := s.GetRun(run.ID)
			require.NoError(t, err)
			assert.Equal(t, run.ID, got.ID)
			assert.Equal(t, int64(10), got.MinCoverage)
			assert.Equal(t, 300, got.GapDistance)
			assert.InDelta(t, 0.7, got.MinFrequency, 1e-9)
			assert.Equal(t, "genome.gb", got.Genome.Path)
			assert.Equal(t, int64(1234), got.Genome.Size)
			assert.Equal(t, "codon", got.CodonIndex)
			assert.Equal(t, 2, got.Accepted)
			assert.Equal(t, 3, got.Rejected)
			assert.WithinDuration(t, run.StartedAt, got.StartedAt, 1e9)

			counts, err := s.ReasonCounts(run.ID)
			require.NoError(t, err)
			assert.Equal(t, map[string]int{
				"multiple_mutations_in_same_gene": 1,
				"intergenic":                      2,
			}, counts)

			genes, err := s.MutatedGenes(run.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"geneA", "trnA"}, genes)
		})
	}
}

func TestStore_RunsAreIsolated(t *testing.T) {
	s := openInMemory(t)

	a := NewRun(classify.DefaultOptions())
	b := NewRun(classify.DefaultOptions())
	require.NotEqual(t, a.ID, b.ID)

	require.NoError(t, s.WriteClassifications(a.ID, testClassifications()))
	counts, err := s.ReasonCounts(b.ID)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestStore_SaveRunReplaces(t *testing.T) {
	s := openInMemory(t)

	run := NewRun(classify.DefaultOptions())
	require.NoError(t, s.SaveRun(run, testClassifications()))
	run.Accepted = 7
	require.NoError(t, s.SaveRun(run, testClassifications()[:1]))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Accepted)
	assert.Equal(t, 1, countClassifications(t, s, run.ID))
}

func countClassifications(t *testing.T, s *Store, runID string) int {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM classifications WHERE run_id = ?", runID).Scan(&n))
	return int(n)
}

func TestStore_SaveRunFailureLeavesNothing(t *testing.T) {
	backends := map[string]func(*testing.T) *Store{
		"duckdb": openInMemory,
		"sqlite": openSQLite,
	}

	for name, open := range backends {
		t.Run(name+"/classifications", func(t *testing.T) {
			s := open(t)
			_, err := s.DB().Exec("DROP TABLE classifications")
			require.NoError(t, err)
			_, err = s.DB().Exec("CREATE TABLE classifications (run_id VARCHAR)")
			require.NoError(t, err)

			run := NewRun(classify.DefaultOptions())
			require.Error(t, s.SaveRun(run, testClassifications()))

			_, err = s.GetRun(run.ID)
			assert.ErrorIs(t, err, ErrRunNotFound)
		})

		t.Run(name+"/run", func(t *testing.T) {
			s := open(t)
			_, err := s.DB().Exec("DROP TABLE runs")
			require.NoError(t, err)
			_, err = s.DB().Exec("CREATE TABLE runs (run_id VARCHAR)")
			require.NoError(t, err)

			run := NewRun(classify.DefaultOptions())
			require.Error(t, s.SaveRun(run, testClassifications()))
			assert.Zero(t, countClassifications(t, s, run.ID))
		})
	}
}

func TestStore_ListRuns(t *testing.T) {
	s := openSQLite(t)

	runs, err := s.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)

	first := NewRun(classify.DefaultOptions())
	second := NewRun(classify.DefaultOptions())
	second.StartedAt = first.StartedAt.Add(time.Hour)
	require.NoError(t, s.SaveRun(second, nil))
	require.NoError(t, s.SaveRun(first, nil))

	runs, err = s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[0].ID)
	assert.Equal(t, second.ID, runs[1].ID)

	require.NoError(t, s.DeleteRun(first.ID))
	runs, err = s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.ID, runs[0].ID)
}

func TestStore_RunNotFound(t *testing.T) {
	s := openInMemory(t)
	_, err := s.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_EmptyWrite(t *testing.T) {
	s := openInMemory(t)
	assert.NoError(t, s.WriteClassifications("x", nil))
}

func TestStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.duckdb")
	s, err := Open(path)
	require.NoError(t, err)

	run := NewRun(classify.DefaultOptions())
	require.NoError(t, s.SaveRun(run, testClassifications()))
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.GetRun(run.ID)
	assert.NoError(t, err)
}

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genome.gb")
	require.NoError(t, os.WriteFile(path, []byte("LOCUS"), 0o644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, fp.Path)
	assert.Equal(t, int64(5), fp.Size)
	assert.False(t, fp.ModTime.IsZero())
}
