package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/snpfilter/internal/classify"
	"github.com/inodb/snpfilter/internal/varscan"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run describes one invocation of the classifier.
type Run struct {
	ID           string
	StartedAt    time.Time
	Genome       FileFingerprint
	Variants     FileFingerprint
	MinCoverage  int64
	GapDistance  int
	MinFrequency float64
	CodonIndex   string
	Accepted     int
	Rejected     int
}

// NewRun returns a run with a fresh random ID.
func NewRun(opts classify.Options) Run {
	return Run{
		ID:           uuid.NewString(),
		StartedAt:    time.Now().UTC(),
		MinCoverage:  opts.MinCoverage,
		GapDistance:  opts.GapDistance,
		MinFrequency: opts.MinFrequency,
	}
}

// Classification is the stored outcome of one variant record.
type Classification struct {
	Line       int
	Contig     string
	Pos        int64
	Ref        string
	Alt        string
	LocusTag   string
	Accepted   bool
	Reason     string
	OldAA      string
	NewAA      string
	Diagnostic string
}

// NewClassification flattens a record and its outcome into a row.
func NewClassification(rec *varscan.Record, o classify.Outcome) Classification {
	c := Classification{
		Line:   rec.Line,
		Contig: rec.Contig,
		Pos:    rec.Pos,
		Ref:    rec.Ref,
		Alt:    rec.Alt,
	}
	switch o := o.(type) {
	case classify.Accepted:
		c.Accepted = true
		c.LocusTag = o.GeneID
		c.OldAA = o.OldAA()
		c.NewAA = o.NewAA()
	case classify.Rejected:
		c.LocusTag = o.GeneID
		c.Reason = string(o.Reason)
		c.Diagnostic = o.Diagnostic
	}
	return c
}

// SaveRun stores a run and its classifications, replacing any earlier run
// with the same ID. The run row is written last; if any write fails, the
// rows already written for the run are removed.
func (s *Store) SaveRun(r Run, cs []Classification) error {
	if err := s.DeleteRun(r.ID); err != nil {
		return err
	}
	err := s.WriteClassifications(r.ID, cs)
	if err == nil {
		err = s.writeRun(r)
	}
	if err != nil {
		if derr := s.DeleteRun(r.ID); derr != nil {
			return errors.Join(err, derr)
		}
		return err
	}
	return nil
}

// DeleteRun removes a run and its classifications.
func (s *Store) DeleteRun(id string) error {
	if _, err := s.db.Exec("DELETE FROM classifications WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("delete classifications: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM runs WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

func (s *Store) writeRun(r Run) error {
	_, err := s.db.Exec(`INSERT INTO runs (
		run_id, started_at, genome_path, genome_size, variants_path, variants_size,
		min_coverage, gap_distance, min_frequency, codon_index, accepted, rejected
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.Format(time.RFC3339), r.Genome.Path, r.Genome.Size, r.Variants.Path, r.Variants.Size,
		r.MinCoverage, int64(r.GapDistance), r.MinFrequency, r.CodonIndex, int64(r.Accepted), int64(r.Rejected))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const runColumns = `run_id, started_at, genome_path, genome_size, variants_path, variants_size,
	min_coverage, gap_distance, min_frequency, codon_index, accepted, rejected`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r         Run
		startedAt string
		gap       int64
		accepted  int64
		rejected  int64
	)
	if err := row.Scan(
		&r.ID, &startedAt, &r.Genome.Path, &r.Genome.Size, &r.Variants.Path, &r.Variants.Size,
		&r.MinCoverage, &gap, &r.MinFrequency, &r.CodonIndex, &accepted, &rejected); err != nil {
		return Run{}, err
	}
	var err error
	r.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse run start time: %w", err)
	}
	r.GapDistance, r.Accepted, r.Rejected = int(gap), int(accepted), int(rejected)
	return r, nil
}

// GetRun loads a run by ID.
func (s *Store) GetRun(id string) (Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE run_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	return r, nil
}

// ListRuns returns every stored run, oldest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query("SELECT " + runColumns + " FROM runs ORDER BY started_at, run_id")
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// WriteClassifications batch-inserts the outcomes of a run.
func (s *Store) WriteClassifications(runID string, cs []Classification) error {
	if len(cs) == 0 {
		return nil
	}
	if s.backend == DuckDB {
		return s.appendClassifications(runID, cs)
	}
	return s.insertClassifications(runID, cs)
}

// appendClassifications writes through the DuckDB Appender API.
func (s *Store) appendClassifications(runID string, cs []Classification) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "classifications")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, c := range cs {
		if err := appender.AppendRow(
			runID, int64(c.Line), c.Contig, c.Pos, c.Ref, c.Alt, c.LocusTag,
			c.Accepted, c.Reason, c.OldAA, c.NewAA, c.Diagnostic,
		); err != nil {
			return fmt.Errorf("append classification: %w", err)
		}
	}

	return appender.Flush()
}

// insertClassifications writes with a prepared statement in one transaction.
func (s *Store) insertClassifications(runID string, cs []Classification) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO classifications (
		run_id, line, contig, pos, ref, alt, locus_tag, accepted, reason, old_aa, new_aa, diagnostic
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cs {
		if _, err := stmt.ExecContext(ctx,
			runID, int64(c.Line), c.Contig, c.Pos, c.Ref, c.Alt, c.LocusTag,
			c.Accepted, c.Reason, c.OldAA, c.NewAA, c.Diagnostic,
		); err != nil {
			return fmt.Errorf("insert classification: %w", err)
		}
	}
	return tx.Commit()
}

// ReasonCounts returns the number of rejected variants per reason for a run.
func (s *Store) ReasonCounts(runID string) (map[string]int, error) {
	rows, err := s.db.Query(`SELECT reason, COUNT(*) FROM classifications
		WHERE run_id = ? AND NOT accepted
		GROUP BY reason`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reason counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var reason string
		var n int64
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, fmt.Errorf("scan reason count: %w", err)
		}
		counts[reason] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reason counts: %w", err)
	}
	return counts, nil
}

// MutatedGenes returns the locus tags with an accepted mutation in a run,
// in input order.
func (s *Store) MutatedGenes(runID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT locus_tag FROM classifications
		WHERE run_id = ? AND accepted
		ORDER BY line`, runID)
	if err != nil {
		return nil, fmt.Errorf("query mutated genes: %w", err)
	}
	defer rows.Close()

	var genes []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan mutated gene: %w", err)
		}
		genes = append(genes, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutated genes: %w", err)
	}
	return genes, nil
}
