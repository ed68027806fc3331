// Package output writes classification results.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/snpfilter/internal/classify"
	"github.com/inodb/snpfilter/internal/varscan"
)

// Columns appended to the input header.
const (
	ColOldAA        = "old_aa"
	ColNewAA        = "new_aa"
	ColFilterReason = "filter_reason"
)

// tabWriter writes rows in tab-delimited format.
type tabWriter struct {
	w       *bufio.Writer
	columns []string
}

func newTabWriter(w io.Writer, header []string, extra ...string) *tabWriter {
	columns := make([]string, 0, len(header)+len(extra))
	columns = append(columns, header...)
	columns = append(columns, extra...)
	return &tabWriter{w: bufio.NewWriter(w), columns: columns}
}

// WriteHeader writes the header line.
func (tw *tabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

func (tw *tabWriter) writeRow(fields []string, extra ...string) error {
	values := make([]string, 0, len(fields)+len(extra))
	values = append(values, fields...)
	values = append(values, extra...)
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *tabWriter) Flush() error {
	return tw.w.Flush()
}

// GoodWriter writes accepted variants with their amino-acid change.
type GoodWriter struct {
	*tabWriter
}

// NewGoodWriter creates a writer for accepted variants. header is the
// header of the input table.
func NewGoodWriter(w io.Writer, header []string) *GoodWriter {
	return &GoodWriter{newTabWriter(w, header, ColOldAA, ColNewAA)}
}

// Write writes the original row followed by the old and new residue.
func (gw *GoodWriter) Write(rec *varscan.Record, a classify.Accepted) error {
	return gw.writeRow(rec.Fields, a.OldAA(), a.NewAA())
}

// BadWriter writes rejected variants with the reason they were rejected.
type BadWriter struct {
	*tabWriter
}

// NewBadWriter creates a writer for rejected variants. header is the
// header of the input table.
func NewBadWriter(w io.Writer, header []string) *BadWriter {
	return &BadWriter{newTabWriter(w, header, ColFilterReason)}
}

// Write writes the original row followed by the reason code.
func (bw *BadWriter) Write(rec *varscan.Record, r classify.Rejected) error {
	return bw.writeRow(rec.Fields, string(r.Reason))
}

// Report routes each outcome to the good or bad table.
type Report struct {
	Good *GoodWriter
	Bad  *BadWriter
}

// NewReport creates both writers and writes their headers.
func NewReport(good, bad io.Writer, header []string) (*Report, error) {
	r := &Report{
		Good: NewGoodWriter(good, header),
		Bad:  NewBadWriter(bad, header),
	}
	if err := r.Good.WriteHeader(); err != nil {
		return nil, err
	}
	if err := r.Bad.WriteHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// Write implements classify.Sink.
func (r *Report) Write(rec *varscan.Record, o classify.Outcome) error {
	switch o := o.(type) {
	case classify.Accepted:
		return r.Good.Write(rec, o)
	case classify.Rejected:
		return r.Bad.Write(rec, o)
	}
	return nil
}

// Flush flushes both tables.
func (r *Report) Flush() error {
	if err := r.Good.Flush(); err != nil {
		return err
	}
	return r.Bad.Flush()
}
