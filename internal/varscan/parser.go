package varscan

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseError represents an error during variant table parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("variant table parse error at line %d: %s", e.Line, e.Message)
}

// Parser reads variant records from a whitespace-delimited table with one
// header line.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	header     []string
	columns    Columns
}

// NewParser creates a new parser for the given file.
// Supports both plain and gzipped tables; "-" reads standard input.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open variant file: %w", err)
	}

	p := &Parser{file: file, columns: DefaultColumns()}
	br := bufio.NewReader(file)

	// Check for gzip magic number (0x1f, 0x8b)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = br
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader:  bufio.NewReader(r),
		columns: DefaultColumns(),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// SetColumns overrides the default column layout.
func (p *Parser) SetColumns(c Columns) {
	p.columns = c
}

// Header returns the column names from the header line.
func (p *Parser) Header() []string {
	return p.header
}

// Close closes the parser and releases resources.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return &ParseError{Line: p.lineNumber, Message: "missing header line"}
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		p.header = fields
		return nil
	}
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
//
// Rows that cannot be parsed are still returned, with Malformed set, so
// that they can be reported rather than silently dropped.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.lineNumber++

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue // Skip empty lines
		}
		return p.parseFields(fields), nil
	}
}

func (p *Parser) parseFields(fields []string) *Record {
	rec := &Record{Line: p.lineNumber, Fields: fields}

	if need := p.columns.MinFields(); len(fields) < need {
		rec.Malformed = fmt.Sprintf("expected at least %d columns, found %d", need, len(fields))
		return rec
	}

	c := p.columns
	rec.Contig = fields[c.Contig]
	rec.Ref = fields[c.Ref]
	rec.Alt = fields[c.Alt]
	rec.Coverage = fields[c.Coverage]
	rec.Frequency = fields[c.Frequency]

	pos, err := strconv.ParseInt(fields[c.Position], 10, 64)
	if err != nil || pos < 1 {
		rec.Malformed = fmt.Sprintf("invalid position: %s", fields[c.Position])
		return rec
	}
	rec.Pos = pos

	return rec
}
