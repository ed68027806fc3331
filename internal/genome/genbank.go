package genome

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// GenBank flat-file column layout.
const (
	featureKeyCol   = 5
	qualifierCol    = 21
	maxGenBankLine  = 10 * 1024 * 1024
	translationQual = "translation"
)

// ParseError represents an error during annotation parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("genbank parse error at line %d: %s", e.Line, e.Message)
}

// LoadGenBank reads every record of a GenBank file (plain or gzipped).
func LoadGenBank(path string) ([]*Contig, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, fmt.Errorf("open genbank file: %w", err)
	}
	defer in.Close()

	return ReadGenBank(in)
}

// rawFeature accumulates the lines of one feature table entry.
type rawFeature struct {
	key        string
	line       int
	location   strings.Builder
	qualifiers []rawQualifier
	open       bool // last qualifier has an unterminated quoted value
}

type rawQualifier struct {
	name  string
	parts []string
}

// genBankReader holds parser state across lines.
type genBankReader struct {
	scanner    *bufio.Scanner
	lineNumber int
	contigs    []*Contig

	current    *Contig
	inFeatures bool
	inOrigin   bool
	feature    *rawFeature
	seq        []byte
}

// ReadGenBank parses GenBank records from r, one contig per LOCUS entry.
func ReadGenBank(r io.Reader) ([]*Contig, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxGenBankLine)

	g := &genBankReader{scanner: scanner}
	for scanner.Scan() {
		g.lineNumber++
		if err := g.parseLine(strings.TrimRight(scanner.Text(), "\r")); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan genbank: %w", err)
	}
	if g.current != nil {
		return nil, &ParseError{Line: g.lineNumber, Message: fmt.Sprintf("record %s not terminated by //", g.current.Name)}
	}
	return g.contigs, nil
}

func (g *genBankReader) parseLine(line string) error {
	switch {
	case strings.HasPrefix(line, "LOCUS"):
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return &ParseError{Line: g.lineNumber, Message: "LOCUS line without a name"}
		}
		g.current = &Contig{Name: fields[1]}
		g.inFeatures, g.inOrigin = false, false
		g.seq = g.seq[:0]
		return nil
	case g.current == nil:
		// Text before the first LOCUS line is ignored.
		return nil
	case strings.HasPrefix(line, "//"):
		return g.finishRecord()
	case strings.HasPrefix(line, "FEATURES"):
		g.inFeatures = true
		return nil
	case strings.HasPrefix(line, "ORIGIN"):
		g.inOrigin = true
		return g.endFeatures()
	case g.inOrigin:
		for i := 0; i < len(line); i++ {
			ch := line[i]
			if ch >= 'a' && ch <= 'z' {
				g.seq = append(g.seq, ch-'a'+'A')
			} else if ch >= 'A' && ch <= 'Z' {
				g.seq = append(g.seq, ch)
			}
		}
		return nil
	case g.inFeatures:
		return g.parseFeatureLine(line)
	}
	return nil
}

func (g *genBankReader) parseFeatureLine(line string) error {
	if len(line) > featureKeyCol && line[featureKeyCol] != ' ' && strings.TrimSpace(line[:featureKeyCol]) == "" {
		// New feature key in column 6
		if err := g.flushFeature(); err != nil {
			return err
		}
		fields := strings.Fields(line)
		g.feature = &rawFeature{key: fields[0], line: g.lineNumber}
		if len(fields) > 1 {
			g.feature.location.WriteString(strings.Join(fields[1:], ""))
		}
		return nil
	}

	if len(line) > 0 && line[0] != ' ' {
		// A header keyword after the feature table (BASE COUNT, CONTIG, ...)
		g.inFeatures = false
		return g.flushFeature()
	}

	f := g.feature
	if f == nil {
		return nil
	}
	content := strings.TrimSpace(line)
	if content == "" {
		return nil
	}

	if strings.HasPrefix(content, "/") && !f.open {
		name, value, hasValue := strings.Cut(content[1:], "=")
		q := rawQualifier{name: name}
		if hasValue {
			q.parts = append(q.parts, value)
			f.open = strings.HasPrefix(value, `"`) && !closesQuote(value, true)
		}
		f.qualifiers = append(f.qualifiers, q)
		return nil
	}

	if len(f.qualifiers) == 0 {
		f.location.WriteString(content)
		return nil
	}

	q := &f.qualifiers[len(f.qualifiers)-1]
	q.parts = append(q.parts, content)
	if f.open && closesQuote(content, false) {
		f.open = false
	}
	return nil
}

// closesQuote reports whether a qualifier fragment terminates a quoted value.
func closesQuote(s string, first bool) bool {
	if first {
		s = s[1:]
	}
	return strings.HasSuffix(s, `"`)
}

func (g *genBankReader) flushFeature() error {
	raw := g.feature
	g.feature = nil
	if raw == nil {
		return nil
	}

	loc, err := ParseLocation(raw.location.String())
	if err != nil {
		return &ParseError{Line: raw.line, Message: err.Error()}
	}

	f := &Feature{
		Type:       FeatureType(raw.key),
		Location:   loc,
		CodonStart: 1,
		Qualifiers: make(map[string]string, len(raw.qualifiers)),
	}
	for _, q := range raw.qualifiers {
		sep := " "
		if q.name == translationQual {
			sep = ""
		}
		value := strings.Trim(strings.Join(q.parts, sep), `"`)
		if _, seen := f.Qualifiers[q.name]; !seen {
			f.Qualifiers[q.name] = value
		}
	}

	f.LocusTag = f.Qualifiers["locus_tag"]
	f.Translation = f.Qualifiers[translationQual]
	if cs, ok := f.Qualifiers["codon_start"]; ok {
		n, err := strconv.Atoi(cs)
		if err != nil || n < 1 || n > 3 {
			return &ParseError{Line: raw.line, Message: fmt.Sprintf("invalid codon_start %q", cs)}
		}
		f.CodonStart = n
	}

	g.current.Features = append(g.current.Features, f)
	return nil
}

func (g *genBankReader) endFeatures() error {
	g.inFeatures = false
	return g.flushFeature()
}

func (g *genBankReader) finishRecord() error {
	if err := g.endFeatures(); err != nil {
		return err
	}
	c := g.current
	g.current = nil
	g.inOrigin = false

	if len(g.seq) == 0 {
		return &ParseError{Line: g.lineNumber, Message: fmt.Sprintf("record %s has no sequence", c.Name)}
	}
	c.Seq = make([]byte, len(g.seq))
	copy(c.Seq, g.seq)

	for _, f := range c.Features {
		if f.End() > c.Len() {
			return &ParseError{
				Line:    g.lineNumber,
				Message: fmt.Sprintf("feature %s at %s extends past end of %s (length %d)", f.Type, f.Location, c.Name, c.Len()),
			}
		}
	}

	g.contigs = append(g.contigs, c)
	return nil
}
