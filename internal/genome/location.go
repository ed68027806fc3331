package genome

import (
	"fmt"
	"strconv"
	"strings"
)

// strandSpan is a span as written in a location string, with its own strand.
type strandSpan struct {
	Span
	complement bool
	partial    bool
}

// ParseLocation parses a GenBank feature location such as
// "complement(join(100..200,300..>450))".
func ParseLocation(s string) (Location, error) {
	s = strings.Join(strings.Fields(s), "")
	spans, err := parseSpans(s)
	if err != nil {
		return Location{}, err
	}

	complement := spans[0].complement
	partial := false
	plain := make([]Span, len(spans))
	for i, sp := range spans {
		if sp.complement != complement {
			return Location{}, fmt.Errorf("mixed-strand location %q not supported", s)
		}
		partial = partial || sp.partial
		plain[i] = sp.Span
	}

	loc, err := NewLocation(plain, complement)
	if err != nil {
		return Location{}, fmt.Errorf("location %q: %w", s, err)
	}
	loc.Partial = partial
	return loc, nil
}

func parseSpans(s string) ([]strandSpan, error) {
	switch {
	case s == "":
		return nil, fmt.Errorf("empty location")
	case strings.HasPrefix(s, "complement(") && strings.HasSuffix(s, ")"):
		inner, err := parseSpans(s[len("complement(") : len(s)-1])
		if err != nil {
			return nil, err
		}
		out := make([]strandSpan, len(inner))
		for i, sp := range inner {
			sp.complement = !sp.complement
			out[len(inner)-1-i] = sp
		}
		return out, nil
	case strings.HasPrefix(s, "join(") && strings.HasSuffix(s, ")"):
		return parseList(s[len("join(") : len(s)-1])
	case strings.HasPrefix(s, "order(") && strings.HasSuffix(s, ")"):
		return parseList(s[len("order(") : len(s)-1])
	}

	sp, err := parseRange(s)
	if err != nil {
		return nil, err
	}
	return []strandSpan{sp}, nil
}

// parseList parses a comma-separated list of locations, honouring nesting.
func parseList(s string) ([]strandSpan, error) {
	var out []strandSpan
	depth, last := 0, 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) {
			switch s[i] {
			case '(':
				depth++
				continue
			case ')':
				depth--
				continue
			case ',':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}
		part, err := parseSpans(s[last:i])
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
		last = i + 1
	}
	return out, nil
}

// parseRange parses "a..b", "<a..>b", "a^b" or a single base "a".
func parseRange(s string) (strandSpan, error) {
	if strings.Contains(s, ":") {
		return strandSpan{}, fmt.Errorf("remote location %q not supported", s)
	}
	partial := strings.ContainsAny(s, "<>")
	s = strings.NewReplacer("<", "", ">", "").Replace(s)

	var startStr, endStr string
	switch {
	case strings.Contains(s, ".."):
		startStr, endStr, _ = strings.Cut(s, "..")
	case strings.Contains(s, "^"):
		startStr, _, _ = strings.Cut(s, "^")
		endStr = startStr
	default:
		startStr, endStr = s, s
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return strandSpan{}, fmt.Errorf("invalid location start %q", startStr)
	}
	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil {
		return strandSpan{}, fmt.Errorf("invalid location end %q", endStr)
	}
	return strandSpan{Span: Span{Start: start, End: end}, partial: partial}, nil
}
