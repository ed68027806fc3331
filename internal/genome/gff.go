package genome

import (
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/featio"
	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
)

// LoadGFF loads contig sequences from a FASTA file and their features from
// a GFF file. Feature order within a contig follows GFF line order.
func LoadGFF(gffPath, fastaPath string) ([]*Contig, error) {
	fa, err := openInput(fastaPath)
	if err != nil {
		return nil, fmt.Errorf("open fasta file: %w", err)
	}
	defer fa.Close()

	gf, err := openInput(gffPath)
	if err != nil {
		return nil, fmt.Errorf("open gff file: %w", err)
	}
	defer gf.Close()

	return ReadGFF(gf, fa)
}

// ReadGFF builds contigs from GFF features and FASTA sequences.
func ReadGFF(gffReader, fastaReader io.Reader) ([]*Contig, error) {
	contigs, err := readFASTA(fastaReader)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*Contig, len(contigs))
	for _, c := range contigs {
		byName[c.Name] = c
	}

	// CDS rows sharing an ID are parts of one multi-span feature.
	merged := make(map[string]*Feature)

	sc := featio.NewScanner(gff.NewReader(gffReader))
	for sc.Next() {
		gf := sc.Feat().(*gff.Feature)
		c, ok := byName[gf.SeqName]
		if !ok {
			return nil, fmt.Errorf("gff feature on %w: %q", ErrUnknownContig, gf.SeqName)
		}

		// biogo reports zero-based half-open coordinates.
		span := Span{Start: int64(gf.FeatStart) + 1, End: int64(gf.FeatEnd)}
		typ := gffFeatureType(gf.Feature)
		id := gffAttr(gf, "ID")

		key := gf.SeqName + "\x00" + id
		if f, ok := merged[key]; ok && id != "" && f.Type == typ {
			loc, err := NewLocation(append(f.Location.Spans, span), f.Location.Complement)
			if err != nil {
				return nil, fmt.Errorf("gff feature %s: %w", id, err)
			}
			f.Location = loc
			continue
		}

		loc, err := NewLocation([]Span{span}, gf.FeatStrand == seq.Minus)
		if err != nil {
			return nil, fmt.Errorf("gff feature %s on %s: %w", gf.Feature, gf.SeqName, err)
		}
		f := &Feature{
			Type:        typ,
			Location:    loc,
			LocusTag:    firstNonEmpty(gffAttr(gf, "locus_tag"), id, gffAttr(gf, "Name")),
			Translation: gffAttr(gf, translationQual),
			CodonStart:  1,
			Qualifiers:  make(map[string]string),
		}
		if fr := int(gf.FeatFrame); fr >= 0 && fr <= 2 {
			f.CodonStart = fr + 1
		}
		for _, a := range gf.FeatAttributes {
			tag, value := splitAttr(a)
			if _, seen := f.Qualifiers[tag]; !seen {
				f.Qualifiers[tag] = value
			}
		}
		c.Features = append(c.Features, f)
		if id != "" {
			merged[key] = f
		}
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("read gff: %w", err)
	}

	for _, c := range contigs {
		for _, f := range c.Features {
			if f.End() > c.Len() {
				return nil, fmt.Errorf("feature %s at %s extends past end of %s (length %d)", f.Type, f.Location, c.Name, c.Len())
			}
		}
	}
	return contigs, nil
}

// readFASTA reads all sequences of a FASTA stream as feature-less contigs.
func readFASTA(r io.Reader) ([]*Contig, error) {
	var contigs []*Contig
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		b := make([]byte, len(s.Seq))
		for i, l := range s.Seq {
			b[i] = upper(byte(l))
		}
		contigs = append(contigs, &Contig{Name: s.ID, Seq: b})
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("read fasta: %w", err)
	}
	if len(contigs) == 0 {
		return nil, fmt.Errorf("fasta contains no sequences")
	}
	return contigs, nil
}

func gffFeatureType(t string) FeatureType {
	if t == "gap" {
		return FeatureAssemblyGap
	}
	return FeatureType(t)
}

// gffAttr returns an attribute value, accepting both GFF2 ("tag value") and
// GFF3 ("tag=value") encodings.
func gffAttr(f *gff.Feature, tag string) string {
	for _, a := range f.FeatAttributes {
		if t, v := splitAttr(a); t == tag {
			return v
		}
	}
	return ""
}

func splitAttr(a gff.Attribute) (tag, value string) {
	tag, value = a.Tag, a.Value
	if value == "" {
		if t, v, ok := strings.Cut(tag, "="); ok {
			tag, value = t, v
		}
	}
	return strings.TrimSpace(tag), strings.Trim(strings.TrimSpace(value), `"`)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
