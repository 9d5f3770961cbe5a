package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/vocab"
	"golang.org/x/text/unicode/norm"
)

// TextParser handles plain text files.
type TextParser struct {
	Vocab *vocab.Vocabulary
}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := doctree.NewBuilder()
	seg := newSegmenter(p.Vocab, b)
	for scanner.Scan() {
		seg.feed(norm.NFC.String(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	seg.flush()
	return b.Document(), nil
}

// SegmentText runs the plain-text path: every line is classified and the
// line stream is grouped into sections and blocks.
func SegmentText(text string, v *vocab.Vocabulary) *doctree.Document {
	b := doctree.NewBuilder()
	seg := newSegmenter(v, b)
	for _, line := range strings.Split(normalizeText(text), "\n") {
		seg.feed(line)
	}
	seg.flush()
	return b.Document()
}

// normalizeText folds line endings and composes text to NFC so that glyphs
// and keywords compare byte-for-byte.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFC.String(text)
}

// segmenter groups classified lines into builder calls. Consecutive
// paragraph lines are joined with a newline; blank lines end a paragraph but
// not a list; any other non-bullet line ends the list.
type segmenter struct {
	cls  *Classifier
	b    *doctree.Builder
	para []string
}

func newSegmenter(v *vocab.Vocabulary, b *doctree.Builder) *segmenter {
	return &segmenter{cls: NewClassifier(v), b: b}
}

func (s *segmenter) feed(raw string) {
	line := s.cls.Classify(raw)
	switch line.Kind {
	case LineBlank:
		s.flushParagraph()
	case LineHeading:
		s.flushParagraph()
		s.b.StartSection(line.Text, line.Level)
	case LineDivider:
		s.flushParagraph()
		s.b.AddDivider()
	case LineBullet:
		s.flushParagraph()
		s.b.AddBullet(line.Text, line.Level)
	case LineParagraph:
		s.b.EndList()
		s.para = append(s.para, line.Text)
	}
}

func (s *segmenter) flushParagraph() {
	if len(s.para) == 0 {
		return
	}
	s.b.AddParagraph(strings.Join(s.para, "\n"))
	s.para = nil
}

// flush ends any open paragraph and list.
func (s *segmenter) flush() {
	s.flushParagraph()
	s.b.EndList()
}
