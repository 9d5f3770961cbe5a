package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/jobfmt/internal/vocab"
)

// LineKind is the classification of one plain-text line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeading
	LineBullet
	LineParagraph
	LineDivider
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineHeading:
		return "heading"
	case LineBullet:
		return "bullet"
	case LineParagraph:
		return "paragraph"
	case LineDivider:
		return "divider"
	}
	return "unknown"
}

// Line is a classified line. Text has markers, heading prefixes and
// surrounding whitespace removed.
type Line struct {
	Kind   LineKind
	Text   string
	Level  int // Heading level for headings, nesting level for bullets.
	Marker MarkerKind
}

// maxCapsHeading is the longest ALL-CAPS line still treated as a heading.
const maxCapsHeading = 60

// Heading level assigned to headings that carry no level of their own.
const inferredHeadingLevel = 2

var (
	markdownHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.*?)(?:\s+#+)?\s*$`)
	ruleRe            = regexp.MustCompile(`^(?:(?:-\s*){3,}|(?:\*\s*){3,}|(?:_\s*){3,})$`)
)

// Classifier classifies lines against one vocabulary.
type Classifier struct {
	vocab *vocab.Vocabulary
}

// NewClassifier returns a Classifier for v, or for the default vocabulary when v is nil.
func NewClassifier(v *vocab.Vocabulary) *Classifier {
	if v == nil {
		v = vocab.Default()
	}
	return &Classifier{vocab: v}
}

// Classify classifies one raw line. Heading rules are checked before list
// markers, so an ambiguous line is a heading. A backslash in front of the
// text forces it literal: "\REQUIREMENTS" is a paragraph and "- \Benefits:"
// a bullet, each with the backslash removed.
func (c *Classifier) Classify(raw string) Line {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Line{Kind: LineBlank}
	}

	if m := markdownHeadingRe.FindStringSubmatch(trimmed); m != nil && strings.TrimSpace(m[2]) != "" {
		return Line{Kind: LineHeading, Text: strings.TrimSpace(m[2]), Level: len(m[1])}
	}
	if ruleRe.MatchString(trimmed) {
		return Line{Kind: LineDivider}
	}

	marker := NormalizeMarker(raw, c.vocab)
	if text, ok := strings.CutPrefix(marker.Text, `\`); ok {
		if marker.Kind == MarkerNone {
			return Line{Kind: LineParagraph, Text: text}
		}
		return Line{Kind: LineBullet, Text: text, Level: marker.Level, Marker: marker.Kind}
	}

	if marker.Kind == MarkerNone && isAllCaps(trimmed) && utf8.RuneCountInString(trimmed) <= maxCapsHeading {
		return Line{Kind: LineHeading, Text: trimmed, Level: inferredHeadingLevel}
	}
	if strings.HasSuffix(trimmed, ":") {
		title := strings.TrimSpace(strings.TrimRight(marker.Text, ":"))
		if _, ok := c.vocab.Lookup(title); ok {
			return Line{Kind: LineHeading, Text: title, Level: inferredHeadingLevel}
		}
	}
	if marker.Kind == MarkerNone && c.vocab.IsExactKeyword(trimmed) {
		return Line{Kind: LineHeading, Text: trimmed, Level: inferredHeadingLevel}
	}

	if marker.Kind != MarkerNone {
		return Line{Kind: LineBullet, Text: marker.Text, Level: marker.Level, Marker: marker.Kind}
	}
	return Line{Kind: LineParagraph, Text: trimmed}
}

// isAllCaps reports whether s has at least two uppercase letters and no
// lowercase ones. Uncased scripts never qualify.
func isAllCaps(s string) bool {
	upper := 0
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return upper >= 2
}
