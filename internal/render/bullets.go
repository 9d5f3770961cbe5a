package render

import (
	"strings"

	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/parser"
	"github.com/dgallion1/jobfmt/internal/vocab"
)

// Bullets flattens every bullet item of doc in document order, ignoring
// nesting. Duplicates are kept. limit <= 0 means no cap.
func Bullets(doc *doctree.Document, limit int) []string {
	out := []string{}
	if doc.Empty() {
		return out
	}
	for _, s := range doc.Sections {
		for _, it := range s.Bullets() {
			if limit > 0 && len(out) >= limit {
				return out
			}
			out = append(out, it.Text)
		}
	}
	return out
}

// DefaultKeyBullets is the KeyBullets cap used when max <= 0.
const DefaultKeyBullets = 10

// KeyBullets picks the most important bullets: those of requirements
// sections, then responsibilities sections, then everything else in document
// order. Repeats are dropped, compared case-insensitively.
func KeyBullets(doc *doctree.Document, v *vocab.Vocabulary, max int) []string {
	out := []string{}
	if doc.Empty() {
		return out
	}
	if v == nil {
		v = vocab.Default()
	}
	if max <= 0 {
		max = DefaultKeyBullets
	}
	seen := make(map[string]bool)
	add := func(items []doctree.BulletItem) {
		for _, it := range items {
			if len(out) >= max {
				return
			}
			key := strings.ToLower(strings.TrimSpace(it.Text))
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, it.Text)
		}
	}
	for _, cat := range []vocab.Category{vocab.Requirements, vocab.Responsibilities} {
		for _, s := range doc.Sections {
			if s.Title != "" && v.Category(s.Title) == cat {
				add(s.Bullets())
			}
		}
	}
	for _, s := range doc.Sections {
		add(s.Bullets())
	}
	return out
}

// Standardize rewrites every recognized list marker in text to the canonical
// glyph, keeping indentation, and leaves all other lines trimmed as they are.
func Standardize(text string, v *vocab.Vocabulary) string {
	if v == nil {
		v = vocab.Default()
	}
	glyph := v.CanonicalGlyph()
	indent := strings.Repeat(" ", v.IndentWidth())
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := parser.NormalizeMarker(line, v)
		if m.Kind == parser.MarkerNone {
			lines[i] = strings.TrimSpace(line)
			continue
		}
		lines[i] = strings.Repeat(indent, m.Level) + glyph + " " + m.Text
	}
	return strings.Join(lines, "\n")
}
