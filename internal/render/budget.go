package render

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/jobfmt/internal/chunker"
)

// piece is one line-level unit of rich text. Splittable pieces may be cut at
// a sentence boundary; the others are all-or-nothing unless nothing has been
// written yet.
type piece struct {
	text       string
	splittable bool
}

// group is a run of pieces that renders as one block of rich text. A title,
// when present, is written only together with the first piece.
type group struct {
	title  string
	pieces []piece
}

// budget accumulates rich text up to max runes.
type budget struct {
	buf  strings.Builder
	used int
	max  int
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func (b *budget) fits(s string) bool {
	return b.used+runeLen(s) <= b.max
}

func (b *budget) write(s string) {
	b.buf.WriteString(s)
	b.used += runeLen(s)
}

func (b *budget) String() string {
	return b.buf.String()
}

// addGroup writes g piece by piece and reports whether all of it fit.
// Writing stops at the first piece that does not fit, after trying to keep
// the longest sentence prefix of a splittable piece. A piece that would be
// the first thing written is cut at a word boundary instead of dropped.
func (b *budget) addGroup(g group) bool {
	for i, p := range g.pieces {
		var prefix string
		switch {
		case i > 0:
			prefix = "\n"
		case b.used > 0:
			prefix = "\n\n"
		}
		if i == 0 && g.title != "" {
			prefix += g.title + ":\n"
		}

		if b.fits(prefix + p.text) {
			b.write(prefix + p.text)
			continue
		}
		if !p.splittable && b.used > 0 {
			return false
		}
		room := b.max - b.used - runeLen(prefix)
		var cut string
		if p.splittable {
			cut = cutSentences(p.text, room)
		}
		if cut == "" && b.used == 0 {
			cut = cutWords(p.text, room)
		}
		if cut != "" {
			b.write(prefix + cut)
		}
		return false
	}
	return true
}

// cutSentences returns the longest prefix of s that ends on a sentence
// boundary and has at most max runes.
func cutSentences(s string, max int) string {
	best := ""
	for _, end := range chunker.SentenceEnds(s) {
		prefix := strings.TrimSpace(s[:end])
		if runeLen(prefix) > max {
			break
		}
		best = prefix
	}
	return best
}

// cutWords returns the longest prefix of s that ends on a word boundary and
// has at most max runes. A first word longer than max is cut by runes.
func cutWords(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	if runeLen(s) <= max {
		return s
	}
	runes := []rune(s)
	head := runes[:max]
	// The cut lands on a boundary when the next rune is a space.
	if unicode.IsSpace(runes[max]) {
		return strings.TrimRightFunc(string(head), unicode.IsSpace)
	}
	for i := len(head) - 1; i > 0; i-- {
		if unicode.IsSpace(head[i]) {
			return strings.TrimRightFunc(string(head[:i]), unicode.IsSpace)
		}
	}
	return string(head)
}
