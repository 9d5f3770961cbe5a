package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Config controls chunking behavior.
type Config struct {
	MaxRunes int // Hard ceiling per part, in Unicode characters.
	MaxParts int // Parts beyond this are dropped; 0 keeps all.
}

// DefaultConfig matches the store's per-field text limit.
func DefaultConfig() Config {
	return Config{MaxRunes: 2000}
}

// Split breaks text into parts of at most cfg.MaxRunes runes. Paragraph
// boundaries are preferred, then sentence boundaries, then word boundaries.
// A single word longer than the limit is cut by runes.
func Split(text string, cfg Config) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if cfg.MaxRunes <= 0 || utf8.RuneCountInString(text) <= cfg.MaxRunes {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentRunes := 0

	emit := func() {
		if currentRunes > 0 {
			parts = append(parts, current.String())
			current.Reset()
			currentRunes = 0
		}
	}
	add := func(unit, sep string) {
		n := utf8.RuneCountInString(unit)
		s := utf8.RuneCountInString(sep)
		if currentRunes > 0 && currentRunes+s+n > cfg.MaxRunes {
			emit()
		}
		if currentRunes > 0 {
			current.WriteString(sep)
			currentRunes += s
		}
		current.WriteString(unit)
		currentRunes += n
	}

	for _, para := range splitByParagraphs(text) {
		if utf8.RuneCountInString(para) <= cfg.MaxRunes {
			add(para, "\n\n")
			continue
		}
		// Split the large paragraph by sentences, then words.
		sep := "\n\n"
		for _, sent := range SplitSentences(para) {
			if utf8.RuneCountInString(sent) <= cfg.MaxRunes {
				add(sent, sep)
				sep = " "
				continue
			}
			for _, w := range splitWords(sent, cfg.MaxRunes) {
				add(w, sep)
				sep = " "
			}
		}
	}
	emit()

	if cfg.MaxParts > 0 && len(parts) > cfg.MaxParts {
		parts = parts[:cfg.MaxParts]
	}
	return parts
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// SentenceEnds returns the byte offsets just past each sentence terminator
// ('.', '!' or '?' followed by whitespace). The end of text is always the
// last offset for non-empty text.
func SentenceEnds(text string) []int {
	var ends []int
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next >= len(text) {
			break
		}
		if nr, _ := utf8.DecodeRuneInString(text[next:]); unicode.IsSpace(nr) {
			ends = append(ends, next)
		}
	}
	if strings.TrimSpace(text) != "" {
		ends = append(ends, len(text))
	}
	return ends
}

// SplitSentences does basic sentence splitting.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, end := range SentenceEnds(text) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}
	return sentences
}

// splitWords packs the words of s into units of at most max runes.
func splitWords(s string, max int) []string {
	var units []string
	var current strings.Builder
	currentRunes := 0
	for _, w := range strings.Fields(s) {
		for utf8.RuneCountInString(w) > max {
			if currentRunes > 0 {
				units = append(units, current.String())
				current.Reset()
				currentRunes = 0
			}
			r := []rune(w)
			units = append(units, string(r[:max]))
			w = string(r[max:])
		}
		if w == "" {
			continue
		}
		n := utf8.RuneCountInString(w)
		if currentRunes > 0 && currentRunes+1+n > max {
			units = append(units, current.String())
			current.Reset()
			currentRunes = 0
		}
		if currentRunes > 0 {
			current.WriteByte(' ')
			currentRunes++
		}
		current.WriteString(w)
		currentRunes += n
	}
	if currentRunes > 0 {
		units = append(units, current.String())
	}
	return units
}
