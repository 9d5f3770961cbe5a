package parser

import (
	"strings"
	"unicode"

	"github.com/dgallion1/jobfmt/internal/vocab"
)

// MarkerKind is the list style a line starts with.
type MarkerKind int

const (
	MarkerNone MarkerKind = iota
	MarkerBullet
	MarkerNumbered
	MarkerLettered
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerBullet:
		return "bullet"
	case MarkerNumbered:
		return "numbered"
	case MarkerLettered:
		return "lettered"
	}
	return "none"
}

// tabWidth is the number of spaces a tab expands to before indentation is measured.
const tabWidth = 4

// Marker is the result of normalizing a line's leading list marker.
type Marker struct {
	Kind  MarkerKind
	Level int    // Nesting level from leading indentation.
	Text  string // Line text with indentation and marker removed.
}

// NormalizeMarker detects a bullet, numbered or lettered marker at the start
// of line. Indentation finer than one vocabulary indent unit is ignored. A
// marker with nothing after it is not a marker.
func NormalizeMarker(line string, v *vocab.Vocabulary) Marker {
	if v == nil {
		v = vocab.Default()
	}
	expanded := strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
	body := strings.TrimLeft(expanded, " ")
	indent := len(expanded) - len(body)
	body = strings.TrimRightFunc(body, unicode.IsSpace)

	m := Marker{Level: indent / v.IndentWidth(), Text: strings.TrimSpace(body)}

	for _, try := range []struct {
		kind  MarkerKind
		match func(string) int
	}{
		{MarkerBullet, v.MatchGlyph},
		{MarkerNumbered, v.MatchNumbered},
		{MarkerLettered, v.MatchLettered},
	} {
		n := try.match(body)
		if n == 0 {
			continue
		}
		rest := strings.TrimSpace(body[n:])
		if rest == "" {
			break
		}
		m.Kind = try.kind
		m.Text = rest
		break
	}
	return m
}
