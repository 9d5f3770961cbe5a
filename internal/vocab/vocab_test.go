package vocab

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestVocabulary_Lookup(t *testing.T) {
	v := Default()
	tests := []struct {
		title string
		want  Category
		ok    bool
	}{
		{"Responsibilities", Responsibilities, true},
		{"KEY RESPONSIBILITIES", Responsibilities, true},
		{"What You’ll Do", Responsibilities, true},
		{"Requirements", Requirements, true},
		{"Minimum Qualifications", Requirements, true},
		{"Nice to Have", Requirements, true},
		{"Benefits & Perks", Benefits, true},
		{"What We Offer", Benefits, true},
		{"About the Company", Other, true},
		{"Our Stack", Other, false},
		{"Experience the best culture in the whole city", Other, false},
		{"", Other, false},
	}
	for _, tt := range tests {
		got, ok := v.Lookup(tt.title)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%q): expected (%s, %v), got (%s, %v)", tt.title, tt.want, tt.ok, got, ok)
		}
	}
}

func TestVocabulary_IsExactKeyword(t *testing.T) {
	v := Default()
	if !v.IsExactKeyword("benefits") {
		t.Error("expected benefits to be an exact keyword")
	}
	if v.IsExactKeyword("Great Benefits") {
		t.Error("expected partial phrase not to be exact")
	}
}

func TestVocabulary_MarkerPatterns(t *testing.T) {
	v := Default()
	if n := v.MatchNumbered("12. Python"); n != 4 {
		t.Errorf("expected numbered marker length 4, got %d", n)
	}
	if n := v.MatchNumbered("3) Go"); n != 3 {
		t.Errorf("expected numbered marker length 3, got %d", n)
	}
	if n := v.MatchNumbered("1.5 years"); n != 0 {
		t.Errorf("expected no match for decimal, got %d", n)
	}
	if n := v.MatchLettered("b) Docker"); n != 3 {
		t.Errorf("expected lettered marker length 3, got %d", n)
	}
	if n := v.MatchLettered("e.g. things"); n != 0 {
		t.Errorf("expected no match for abbreviation, got %d", n)
	}
}

func TestVocabulary_GlyphsLongestFirst(t *testing.T) {
	v, err := New(Config{Glyphs: []string{"-", "->"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := v.Glyphs()
	if g[0] != "->" {
		t.Errorf("expected %q first, got %v", "->", g)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(Config{Numbered: "(["})
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
}

func TestNew_UnknownCategory(t *testing.T) {
	_, err := New(Config{Sections: []SectionRule{{Category: "salary", Keywords: []string{"pay"}}}})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestNew_DefaultsFillZeroFields(t *testing.T) {
	v, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.CanonicalGlyph() != "•" {
		t.Errorf("expected canonical glyph %q, got %q", "•", v.CanonicalGlyph())
	}
	if v.IndentWidth() != 2 {
		t.Errorf("expected indent width 2, got %d", v.IndentWidth())
	}
}

func TestLoad_OverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	data := `glyphs: ["+", "~"]
indentWidth: 4
sections:
  - category: benefits
    keywords: ["goodies"]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	v, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IndentWidth() != 4 {
		t.Errorf("expected indent width 4, got %d", v.IndentWidth())
	}
	if len(v.Glyphs()) != 2 {
		t.Errorf("expected 2 glyphs, got %v", v.Glyphs())
	}
	if c := v.Category("Goodies"); c != Benefits {
		t.Errorf("expected benefits, got %s", c)
	}
	if _, ok := v.Lookup("Responsibilities"); ok {
		t.Error("expected replaced sections to drop default keywords")
	}
	if v.MatchNumbered("1. x") == 0 {
		t.Error("expected default numbered pattern to survive")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVocabulary_MatchGlyph(t *testing.T) {
	v := Default()
	tests := []struct {
		in   string
		want int
	}{
		{"- Build", 2},
		{"-Build", 0},
		{"**bold**", 0},
		{"•Collaborate", 3},
		{"→  On call", 5},
		{"-", 0},
		{"Plain", 0},
	}
	for _, tt := range tests {
		if got := v.MatchGlyph(tt.in); got != tt.want {
			t.Errorf("MatchGlyph(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}
