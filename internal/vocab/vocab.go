// Package vocab holds the configurable marker and section-keyword vocabulary.
// The same Vocabulary is consulted by the line classifier (heading detection)
// and by the rich-text renderer (section priority).
package vocab

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	yaml "gopkg.in/yaml.v3"
)

// Sentinel errors for vocabulary configuration.
var (
	ErrInvalidPattern  = errors.New("invalid marker pattern")
	ErrUnknownCategory = errors.New("unknown section category")
	ErrEmptyGlyph      = errors.New("bullet glyph cannot be empty")
)

// Category is the priority class of a section title.
type Category string

const (
	Responsibilities Category = "responsibilities"
	Requirements     Category = "requirements"
	Benefits         Category = "benefits"
	Other            Category = "other"
)

// Priority returns the categories the rich-text renderer emits first, in order.
func Priority() []Category {
	return []Category{Responsibilities, Requirements, Benefits}
}

func (c Category) valid() bool {
	switch c {
	case Responsibilities, Requirements, Benefits, Other:
		return true
	}
	return false
}

// Config is the overridable, serializable form of a Vocabulary.
type Config struct {
	Glyphs         []string      `yaml:"glyphs"`
	CanonicalGlyph string        `yaml:"canonicalGlyph"`
	Numbered       string        `yaml:"numbered"`
	Lettered       string        `yaml:"lettered"`
	IndentWidth    int           `yaml:"indentWidth"`
	Sections       []SectionRule `yaml:"sections"`
}

// SectionRule maps keyword phrases to a category.
type SectionRule struct {
	Category Category `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// DefaultConfig returns the built-in vocabulary.
func DefaultConfig() Config {
	return Config{
		Glyphs:         []string{"-", "*", "•", "▪", "◦", "→", "‣", "●"},
		CanonicalGlyph: "•",
		Numbered:       `\d+[.)]`,
		Lettered:       `[a-zA-Z][.)]`,
		IndentWidth:    2,
		Sections: []SectionRule{
			{Category: Responsibilities, Keywords: []string{
				"responsibilities", "duties", "what you'll do", "what you will do",
			}},
			{Category: Requirements, Keywords: []string{
				"requirements", "qualifications", "skills", "experience",
				"what we're looking for", "must have", "nice to have", "preferred",
			}},
			{Category: Benefits, Keywords: []string{
				"benefits", "perks", "what we offer", "compensation",
			}},
			{Category: Other, Keywords: []string{
				"about", "overview", "description", "notes",
			}},
		},
	}
}

type keyword struct {
	words    []string
	category Category
}

// Vocabulary is a compiled, read-only Config. It is safe for concurrent use.
type Vocabulary struct {
	glyphs      []string
	canonical   string
	numbered    *regexp.Regexp
	lettered    *regexp.Regexp
	indentWidth int
	keywords    []keyword
}

var defaultVocabulary = mustNew(DefaultConfig())

// Default returns the shared built-in Vocabulary.
func Default() *Vocabulary {
	return defaultVocabulary
}

func mustNew(cfg Config) *Vocabulary {
	v, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return v
}

// New compiles cfg. Zero-valued fields fall back to DefaultConfig.
func New(cfg Config) (*Vocabulary, error) {
	def := DefaultConfig()
	if len(cfg.Glyphs) == 0 {
		cfg.Glyphs = def.Glyphs
	}
	if cfg.CanonicalGlyph == "" {
		cfg.CanonicalGlyph = def.CanonicalGlyph
	}
	if cfg.Numbered == "" {
		cfg.Numbered = def.Numbered
	}
	if cfg.Lettered == "" {
		cfg.Lettered = def.Lettered
	}
	if cfg.IndentWidth <= 0 {
		cfg.IndentWidth = def.IndentWidth
	}
	if len(cfg.Sections) == 0 {
		cfg.Sections = def.Sections
	}

	v := &Vocabulary{
		canonical:   cfg.CanonicalGlyph,
		indentWidth: cfg.IndentWidth,
	}
	for _, g := range cfg.Glyphs {
		g = strings.TrimSpace(g)
		if g == "" {
			return nil, ErrEmptyGlyph
		}
		v.glyphs = append(v.glyphs, g)
	}
	// Longest glyph first so multi-rune glyphs win over their prefixes.
	sort.SliceStable(v.glyphs, func(i, j int) bool { return len(v.glyphs[i]) > len(v.glyphs[j]) })

	var err error
	if v.numbered, err = compileMarker(cfg.Numbered); err != nil {
		return nil, err
	}
	if v.lettered, err = compileMarker(cfg.Lettered); err != nil {
		return nil, err
	}

	for _, rule := range cfg.Sections {
		if !rule.Category.valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, rule.Category)
		}
		for _, kw := range rule.Keywords {
			words := titleWords(kw)
			if len(words) == 0 {
				continue
			}
			v.keywords = append(v.keywords, keyword{words: words, category: rule.Category})
		}
	}
	return v, nil
}

// Load reads a YAML vocabulary file. Keys absent from the file keep their defaults.
func Load(path string) (*Vocabulary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse vocabulary yaml: %w", err)
	}
	return New(cfg)
}

func compileMarker(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)\s+`)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// Glyphs returns the recognized bullet glyphs, longest first.
func (v *Vocabulary) Glyphs() []string {
	out := make([]string, len(v.glyphs))
	copy(out, v.glyphs)
	return out
}

// CanonicalGlyph is the glyph every recognized bullet style renders as.
func (v *Vocabulary) CanonicalGlyph() string { return v.canonical }

// IndentWidth is the number of leading spaces per nesting level.
func (v *Vocabulary) IndentWidth() int { return v.indentWidth }

// MatchGlyph reports the byte length of a bullet glyph plus the whitespace
// after it at the start of s, or 0. ASCII glyphs must be followed by
// whitespace; other glyphs may abut the text.
func (v *Vocabulary) MatchGlyph(s string) int {
	for _, g := range v.glyphs {
		if !strings.HasPrefix(s, g) {
			continue
		}
		rest := s[len(g):]
		trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if len(trimmed) == len(rest) && isASCII(g) {
			continue
		}
		return len(s) - len(trimmed)
	}
	return 0
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// MatchNumbered reports the byte length of a numbered marker (including
// trailing whitespace) at the start of s, or 0.
func (v *Vocabulary) MatchNumbered(s string) int {
	return matchLen(v.numbered, s)
}

// MatchLettered is MatchNumbered for lettered markers.
func (v *Vocabulary) MatchLettered(s string) int {
	return matchLen(v.lettered, s)
}

func matchLen(re *regexp.Regexp, s string) int {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return 0
	}
	return loc[1]
}

// Lookup maps a section title to its category. ok is false when the title
// matches no keyword, in which case the category is Other.
//
// A title matches when its words equal a keyword phrase, or when the phrase
// ends a short title ("Key Responsibilities") or starts one ("About the Role").
// Exact matches win over partial ones.
func (v *Vocabulary) Lookup(title string) (Category, bool) {
	words := titleWords(title)
	if len(words) == 0 {
		return Other, false
	}
	for _, kw := range v.keywords {
		if equalWords(words, kw.words) {
			return kw.category, true
		}
	}
	for _, kw := range v.keywords {
		n := len(kw.words)
		if len(words) <= n {
			continue
		}
		if len(words) <= n+2 && equalWords(words[len(words)-n:], kw.words) {
			return kw.category, true
		}
		if len(words) <= n+3 && equalWords(words[:n], kw.words) {
			return kw.category, true
		}
	}
	return Other, false
}

// Category is Lookup without the match flag.
func (v *Vocabulary) Category(title string) Category {
	c, _ := v.Lookup(title)
	return c
}

// IsExactKeyword reports whether title is exactly one of the keyword phrases.
func (v *Vocabulary) IsExactKeyword(title string) bool {
	words := titleWords(title)
	for _, kw := range v.keywords {
		if equalWords(words, kw.words) {
			return true
		}
	}
	return false
}

func titleWords(s string) []string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '+'
	})
}

func equalWords(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
