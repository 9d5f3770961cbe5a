// Package formatter is the entry point of the structuring engine: it builds
// one Document from a posting and renders every output format from it.
package formatter

import (
	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/parser"
	"github.com/dgallion1/jobfmt/internal/render"
	"github.com/dgallion1/jobfmt/internal/vocab"
	"golang.org/x/net/html"
)

// Input is one posting to format. HTML, when set, is preferred over Content
// if it yields any structure.
type Input struct {
	Content string
	HTML    *html.Node
	Summary string
}

// Source resolves the input to the single source the Document is built from.
func (in Input) Source() parser.Source {
	if in.HTML != nil {
		return parser.HTMLSource{Root: in.HTML, Text: in.Content}
	}
	return parser.TextSource{Text: in.Content}
}

// Output holds every rendering of one Document. No field is ever null.
type Output struct {
	RichText string             `json:"rich_text"`
	Blocks   []render.Node      `json:"blocks"`
	Markdown string             `json:"markdown"`
	Bullets  []string           `json:"bullets"`
	Sections *render.SectionMap `json:"sections"`
}

// Formatter renders postings with a fixed vocabulary. It holds no mutable
// state and is safe for concurrent use.
type Formatter struct {
	vocab      *vocab.Vocabulary
	maxBullets int
}

// New returns a Formatter. A nil vocabulary means the defaults; maxBullets
// <= 0 leaves the bullet list uncapped.
func New(v *vocab.Vocabulary, maxBullets int) *Formatter {
	if v == nil {
		v = vocab.Default()
	}
	return &Formatter{vocab: v, maxBullets: maxBullets}
}

// Vocabulary returns the vocabulary the Formatter was built with.
func (f *Formatter) Vocabulary() *vocab.Vocabulary {
	return f.vocab
}

// Format builds the Document for in and renders it.
func (f *Formatter) Format(in Input) Output {
	return f.Render(f.Document(in), in.Summary)
}

// Document builds the Document for in without rendering it.
func (f *Formatter) Document(in Input) *doctree.Document {
	return parser.Build(in.Source(), f.vocab)
}

// Render produces every output format for an already built Document.
func (f *Formatter) Render(doc *doctree.Document, summary string) Output {
	return Output{
		RichText: render.RichText(doc, summary, f.vocab),
		Blocks:   render.Blocks(doc),
		Markdown: render.Markdown(doc, f.vocab),
		Bullets:  render.Bullets(doc, f.maxBullets),
		Sections: render.Sections(doc),
	}
}

// Format formats in with the default vocabulary.
func Format(in Input) Output {
	return New(nil, 0).Format(in)
}
