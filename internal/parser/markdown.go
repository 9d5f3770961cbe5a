package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/vocab"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct {
	Vocab *vocab.Vocabulary
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseMarkdown(src, p.Vocab), nil
}

// ParseMarkdown builds a Document from the goldmark AST. Top-level headings
// open sections and markdown lists become bullet lists. Paragraph lines go
// through the plain-text classifier, so glyph bullets and keyword headings
// written as plain paragraphs are still recognized.
func ParseMarkdown(src []byte, v *vocab.Vocabulary) *doctree.Document {
	src = []byte(normalizeText(string(src)))
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	b := doctree.NewBuilder()
	w := &mdWalker{src: src, b: b, seg: newSegmenter(v, b)}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, false)
	}
	w.seg.flush()
	return b.Document()
}

type mdWalker struct {
	src []byte
	b   *doctree.Builder
	seg *segmenter
}

func (w *mdWalker) block(n ast.Node, quoted bool) {
	switch node := n.(type) {
	case *ast.Heading:
		w.seg.flush()
		title := inlineText(node, w.src)
		if quoted {
			w.b.AddHeading(title, node.Level)
		} else {
			w.b.StartSection(title, node.Level)
		}
	case *ast.List:
		w.seg.flush()
		w.list(node, 0)
		w.b.EndList()
	case *ast.ThematicBreak:
		w.seg.flush()
		w.b.AddDivider()
	case *ast.Blockquote:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, true)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		w.seg.flush()
		w.b.AddParagraph(collapseText(linesText(n, w.src)))
	case *ast.HTMLBlock:
		// Raw HTML carries no structure we keep.
	default:
		for _, line := range strings.Split(inlineText(n, w.src), "\n") {
			w.seg.feed(line)
		}
		w.seg.flushParagraph()
	}
}

func (w *mdWalker) list(l *ast.List, level int) {
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		var nested []*ast.List
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				nested = append(nested, sub)
				continue
			}
			parts = append(parts, inlineText(c, w.src))
		}
		w.b.AddBullet(strings.Join(strings.Fields(strings.Join(parts, " ")), " "), level)
		for _, sub := range nested {
			w.list(sub, level+1)
		}
	}
}

// inlineText gets the text content of a goldmark node's inline children.
// Soft and hard line breaks become newlines; emphasis and links keep only
// their text.
func inlineText(n ast.Node, src []byte) string {
	var buf strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.AutoLink:
				buf.Write(t.Label(src))
			case *ast.RawHTML:
			default:
				walk(c)
			}
		}
	}
	walk(n)
	if buf.Len() == 0 && n.Type() == ast.TypeBlock {
		return strings.TrimSpace(linesText(n, src))
	}
	return strings.TrimSpace(buf.String())
}

// linesText joins the raw source lines of a block node.
func linesText(n ast.Node, src []byte) string {
	var buf strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return buf.String()
}
