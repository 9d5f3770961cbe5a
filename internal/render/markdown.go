package render

import (
	"strings"

	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/parser"
	"github.com/dgallion1/jobfmt/internal/vocab"
)

// Markdown renders doc losslessly. Section titles become "## " headings,
// bullets use the canonical glyph indented by the vocabulary's indent width
// per level, and blocks are separated by blank lines. In-section headings are
// written as plain paragraphs. Any line the plain-text classifier would read
// differently is escaped with a backslash, so the output parses back through
// the plain-text path to the same sections and bullets.
func Markdown(doc *doctree.Document, v *vocab.Vocabulary) string {
	if doc.Empty() {
		return ""
	}
	if v == nil {
		v = vocab.Default()
	}
	glyph := v.CanonicalGlyph()
	indent := strings.Repeat(" ", v.IndentWidth())
	c := parser.NewClassifier(v)

	var parts []string
	for _, s := range doc.Sections {
		if s.Title != "" {
			parts = append(parts, markdownTitle(c, s.Title))
		}
		for _, b := range s.Blocks {
			switch b.Kind {
			case doctree.KindParagraph, doctree.KindHeading:
				parts = append(parts, markdownParagraph(c, b.Text))
			case doctree.KindDivider:
				parts = append(parts, "---")
			case doctree.KindBulletList:
				lines := make([]string, len(b.Items))
				for i, it := range b.Items {
					lines[i] = markdownBullet(c, strings.Repeat(indent, it.Level)+glyph+" ", it.Text)
				}
				parts = append(parts, strings.Join(lines, "\n"))
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func markdownTitle(c *parser.Classifier, title string) string {
	line := "## " + title
	if l := c.Classify(line); l.Kind == parser.LineHeading && l.Text == title {
		return line
	}
	// A closing sequence keeps a trailing " #" inside the title.
	return line + " ##"
}

func markdownParagraph(c *parser.Classifier, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if l := c.Classify(line); l.Kind != parser.LineParagraph || l.Text != line {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

func markdownBullet(c *parser.Classifier, prefix, text string) string {
	if l := c.Classify(prefix + text); l.Kind == parser.LineBullet && l.Text == text {
		return prefix + text
	}
	return prefix + `\` + text
}
