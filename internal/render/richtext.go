// Package render turns a Document into the output formats handed to the
// store: bounded rich text, block nodes, Markdown, flattened bullets and a
// section mapping. Every renderer is a pure function of its inputs.
package render

import (
	"math"
	"strings"

	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/vocab"
)

// RichTextLimit is the hard ceiling on rich text length, in Unicode characters.
const RichTextLimit = 2000

// maxPriorityBullets caps the bullets taken from each priority section.
const maxPriorityBullets = 5

const (
	ellipsis = "..."
	// omitted ends a rich text whose content did not all fit.
	omitted = "\n" + ellipsis
)

// RichText renders doc and summary within RichTextLimit characters.
//
// The summary comes first, then responsibilities, requirements and benefits
// sections (title plus up to five bullets, or their paragraphs), then every
// other section in document order. When the whole rendering does not fit,
// pieces are kept while they fit and "\n..." marks the omission.
func RichText(doc *doctree.Document, summary string, v *vocab.Vocabulary) string {
	return richText(doc, summary, v, RichTextLimit)
}

func richText(doc *doctree.Document, summary string, v *vocab.Vocabulary, limit int) string {
	if v == nil {
		v = vocab.Default()
	}
	summary = strings.TrimSpace(summary)
	groups := richTextGroups(doc, v)

	full := &budget{max: math.MaxInt}
	if summary != "" {
		full.write(summary)
	}
	for _, g := range groups {
		full.addGroup(g)
	}
	if full.used <= limit {
		return full.String()
	}

	room := limit - runeLen(omitted)
	if runeLen(summary) > room {
		// The summary alone leaves no room: cut it and stop.
		return cutWords(summary, limit-runeLen(ellipsis)) + ellipsis
	}

	b := &budget{max: room}
	if summary != "" {
		b.write(summary)
	}
	for _, g := range groups {
		if !b.addGroup(g) {
			break
		}
	}
	if b.used == 0 {
		return ellipsis
	}
	return b.String() + omitted
}

// richTextGroups orders the document content by priority category.
func richTextGroups(doc *doctree.Document, v *vocab.Vocabulary) []group {
	if doc.Empty() {
		return nil
	}
	glyph := v.CanonicalGlyph()
	var groups []group
	priority := make(map[int]bool)

	for _, cat := range vocab.Priority() {
		for i, s := range doc.Sections {
			if s.Title == "" || v.Category(s.Title) != cat {
				continue
			}
			priority[i] = true
			g := group{title: s.Title}
			if bullets := s.Bullets(); len(bullets) > 0 {
				if len(bullets) > maxPriorityBullets {
					bullets = bullets[:maxPriorityBullets]
				}
				for _, it := range bullets {
					g.pieces = append(g.pieces, piece{text: bulletLine(it, glyph)})
				}
			} else {
				for _, p := range s.Paragraphs() {
					g.pieces = append(g.pieces, piece{text: p, splittable: true})
				}
			}
			if len(g.pieces) > 0 {
				groups = append(groups, g)
			}
		}
	}

	for i, s := range doc.Sections {
		if priority[i] {
			continue
		}
		g := group{title: s.Title}
		for _, blk := range s.Blocks {
			switch blk.Kind {
			case doctree.KindParagraph:
				g.pieces = append(g.pieces, piece{text: blk.Text, splittable: true})
			case doctree.KindBulletList:
				for _, it := range blk.Items {
					g.pieces = append(g.pieces, piece{text: bulletLine(it, glyph)})
				}
			case doctree.KindHeading:
				g.pieces = append(g.pieces, piece{text: blk.Text})
			}
		}
		if len(g.pieces) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func bulletLine(it doctree.BulletItem, glyph string) string {
	return strings.Repeat("  ", it.Level) + glyph + " " + it.Text
}
