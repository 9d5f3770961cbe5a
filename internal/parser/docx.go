package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/vocab"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Heading styles open sections, numbered
// paragraphs become bullets and the rest goes through the line classifier.
type DOCXParser struct {
	Vocab *vocab.Vocabulary
}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReaderAt and a size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := doctree.NewBuilder()
	seg := newSegmenter(p.Vocab, b)

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := normalizeText(docxParagraphText(para))
		if strings.TrimSpace(text) == "" {
			seg.flushParagraph()
			continue
		}

		if level := docxHeadingLevel(para); level > 0 {
			seg.flush()
			b.StartSection(text, level)
			continue
		}
		if level, ok := docxListLevel(para); ok {
			seg.flushParagraph()
			b.AddBullet(text, level)
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			seg.feed(line)
		}
		seg.flushParagraph()
	}
	seg.flush()
	return b.Document(), nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	level, err := strconv.Atoi(strings.TrimPrefix(style, "heading"))
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

// docxListLevel reports the list nesting level of a numbered paragraph.
func docxListLevel(para *docx.Paragraph) (int, bool) {
	if para.Properties == nil || para.Properties.NumProperties == nil {
		return 0, false
	}
	np := para.Properties.NumProperties
	if np.NumID == nil || np.NumID.Val == "" || np.NumID.Val == "0" {
		return 0, false
	}
	level := 0
	if np.Ilvl != nil {
		if n, err := strconv.Atoi(np.Ilvl.Val); err == nil && n > 0 {
			level = n
		}
	}
	return level, true
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			switch t := rc.(type) {
			case *docx.Text:
				buf.WriteString(t.Text)
			case *docx.Tab:
				buf.WriteString(" ")
			case *docx.BarterRabbet:
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
