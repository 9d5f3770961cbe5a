package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/vocab"
	"golang.org/x/net/html"
)

// Parser converts raw document bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, v *vocab.Vocabulary) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{Vocab: v}, nil
	case ".md", ".markdown":
		return &MarkdownParser{Vocab: v}, nil
	case ".html", ".htm":
		return &HTMLParser{Vocab: v}, nil
	case ".pdf":
		return &PDFParser{Vocab: v, FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{Vocab: v}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Source is the single input a Document is built from. It is one of
// TextSource, HTMLSource or MarkdownSource.
type Source interface {
	isSource()
}

// TextSource is plain job-posting text.
type TextSource struct {
	Text string
}

// HTMLSource is a parsed page. Text, when set, is the page text used if the
// tree holds no structure; otherwise the tree is flattened.
type HTMLSource struct {
	Root *html.Node
	Text string
}

// MarkdownSource is Markdown text.
type MarkdownSource struct {
	Text string
}

func (TextSource) isSource()     {}
func (HTMLSource) isSource()     {}
func (MarkdownSource) isSource() {}

// Build resolves src into a Document. HTML structure is used when the tree
// yields any block; otherwise the text falls back to the plain-text path.
// A nil vocabulary means the default one.
func Build(src Source, v *vocab.Vocabulary) *doctree.Document {
	switch s := src.(type) {
	case HTMLSource:
		if doc, ok := ExtractHTML(s.Root); ok {
			return doc
		}
		text := s.Text
		if strings.TrimSpace(text) == "" {
			text = FlattenHTML(s.Root)
		}
		return SegmentText(text, v)
	case MarkdownSource:
		return ParseMarkdown([]byte(s.Text), v)
	case TextSource:
		return SegmentText(s.Text, v)
	}
	return &doctree.Document{}
}
