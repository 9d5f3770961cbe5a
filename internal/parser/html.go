package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/jobfmt/internal/doctree"
	"github.com/dgallion1/jobfmt/internal/vocab"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// HTMLParser handles HTML files. Structure comes from tags; pages without
// any extractable block fall back to the plain-text path.
type HTMLParser struct {
	Vocab *vocab.Vocabulary
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return Build(HTMLSource{Root: root}, p.Vocab), nil
}

// ExtractHTML walks the block-level elements of root in document order.
// Heading tags open sections, lists become bullet lists and paragraph-like
// elements become paragraphs. ok is false when nothing was found.
func ExtractHTML(root *html.Node) (doc *doctree.Document, ok bool) {
	if root == nil {
		return nil, false
	}
	e := &htmlExtractor{b: doctree.NewBuilder()}
	start := findBody(root)
	if start == nil {
		start = root
	}
	e.walk(start)
	e.flushInline()

	doc = e.b.Document()
	if doc.Empty() {
		return nil, false
	}
	return doc, true
}

type htmlExtractor struct {
	b      *doctree.Builder
	inline strings.Builder
}

func (e *htmlExtractor) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		e.inline.WriteString(sourceBreaks.Replace(n.Data))
		return
	case html.DocumentNode:
		e.walkChildren(n)
		return
	case html.ElementNode:
	default:
		return
	}
	if shouldSkip(n) {
		return
	}

	tag := n.Data
	if level := headingLevel(tag); level > 0 {
		e.flushInline()
		e.b.StartSection(textContent(n), level)
		return
	}

	switch tag {
	case "ul", "ol":
		e.flushInline()
		e.list(n, 0)
		e.b.EndList()
	case "hr":
		e.flushInline()
		e.b.AddDivider()
	case "br":
		e.inline.WriteString("\n")
	case "pre":
		e.flushInline()
		e.b.AddParagraph(collapseText(rawText(n)))
	case "summary", "caption", "legend":
		e.flushInline()
		e.b.AddHeading(textContent(n), 3)
	default:
		if isBlock(tag) {
			e.flushInline()
			e.walkChildren(n)
			e.flushInline()
			return
		}
		e.walkChildren(n)
	}
}

func (e *htmlExtractor) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c)
	}
}

func (e *htmlExtractor) flushInline() {
	text := collapseText(e.inline.String())
	e.inline.Reset()
	e.b.AddParagraph(text)
}

// list emits the items of a ul/ol. Nested lists go one level deeper; the
// ordered/unordered distinction is dropped.
func (e *htmlExtractor) list(n *html.Node, level int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || shouldSkip(c) {
			continue
		}
		switch c.Data {
		case "li":
			e.listItem(c, level)
		case "ul", "ol":
			e.list(c, level+1)
		}
	}
}

func (e *htmlExtractor) listItem(li *html.Node, level int) {
	var text strings.Builder
	var nested []*html.Node

	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				text.WriteString(c.Data)
			case html.ElementNode:
				if shouldSkip(c) {
					continue
				}
				switch c.Data {
				case "ul", "ol":
					nested = append(nested, c)
				case "br":
					text.WriteString(" ")
				default:
					if isBlock(c.Data) {
						text.WriteString(" ")
					}
					collect(c)
				}
			}
		}
	}
	collect(li)

	e.b.AddBullet(squash(text.String()), level)
	for _, nl := range nested {
		e.list(nl, level+1)
	}
}

// FlattenHTML renders the visible text of root with one line per block
// element. List items are prefixed with "- " and headings with "#" marks so
// the plain-text path can recover their structure.
func FlattenHTML(root *html.Node) string {
	if root == nil {
		return ""
	}
	var buf, line strings.Builder
	prefix := ""

	endLine := func() {
		t := collapseText(line.String())
		line.Reset()
		if t != "" {
			buf.WriteString(prefix + t + "\n")
		}
		prefix = ""
	}

	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		switch n.Type {
		case html.TextNode:
			line.WriteString(n.Data)
			return
		case html.ElementNode:
			if shouldSkip(n) {
				return
			}
		case html.DocumentNode:
		default:
			return
		}

		tag := n.Data
		if level := headingLevel(tag); level > 0 {
			endLine()
			if t := textContent(n); t != "" {
				buf.WriteString(strings.Repeat("#", level) + " " + t + "\n")
			}
			return
		}
		switch {
		case tag == "li":
			endLine()
			prefix = strings.Repeat("  ", depth) + "- "
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
					endLine()
					walk(c, depth+1)
					continue
				}
				walk(c, depth)
			}
			endLine()
		case tag == "br":
			endLine()
		case tag == "pre":
			endLine()
			if t := collapseText(rawText(n)); t != "" {
				buf.WriteString(t + "\n")
			}
		case isBlock(tag):
			endLine()
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, depth)
			}
			endLine()
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, depth)
			}
		}
	}

	start := findBody(root)
	if start == nil {
		start = root
	}
	walk(start, 0)
	endLine()
	return strings.TrimRight(buf.String(), "\n")
}

// sourceBreaks turns newlines in HTML source text into spaces; only <br>
// starts a new line.
var sourceBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// collapseText collapses whitespace within each line, drops blank lines and
// joins what is left with newlines. Only explicit breaks produce newlines;
// newlines inside text nodes are plain whitespace.
func collapseText(s string) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if f := strings.Fields(l); len(f) > 0 {
			lines = append(lines, strings.Join(f, " "))
		}
	}
	return norm.NFC.String(strings.Join(lines, "\n"))
}

// squash collapses all whitespace, newlines included, to single spaces.
func squash(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

var blockTags = map[string]bool{
	"address": true, "article": true, "blockquote": true, "body": true,
	"center": true, "dd": true, "details": true, "dialog": true, "dir": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "hgroup": true, "li": true, "main": true, "menu": true,
	"p": true, "pre": true, "section": true, "table": true, "tbody": true,
	"td": true, "tfoot": true, "th": true, "thead": true, "tr": true,
}

func isBlock(tag string) bool {
	return blockTags[tag]
}

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "iframe": true, "form": true, "button": true, "select": true,
	"nav": true, "footer": true, "header": true, "aside": true, "head": true,
}

// shouldSkip reports non-content elements: scripts and styles, navigation
// landmarks, hidden nodes and cookie or consent banners.
func shouldSkip(n *html.Node) bool {
	if skipTags[n.Data] {
		return true
	}
	for _, a := range n.Attr {
		val := strings.ToLower(a.Val)
		switch a.Key {
		case "role":
			if val == "navigation" || val == "banner" || val == "contentinfo" {
				return true
			}
		case "aria-hidden":
			if val == "true" {
				return true
			}
		case "hidden":
			return true
		case "id", "class":
			if strings.Contains(val, "cookie") || strings.Contains(val, "consent") {
				return true
			}
		}
	}
	return false
}

// rawText is the text under n with source newlines kept.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "br" {
				buf.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && shouldSkip(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return squash(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// findTitle returns the text of the page's <title> element.
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// PageTitle returns the page's <title> text, or "".
func PageTitle(root *html.Node) string {
	if root == nil {
		return ""
	}
	return findTitle(root)
}
