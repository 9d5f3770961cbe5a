package doctree

import "strings"

// Builder accumulates sections and blocks in source order and enforces the
// Document invariants when Document is called. It is not safe for concurrent
// use; each parse owns its own Builder.
type Builder struct {
	sections []Section
	openList bool // last block of the current section is a list still accepting items
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// StartSection opens a new section. Content added before the first call
// lands in an untitled preamble section.
func (b *Builder) StartSection(title string, level int) {
	b.openList = false
	b.sections = append(b.sections, Section{Title: title, Level: level})
}

func (b *Builder) current() *Section {
	if len(b.sections) == 0 {
		b.sections = append(b.sections, Section{})
	}
	return &b.sections[len(b.sections)-1]
}

// AddParagraph appends a paragraph block and closes any open list.
func (b *Builder) AddParagraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.openList = false
	s := b.current()
	s.Blocks = append(s.Blocks, Block{Kind: KindParagraph, Text: text})
}

// AddHeading appends an in-section heading block.
func (b *Builder) AddHeading(text string, level int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.openList = false
	s := b.current()
	s.Blocks = append(s.Blocks, Block{Kind: KindHeading, Text: text, Level: level})
}

// AddBullet appends an item to the open list, opening one if needed.
// Levels are clamped so the first item is 0 and no item is more than one
// level deeper than its predecessor.
func (b *Builder) AddBullet(text string, level int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s := b.current()
	if !b.openList {
		s.Blocks = append(s.Blocks, Block{Kind: KindBulletList})
		b.openList = true
	}
	list := &s.Blocks[len(s.Blocks)-1]
	if level < 0 {
		level = 0
	}
	if n := len(list.Items); n == 0 {
		level = 0
	} else if prev := list.Items[n-1].Level; level > prev+1 {
		level = prev + 1
	}
	list.Items = append(list.Items, BulletItem{Text: text, Level: level})
}

// EndList closes the open list so the next bullet starts a new one.
func (b *Builder) EndList() {
	b.openList = false
}

// AddDivider appends a divider. Dividers at the start of a section or
// directly after another divider are dropped.
func (b *Builder) AddDivider() {
	b.openList = false
	if len(b.sections) == 0 {
		return
	}
	s := b.current()
	if len(s.Blocks) == 0 || s.Blocks[len(s.Blocks)-1].Kind == KindDivider {
		return
	}
	s.Blocks = append(s.Blocks, Block{Kind: KindDivider})
}

// Document finalizes the build: titles are normalized, trailing dividers
// trimmed and sections left without blocks dropped. Duplicate titles are kept
// as distinct sections.
func (b *Builder) Document() *Document {
	doc := &Document{}
	for _, s := range b.sections {
		for len(s.Blocks) > 0 && s.Blocks[len(s.Blocks)-1].Kind == KindDivider {
			s.Blocks = s.Blocks[:len(s.Blocks)-1]
		}
		if len(s.Blocks) == 0 {
			continue
		}
		s.Title = NormalizeTitle(s.Title)
		doc.Sections = append(doc.Sections, s)
	}
	b.sections = nil
	b.openList = false
	return doc
}

// NormalizeTitle trims a section title, collapses inner whitespace and
// strips trailing colons. Case is preserved.
func NormalizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	for strings.HasSuffix(title, ":") {
		title = strings.TrimSpace(strings.TrimSuffix(title, ":"))
	}
	return title
}
