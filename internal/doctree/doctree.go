package doctree

// BlockKind tags the variant held by a Block.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindBulletList
	KindHeading
	KindDivider
)

func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindBulletList:
		return "bulleted_list"
	case KindHeading:
		return "heading"
	case KindDivider:
		return "divider"
	}
	return "unknown"
}

// BulletItem is one entry of a BulletList. Level 0 is the outermost list.
type BulletItem struct {
	Text  string
	Level int
}

// Block is one structural content unit.
//
// Paragraph and Heading use Text (Heading also uses Level); BulletList uses
// Items; Divider carries nothing.
type Block struct {
	Kind  BlockKind
	Text  string
	Level int
	Items []BulletItem
}

// Section is a titled run of blocks. The preamble section has an empty Title.
type Section struct {
	Title  string
	Level  int // Heading level of the title, 0 for the preamble.
	Blocks []Block
}

// Bullets returns every bullet item in the section, in order.
func (s Section) Bullets() []BulletItem {
	var out []BulletItem
	for _, b := range s.Blocks {
		if b.Kind == KindBulletList {
			out = append(out, b.Items...)
		}
	}
	return out
}

// Paragraphs returns the text of every paragraph block in the section.
func (s Section) Paragraphs() []string {
	var out []string
	for _, b := range s.Blocks {
		if b.Kind == KindParagraph {
			out = append(out, b.Text)
		}
	}
	return out
}

// Document is the ordered, read-only result of parsing one source.
// Build it with a Builder; renderers must not modify it.
type Document struct {
	Sections []Section
}

// Empty reports whether the document holds no sections.
func (d *Document) Empty() bool {
	return d == nil || len(d.Sections) == 0
}

// Titles returns the section titles in order, "" for the preamble.
func (d *Document) Titles() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = s.Title
	}
	return out
}

// BulletCount counts bullet items across all sections.
func (d *Document) BulletCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, s := range d.Sections {
		for _, b := range s.Blocks {
			n += len(b.Items)
		}
	}
	return n
}
