package render

import "github.com/dgallion1/jobfmt/internal/doctree"

// Node types emitted by Blocks.
const (
	NodeHeading      = "heading"
	NodeParagraph    = "paragraph"
	NodeBulletedList = "bulleted_list"
	NodeDivider      = "divider"
)

// Node is one rendered block.
type Node struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Level int    `json:"level,omitempty"`
	Items []Item `json:"items,omitempty"`
}

// Item is one entry of a bulleted_list node.
type Item struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Blocks renders every block of doc in order. Each titled section opens with
// a heading node and a divider separates consecutive sections. Nothing is
// truncated.
func Blocks(doc *doctree.Document) []Node {
	nodes := []Node{}
	if doc.Empty() {
		return nodes
	}
	for i, s := range doc.Sections {
		if i > 0 {
			nodes = append(nodes, Node{Type: NodeDivider})
		}
		if s.Title != "" {
			nodes = append(nodes, Node{Type: NodeHeading, Text: s.Title, Level: clampHeading(s.Level)})
		}
		for _, b := range s.Blocks {
			switch b.Kind {
			case doctree.KindParagraph:
				nodes = append(nodes, Node{Type: NodeParagraph, Text: b.Text})
			case doctree.KindHeading:
				nodes = append(nodes, Node{Type: NodeHeading, Text: b.Text, Level: clampHeading(b.Level)})
			case doctree.KindDivider:
				nodes = append(nodes, Node{Type: NodeDivider})
			case doctree.KindBulletList:
				items := make([]Item, len(b.Items))
				for j, it := range b.Items {
					items[j] = Item{Text: it.Text, Level: it.Level}
				}
				nodes = append(nodes, Node{Type: NodeBulletedList, Items: items})
			}
		}
	}
	return nodes
}

// clampHeading maps any heading level onto the three the store supports.
func clampHeading(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 3:
		return 3
	}
	return level
}
