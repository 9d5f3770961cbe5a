package notion

import (
	"fmt"

	"github.com/dgallion1/jobfmt/internal/chunker"
	"github.com/dgallion1/jobfmt/internal/extract"
	"github.com/dgallion1/jobfmt/internal/render"
)

// MaxTextRunes is the store's limit for one rich_text segment.
const MaxTextRunes = 2000

// maxDescriptionParts counts "Job Description Part 2" through "Part 5".
const maxDescriptionParts = 4

// DefaultStatus is the Status given to new rows.
const DefaultStatus = "Researching"

// Block is one block object in the store's JSON shape.
type Block map[string]any

// RichText splits text into segments the store accepts.
func RichText(text string) []map[string]any {
	segments := []map[string]any{}
	for _, part := range chunker.Split(text, chunker.Config{MaxRunes: MaxTextRunes}) {
		segments = append(segments, map[string]any{
			"type": "text",
			"text": map[string]string{"content": part},
		})
	}
	return segments
}

func textBlock(kind, text string) Block {
	return Block{
		"object": "block",
		"type":   kind,
		kind:     map[string]any{"rich_text": RichText(text)},
	}
}

func dividerBlock() Block {
	return Block{"object": "block", "type": "divider", "divider": map[string]any{}}
}

// PageBlocks converts rendered nodes into page body blocks. A non-empty
// summary is placed first under its own heading, followed by a divider.
// Nested bullets become children of the preceding shallower bullet.
func PageBlocks(nodes []render.Node, summary string) []Block {
	blocks := []Block{}
	if summary != "" {
		blocks = append(blocks, textBlock("heading_2", "Summary"), textBlock("paragraph", summary), dividerBlock())
	}
	for _, n := range nodes {
		switch n.Type {
		case render.NodeHeading:
			blocks = append(blocks, textBlock(fmt.Sprintf("heading_%d", n.Level), n.Text))
		case render.NodeParagraph:
			blocks = append(blocks, textBlock("paragraph", n.Text))
		case render.NodeDivider:
			blocks = append(blocks, dividerBlock())
		case render.NodeBulletedList:
			blocks = append(blocks, bulletBlocks(n.Items)...)
		}
	}
	return blocks
}

// maxBulletDepth is the deepest children level the API accepts in one
// create request.
const maxBulletDepth = 2

// bulletBlocks nests items by level. Item levels never jump by more than
// one, so a parent always exists for each nested item. Items deeper than
// maxBulletDepth become siblings under the deepest allowed parent.
func bulletBlocks(items []render.Item) []Block {
	var top []Block
	var stack []Block // stack[l] is the latest item at level l
	for _, it := range items {
		b := textBlock("bulleted_list_item", it.Text)
		level := min(it.Level, len(stack), maxBulletDepth)
		stack = append(stack[:level], b)
		if level == 0 {
			top = append(top, b)
			continue
		}
		parent := stack[level-1]["bulleted_list_item"].(map[string]any)
		children, _ := parent["children"].([]Block)
		parent["children"] = append(children, b)
	}
	return top
}

// PageInput is everything needed to create a job row.
type PageInput struct {
	JobURL   string
	Fields   extract.Fields
	Summary  string
	RichText string
	Markdown string
}

// Properties builds the row properties. Optional properties are set only
// when available lists them; nil available means every property exists.
func Properties(in PageInput, available map[string]bool) map[string]any {
	has := func(name string) bool {
		return available == nil || available[name]
	}

	position := in.Fields.Position
	if position == "" {
		position = "Unknown"
	}
	commitment := []string{"Full time"}
	if in.Fields.Commitment != "" {
		commitment = extract.CleanList([]string{in.Fields.Commitment})
	}

	props := map[string]any{
		PropPosition:    map[string]any{"title": RichText(position)},
		PropDescription: map[string]any{"rich_text": RichText(in.RichText)},
	}
	if has(PropStatus) {
		props[PropStatus] = map[string]any{"select": map[string]string{"name": DefaultStatus}}
	}
	if has(PropJobURL) && in.JobURL != "" {
		props[PropJobURL] = map[string]any{"url": in.JobURL}
	}
	if has(PropCompany) {
		props[PropCompany] = map[string]any{"rich_text": RichText(in.Fields.Company)}
	}
	if has(PropSalary) {
		props[PropSalary] = map[string]any{"rich_text": RichText(in.Fields.Salary)}
	}
	if has(PropCommitment) {
		props[PropCommitment] = multiSelect(commitment)
	}
	if has(PropIndustry) {
		props[PropIndustry] = multiSelect(in.Fields.Industry)
	}
	if has(PropLocation) {
		props[PropLocation] = multiSelect(in.Fields.Location)
	}
	if has(PropProcessed) {
		props[PropProcessed] = map[string]any{"checkbox": true}
	}
	if has(PropSummary) && in.Summary != "" {
		props[PropSummary] = map[string]any{"rich_text": RichText(in.Summary)}
	}

	// The full markdown overflows into the numbered description parts.
	parts := chunker.Split(in.Markdown, chunker.Config{MaxRunes: MaxTextRunes, MaxParts: maxDescriptionParts})
	for i, part := range parts {
		name := fmt.Sprintf("%s Part %d", PropDescription, i+2)
		if !has(name) {
			break
		}
		props[name] = map[string]any{"rich_text": RichText(part)}
	}
	return props
}

func multiSelect(names []string) map[string]any {
	opts := []map[string]string{}
	for _, n := range names {
		opts = append(opts, map[string]string{"name": n})
	}
	return map[string]any{"multi_select": opts}
}
