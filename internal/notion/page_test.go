package notion

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/jobfmt/internal/extract"
	"github.com/dgallion1/jobfmt/internal/render"
)

func blockText(b Block) string {
	kind := b["type"].(string)
	body, ok := b[kind].(map[string]any)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, seg := range body["rich_text"].([]map[string]any) {
		sb.WriteString(seg["text"].(map[string]string)["content"])
	}
	return sb.String()
}

func TestRichText_SplitsLongText(t *testing.T) {
	text := strings.Repeat("word ", 900)
	segs := RichText(text)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	for i, s := range segs {
		content := s["text"].(map[string]string)["content"]
		if n := len([]rune(content)); n > MaxTextRunes {
			t.Errorf("segment %d: expected at most %d characters, got %d", i, MaxTextRunes, n)
		}
	}
	if got := RichText(""); len(got) != 0 {
		t.Errorf("expected no segments for empty text, got %d", len(got))
	}
}

func TestPageBlocks_SummaryAndNodes(t *testing.T) {
	nodes := []render.Node{
		{Type: render.NodeHeading, Text: "Requirements", Level: 2},
		{Type: render.NodeBulletedList, Items: []render.Item{
			{Text: "Go", Level: 0},
			{Text: "Generics", Level: 1},
			{Text: "Iterators", Level: 2},
			{Text: "SQL", Level: 0},
		}},
		{Type: render.NodeDivider},
		{Type: render.NodeParagraph, Text: "Apply now"},
	}

	blocks := PageBlocks(nodes, "Backend role.")
	types := []string{}
	for _, b := range blocks {
		types = append(types, b["type"].(string))
	}
	want := "heading_2,paragraph,divider,heading_2,bulleted_list_item,bulleted_list_item,divider,paragraph"
	if strings.Join(types, ",") != want {
		t.Fatalf("expected %s, got %s", want, strings.Join(types, ","))
	}
	if blockText(blocks[1]) != "Backend role." {
		t.Errorf("expected summary paragraph, got %q", blockText(blocks[1]))
	}

	goItem := blocks[4]["bulleted_list_item"].(map[string]any)
	children := goItem["children"].([]Block)
	if len(children) != 1 || blockText(children[0]) != "Generics" {
		t.Fatalf("expected Generics nested under Go, got %v", children)
	}
	grand := children[0]["bulleted_list_item"].(map[string]any)["children"].([]Block)
	if len(grand) != 1 || blockText(grand[0]) != "Iterators" {
		t.Errorf("expected Iterators nested under Generics, got %v", grand)
	}
	if blockText(blocks[5]) != "SQL" {
		t.Errorf("expected SQL at top level, got %q", blockText(blocks[5]))
	}

	if _, err := json.Marshal(blocks); err != nil {
		t.Errorf("marshal blocks: %v", err)
	}
}

func TestPageBlocks_DeepListsFlattened(t *testing.T) {
	nodes := []render.Node{
		{Type: render.NodeBulletedList, Items: []render.Item{
			{Text: "Backend", Level: 0},
			{Text: "Go", Level: 1},
			{Text: "Concurrency", Level: 2},
			{Text: "Channels", Level: 3},
			{Text: "Select", Level: 4},
		}},
	}

	blocks := PageBlocks(nodes, "")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 top-level block, got %d", len(blocks))
	}
	level1 := blocks[0]["bulleted_list_item"].(map[string]any)["children"].([]Block)
	if len(level1) != 1 || blockText(level1[0]) != "Go" {
		t.Fatalf("expected Go under Backend, got %v", level1)
	}
	goItem := level1[0]["bulleted_list_item"].(map[string]any)
	level2 := goItem["children"].([]Block)
	var texts []string
	for _, b := range level2 {
		texts = append(texts, blockText(b))
		if _, nested := b["bulleted_list_item"].(map[string]any)["children"]; nested {
			t.Errorf("expected no children below depth 2, got some under %q", blockText(b))
		}
	}
	if got := strings.Join(texts, ","); got != "Concurrency,Channels,Select" {
		t.Errorf("expected deep items flattened under Go, got %s", got)
	}
}

func TestPageBlocks_NoSummary(t *testing.T) {
	blocks := PageBlocks(nil, "")
	if blocks == nil || len(blocks) != 0 {
		t.Errorf("expected empty non-nil blocks, got %v", blocks)
	}
}

func TestProperties_OptionalFields(t *testing.T) {
	in := PageInput{
		JobURL:   "https://jobs.example/1",
		Fields:   extract.Fields{Position: "SRE", Location: []string{"Berlin"}},
		Summary:  "Short.",
		RichText: "rich",
		Markdown: strings.Repeat("para graph\n\n", 400),
	}
	available := map[string]bool{
		PropPosition: true, PropJobURL: true, PropLocation: true,
		PropDescription: true, "Job Description Part 2": true,
	}

	props := Properties(in, available)
	for _, name := range []string{PropPosition, PropJobURL, PropLocation, PropDescription, "Job Description Part 2"} {
		if _, ok := props[name]; !ok {
			t.Errorf("expected property %q", name)
		}
	}
	for _, name := range []string{PropSalary, PropSummary, PropStatus, "Job Description Part 3"} {
		if _, ok := props[name]; ok {
			t.Errorf("expected property %q to be skipped", name)
		}
	}
}

func TestProperties_Defaults(t *testing.T) {
	props := Properties(PageInput{}, nil)
	title := props[PropPosition].(map[string]any)["title"].([]map[string]any)
	if title[0]["text"].(map[string]string)["content"] != "Unknown" {
		t.Errorf("expected Unknown position, got %v", title)
	}
	commitment := props[PropCommitment].(map[string]any)["multi_select"].([]map[string]string)
	if len(commitment) != 1 || commitment[0]["name"] != "Full time" {
		t.Errorf("expected Full time commitment, got %v", commitment)
	}
	if _, ok := props[PropJobURL]; ok {
		t.Error("expected no Job URL without a url")
	}
}
