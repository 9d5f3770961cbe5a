package doctree

import "testing"

func TestBuilder_PreambleAndSections(t *testing.T) {
	b := NewBuilder()
	b.AddParagraph("Acme is hiring.")
	b.StartSection("Responsibilities:", 2)
	b.AddBullet("Build things", 0)
	b.AddBullet("Fix things", 0)
	doc := b.Document()

	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[0].Title != "" {
		t.Errorf("expected untitled preamble, got %q", doc.Sections[0].Title)
	}
	if doc.Sections[1].Title != "Responsibilities" {
		t.Errorf("expected %q, got %q", "Responsibilities", doc.Sections[1].Title)
	}
	blocks := doc.Sections[1].Blocks
	if len(blocks) != 1 || blocks[0].Kind != KindBulletList {
		t.Fatalf("expected one bullet list block, got %+v", blocks)
	}
	if len(blocks[0].Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(blocks[0].Items))
	}
}

func TestBuilder_DropsEmptySections(t *testing.T) {
	b := NewBuilder()
	b.StartSection("Empty", 1)
	b.StartSection("Also Empty", 2)
	b.AddDivider()
	b.StartSection("Kept", 2)
	b.AddParagraph("content")
	doc := b.Document()

	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d: %v", len(doc.Sections), doc.Titles())
	}
	if doc.Sections[0].Title != "Kept" {
		t.Errorf("expected %q, got %q", "Kept", doc.Sections[0].Title)
	}
}

func TestBuilder_DuplicateTitlesStayDistinct(t *testing.T) {
	b := NewBuilder()
	b.StartSection("Benefits", 2)
	b.AddBullet("Dental", 0)
	b.StartSection("Benefits:", 2)
	b.AddBullet("Vision", 0)
	doc := b.Document()

	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	for i, s := range doc.Sections {
		if s.Title != "Benefits" {
			t.Errorf("section %d: expected %q, got %q", i, "Benefits", s.Title)
		}
	}
}

func TestBuilder_BulletLevelClamp(t *testing.T) {
	b := NewBuilder()
	b.AddBullet("first", 3)
	b.AddBullet("child", 4)
	b.AddBullet("grandchild", 2)
	b.AddBullet("back", 0)
	doc := b.Document()

	items := doc.Sections[0].Blocks[0].Items
	want := []int{0, 1, 2, 0}
	for i, w := range want {
		if items[i].Level != w {
			t.Errorf("item %d: expected level %d, got %d", i, w, items[i].Level)
		}
	}
}

func TestBuilder_ParagraphClosesList(t *testing.T) {
	b := NewBuilder()
	b.AddBullet("one", 0)
	b.AddParagraph("between")
	b.AddBullet("two", 0)
	b.AddBullet("three", 0)
	b.EndList()
	b.AddBullet("four", 0)
	doc := b.Document()

	blocks := doc.Sections[0].Blocks
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(blocks))
	}
	kinds := []BlockKind{KindBulletList, KindParagraph, KindBulletList, KindBulletList}
	for i, k := range kinds {
		if blocks[i].Kind != k {
			t.Errorf("block %d: expected %s, got %s", i, k, blocks[i].Kind)
		}
	}
	if doc.BulletCount() != 4 {
		t.Errorf("expected 4 bullets, got %d", doc.BulletCount())
	}
}

func TestBuilder_TrailingDividerTrimmed(t *testing.T) {
	b := NewBuilder()
	b.StartSection("About", 2)
	b.AddParagraph("text")
	b.AddDivider()
	b.AddDivider()
	doc := b.Document()

	if got := len(doc.Sections[0].Blocks); got != 1 {
		t.Errorf("expected 1 block, got %d", got)
	}
}

func TestBuilder_BlankContentIgnored(t *testing.T) {
	b := NewBuilder()
	b.AddParagraph("   ")
	b.AddBullet("", 0)
	doc := b.Document()
	if !doc.Empty() {
		t.Errorf("expected empty document, got %d sections", len(doc.Sections))
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Responsibilities:  ", "Responsibilities"},
		{"What   You'll\tDo ::", "What You'll Do"},
		{"ABOUT US", "ABOUT US"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
