package render

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/jobfmt/internal/doctree"
)

func buildDoc(fn func(b *doctree.Builder)) *doctree.Document {
	b := doctree.NewBuilder()
	fn(b)
	return b.Document()
}

func TestRichText_FitsReturnsFull(t *testing.T) {
	doc := buildDoc(func(b *doctree.Builder) {
		b.AddParagraph("We are hiring.")
		b.StartSection("Requirements", 2)
		b.AddBullet("Go", 0)
		b.AddBullet("SQL", 1)
		b.StartSection("Benefits", 2)
		b.AddParagraph("Remote work.")
	})

	got := RichText(doc, "Great role.", nil)
	want := "Great role.\n\nRequirements:\n• Go\n  • SQL\n\nBenefits:\nRemote work.\n\nWe are hiring."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRichText_PriorityOrder(t *testing.T) {
	doc := buildDoc(func(b *doctree.Builder) {
		b.StartSection("Benefits", 2)
		b.AddBullet("Health", 0)
		b.StartSection("About Us", 2)
		b.AddParagraph("A small team.")
		b.StartSection("Requirements", 2)
		b.AddBullet("Go", 0)
		b.StartSection("Responsibilities", 2)
		b.AddBullet("Ship", 0)
	})

	got := RichText(doc, "", nil)
	want := "Responsibilities:\n• Ship\n\nRequirements:\n• Go\n\nBenefits:\n• Health\n\nAbout Us:\nA small team."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRichText_CapsPriorityBullets(t *testing.T) {
	doc := buildDoc(func(b *doctree.Builder) {
		b.StartSection("Requirements", 2)
		for i := 1; i <= 7; i++ {
			b.AddBullet(fmt.Sprintf("Skill %d", i), 0)
		}
	})

	got := RichText(doc, "", nil)
	if !strings.Contains(got, "• Skill 5") {
		t.Errorf("expected fifth bullet in %q", got)
	}
	if strings.Contains(got, "Skill 6") {
		t.Errorf("expected at most 5 bullets, got %q", got)
	}
	if strings.HasSuffix(got, ellipsis) {
		t.Errorf("expected no omission marker when everything fits, got %q", got)
	}
}

func TestRichText_EmptyDocumentAndSummary(t *testing.T) {
	if got := RichText(nil, "", nil); got != "" {
		t.Errorf("expected empty rich text, got %q", got)
	}
	if got := RichText(&doctree.Document{}, "  Only a summary.  ", nil); got != "Only a summary." {
		t.Errorf("expected trimmed summary, got %q", got)
	}
}

func TestRichText_OversizedContent(t *testing.T) {
	summary := strings.Repeat("s", 499) + "."
	categories := []string{"Responsibilities", "Requirements", "Benefits"}
	doc := buildDoc(func(b *doctree.Builder) {
		for _, title := range categories {
			b.StartSection(title, 2)
			for i := 0; i < 6; i++ {
				b.AddBullet(fmt.Sprintf("%s item %d %s", title, i, strings.Repeat("x", 80)), 0)
			}
		}
		b.StartSection("About the Team", 2)
		b.AddBullet("Team item 0", 0)
		b.AddBullet("Team item 1", 0)
	})
	if doc.BulletCount() != 20 {
		t.Fatalf("expected 20 bullets, got %d", doc.BulletCount())
	}

	got := RichText(doc, summary, nil)
	if n := utf8.RuneCountInString(got); n > RichTextLimit {
		t.Fatalf("expected at most %d characters, got %d", RichTextLimit, n)
	}
	if !strings.HasPrefix(got, summary) {
		t.Errorf("expected rich text to start with the full summary")
	}
	if !strings.HasSuffix(got, "\n...") {
		t.Errorf("expected omission marker, got suffix %q", got[len(got)-20:])
	}

	last := -1
	for _, title := range categories {
		idx := strings.Index(got, title+":")
		if idx < 0 {
			t.Fatalf("expected section %q in rich text", title)
		}
		if idx < last {
			t.Errorf("expected %q after the previous priority section", title)
		}
		last = idx
	}
	if strings.Contains(got, "Responsibilities item 5") {
		t.Errorf("expected at most 5 responsibilities bullets")
	}
	if strings.Contains(got, "Team item") {
		t.Errorf("expected non-priority section to be cut")
	}
}

func TestRichText_SummaryTooLong(t *testing.T) {
	summary := strings.Repeat("word ", 600)
	doc := buildDoc(func(b *doctree.Builder) {
		b.StartSection("Requirements", 2)
		b.AddBullet("Go", 0)
	})

	got := RichText(doc, summary, nil)
	if n := utf8.RuneCountInString(got); n > RichTextLimit {
		t.Fatalf("expected at most %d characters, got %d", RichTextLimit, n)
	}
	if !strings.HasSuffix(got, "word...") {
		t.Errorf("expected word-boundary cut with ellipsis, got suffix %q", got[len(got)-20:])
	}
	if strings.Contains(got, "Requirements") {
		t.Errorf("expected nothing after a truncated summary")
	}
}

func TestRichText_CutsParagraphAtSentence(t *testing.T) {
	doc := buildDoc(func(b *doctree.Builder) {
		b.AddParagraph("First sentence here. Second sentence here. Third one.")
	})

	got := richText(doc, "", nil, 50)
	want := "First sentence here. Second sentence here.\n..."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRichText_OversizedFirstBulletIsWordCut(t *testing.T) {
	doc := buildDoc(func(b *doctree.Builder) {
		b.StartSection("Requirements", 2)
		b.AddBullet(strings.Repeat("long ", 20), 0)
	})

	got := richText(doc, "", nil, 60)
	want := "Requirements:\n• long long long long long long long long\n..."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	long := buildDoc(func(b *doctree.Builder) {
		b.StartSection("Responsibilities", 2)
		b.AddBullet(strings.Repeat("deliver ", 500), 0)
	})
	got = RichText(long, "", nil)
	if n := utf8.RuneCountInString(got); n > RichTextLimit {
		t.Fatalf("expected at most %d characters, got %d", RichTextLimit, n)
	}
	if !strings.HasPrefix(got, "Responsibilities:\n• deliver deliver") {
		t.Errorf("expected title and cut bullet, got prefix %q", got[:min(len(got), 40)])
	}
	if !strings.HasSuffix(got, "deliver\n...") {
		t.Errorf("expected word-boundary cut with omission marker, got suffix %q", got[max(0, len(got)-20):])
	}
}

func TestRichText_TitleNeverAlone(t *testing.T) {
	doc := buildDoc(func(b *doctree.Builder) {
		b.StartSection("Requirements", 2)
		b.AddBullet(strings.Repeat("long ", 20), 0)
	})

	got := richText(doc, "", nil, 15)
	if got != ellipsis {
		t.Errorf("expected only the omission marker, got %q", got)
	}
}

func TestRichText_SummaryNearLimitIsCut(t *testing.T) {
	summary := strings.Repeat("abcd ", 399) + "end."
	if n := utf8.RuneCountInString(summary); n != 1999 {
		t.Fatalf("expected 1999-rune summary, got %d", n)
	}
	doc := buildDoc(func(b *doctree.Builder) {
		b.AddParagraph("Some paragraph.")
	})

	got := RichText(doc, summary, nil)
	if n := utf8.RuneCountInString(got); n > RichTextLimit {
		t.Fatalf("expected at most %d characters, got %d", RichTextLimit, n)
	}
	if !strings.HasSuffix(got, "abcd...") {
		t.Errorf("expected summary cut with ellipsis, got suffix %q", got[len(got)-20:])
	}
	if got := RichText(nil, summary, nil); got != summary {
		t.Errorf("expected summary alone to be kept in full")
	}
}

func TestRichText_NeverExceedsLimit(t *testing.T) {
	for n := 0; n < 80; n += 7 {
		doc := buildDoc(func(b *doctree.Builder) {
			b.AddParagraph(strings.Repeat("Préambule très détaillé. ", n))
			b.StartSection("Responsibilities", 2)
			for i := 0; i < n; i++ {
				b.AddBullet(fmt.Sprintf("Tâche numéro %d → livrer", i), i%3)
			}
			b.StartSection("Notes", 2)
			b.AddParagraph(strings.Repeat("ünïcödé ", n*5))
		})
		got := RichText(doc, strings.Repeat("résumé ", n*4), nil)
		if c := utf8.RuneCountInString(got); c > RichTextLimit {
			t.Errorf("n=%d: expected at most %d characters, got %d", n, RichTextLimit, c)
		}
	}
}

func TestCutWords(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"alpha beta gamma", 100, "alpha beta gamma"},
		{"alpha beta gamma", 10, "alpha beta"},
		{"alpha beta gamma", 12, "alpha beta"},
		{"alphabet", 5, "alpha"},
		{"alpha", 0, ""},
	}
	for _, c := range cases {
		if got := cutWords(c.in, c.max); got != c.want {
			t.Errorf("cutWords(%q, %d): expected %q, got %q", c.in, c.max, c.want, got)
		}
	}
}
