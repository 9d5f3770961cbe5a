package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/jobfmt/internal/extract"
	"github.com/dgallion1/jobfmt/internal/fetch"
	"github.com/dgallion1/jobfmt/internal/notion"
)

const postingHTML = `<html><body>
<h1>Backend Engineer</h1>
<h2>Requirements</h2>
<ul><li>Go</li><li>SQL</li></ul>
</body></html>`

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]*fetch.Page
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetch.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.pages[url]
	if !ok {
		return nil, errors.New("fetch " + url + ": status 404")
	}
	return p, nil
}

func htmlFetcher(url, body string) *fakeFetcher {
	return &fakeFetcher{pages: map[string]*fetch.Page{
		url: {URL: url, HTML: []byte(body), ContentType: "text/html; charset=utf-8"},
	}}
}

type fakeExtractor struct {
	mu    sync.Mutex
	res   *extract.Result
	errs  []error
	calls int
}

func (f *fakeExtractor) Extract(context.Context, string) (*extract.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.res, nil
}

func (f *fakeExtractor) Model() string { return "fake" }

type createdPage struct {
	props  map[string]any
	blocks []notion.Block
}

type fakeStore struct {
	mu          sync.Mutex
	existing    map[string][]notion.Page
	unprocessed []notion.Page
	created     []createdPage
	createErr   error
	appendErr   error
	schemaErr   error
	marked      []string
}

func (s *fakeStore) FindByURL(_ context.Context, url, excludeID string) (*notion.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.existing[url] {
		if p.ID != excludeID {
			return &p, nil
		}
	}
	return nil, notion.ErrNotFound
}

func (s *fakeStore) CreatePage(_ context.Context, props map[string]any, blocks []notion.Block) (*notion.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, createdPage{props: props, blocks: blocks})
	page := &notion.Page{ID: "page-1", URL: "https://notion.so/page-1"}
	return page, s.appendErr
}

func (s *fakeStore) MarkProcessed(_ context.Context, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, pageID)
	return nil
}

func (s *fakeStore) PropertyNames(context.Context) (map[string]bool, error) {
	if s.schemaErr != nil {
		return nil, s.schemaErr
	}
	return nil, nil
}

func (s *fakeStore) QueryUnprocessed(_ context.Context, limit int) ([]notion.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > 0 && len(s.unprocessed) > limit {
		return s.unprocessed[:limit], nil
	}
	return s.unprocessed, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(deps Deps) *Worker {
	w := NewWorker(deps, discardLogger())
	w.wait = func(int) time.Duration { return 0 }
	return w
}

func goodExtraction() *extract.Result {
	return &extract.Result{
		Fields:  extract.Fields{Position: "Backend Engineer", Company: "Acme", Location: []string{"Remote"}},
		Summary: "Acme needs a backend engineer.",
	}
}

func TestWorker_ProcessCompleted(t *testing.T) {
	store := &fakeStore{}
	w := newTestWorker(Deps{
		Fetcher:   htmlFetcher("https://jobs.example.com/1", postingHTML),
		Extractor: &fakeExtractor{res: goodExtraction()},
		Store:     store,
	})
	job := NewJob("https://jobs.example.com/1", "row-1")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Result.PageID != "page-1" || snap.Result.Position != "Backend Engineer" {
		t.Errorf("unexpected result: %+v", snap.Result)
	}
	if snap.Progress.Bullets != 2 || snap.Progress.ExtractAttempts != 1 {
		t.Errorf("unexpected progress: %+v", snap.Progress)
	}
	if snap.ContentHash != ContentHashHex([]byte(postingHTML)) {
		t.Errorf("expected content hash of the fetched page")
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 created page, got %d", len(store.created))
	}

	props, _ := json.Marshal(store.created[0].props)
	if !strings.Contains(string(props), `"Backend Engineer"`) || !strings.Contains(string(props), `"Remote"`) {
		t.Errorf("expected extracted fields in properties, got %s", props)
	}
	if store.created[0].blocks[0]["type"] != "heading_2" {
		t.Errorf("expected summary heading first, got %v", store.created[0].blocks[0]["type"])
	}
	if len(store.marked) != 1 || store.marked[0] != "row-1" {
		t.Errorf("expected source row marked processed, got %v", store.marked)
	}
}

func TestWorker_FetchFailure(t *testing.T) {
	ex := &fakeExtractor{res: goodExtraction()}
	w := newTestWorker(Deps{Fetcher: &fakeFetcher{}, Extractor: ex})
	job := NewJob("https://jobs.example.com/missing", "")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "fetching" {
		t.Errorf("expected failed in fetching, got %q/%q", snap.Status, snap.Phase)
	}
	if ex.calls != 0 {
		t.Errorf("expected no extraction after a failed fetch, got %d calls", ex.calls)
	}
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	url := "https://jobs.example.com/dup"
	store := &fakeStore{existing: map[string][]notion.Page{
		url: {{ID: "row-1"}, {ID: "existing", URL: "https://notion.so/existing"}},
	}}
	w := newTestWorker(Deps{Fetcher: htmlFetcher(url, postingHTML), Store: store})
	job := NewJob(url, "row-1")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusDupSkipped {
		t.Fatalf("expected status %q, got %q", StatusDupSkipped, snap.Status)
	}
	if snap.Result.PageID != "existing" {
		t.Errorf("expected existing page in result, got %+v", snap.Result)
	}
	if len(store.created) != 0 {
		t.Errorf("expected no page created for a duplicate")
	}
	if len(store.marked) != 1 {
		t.Errorf("expected the source row marked processed, got %v", store.marked)
	}
}

func TestWorker_SourceRowIsNotItsOwnDuplicate(t *testing.T) {
	url := "https://jobs.example.com/own"
	store := &fakeStore{existing: map[string][]notion.Page{url: {{ID: "row-1"}}}}
	w := newTestWorker(Deps{Fetcher: htmlFetcher(url, postingHTML), Store: store})
	job := NewJob(url, "row-1")
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Errorf("expected status %q, got %q", StatusCompleted, got)
	}
}

func TestWorker_RetriesRetryableExtraction(t *testing.T) {
	ex := &fakeExtractor{
		res:  goodExtraction(),
		errs: []error{&extract.RetryableError{StatusCode: 429, Message: "slow down"}},
	}
	w := newTestWorker(Deps{Fetcher: htmlFetcher("https://x/1", postingHTML), Extractor: ex})
	job := NewJob("https://x/1", "")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.ExtractAttempts != 2 {
		t.Errorf("expected 2 extract attempts, got %d", snap.Progress.ExtractAttempts)
	}
	if snap.Result.Summary == "" {
		t.Errorf("expected summary from the successful attempt")
	}
}

func TestWorker_ExtractionFailureStillStores(t *testing.T) {
	store := &fakeStore{}
	ex := &fakeExtractor{errs: []error{errors.New("invalid api key")}}
	w := newTestWorker(Deps{Fetcher: htmlFetcher("https://x/2", postingHTML), Extractor: ex, Store: store})
	job := NewJob("https://x/2", "")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected status %q, got %q", StatusPartial, snap.Status)
	}
	if ex.calls != 1 {
		t.Errorf("expected no retry for a permanent error, got %d calls", ex.calls)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected the formatted posting stored anyway")
	}
	props, _ := json.Marshal(store.created[0].props)
	if !strings.Contains(string(props), `"Unknown"`) {
		t.Errorf("expected default position, got %s", props)
	}
}

func TestWorker_ExtractionWarningsArePartial(t *testing.T) {
	res := goodExtraction()
	res.Warnings = []string{"summary rejected"}
	w := newTestWorker(Deps{Fetcher: htmlFetcher("https://x/3", postingHTML), Extractor: &fakeExtractor{res: res}})
	job := NewJob("https://x/3", "")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Errorf("expected status %q, got %q", StatusPartial, snap.Status)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "summary rejected") {
		t.Errorf("expected warning recorded, got %v", snap.Progress.Errors)
	}
}

func TestWorker_StoreFailure(t *testing.T) {
	store := &fakeStore{createErr: errors.New("validation_error")}
	w := newTestWorker(Deps{Fetcher: htmlFetcher("https://x/4", postingHTML), Store: store})
	job := NewJob("https://x/4", "row-4")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "storing" {
		t.Errorf("expected failed in storing, got %q/%q", snap.Status, snap.Phase)
	}
	if len(store.marked) != 0 {
		t.Errorf("expected source row left unprocessed, got %v", store.marked)
	}
}

func TestWorker_AppendFailureIsNotRetried(t *testing.T) {
	store := &fakeStore{appendErr: &notion.StatusError{Code: 502, Body: "bad gateway"}}
	w := newTestWorker(Deps{Fetcher: htmlFetcher("https://x/5", postingHTML), Store: store})
	job := NewJob("https://x/5", "")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Errorf("expected status %q, got %q", StatusPartial, snap.Status)
	}
	if len(store.created) != 1 {
		t.Errorf("expected exactly one page created, got %d", len(store.created))
	}
	if snap.Result.PageID != "page-1" {
		t.Errorf("expected page ID recorded, got %+v", snap.Result)
	}
}

func TestWorker_SchemaErrorUsesBaseProperties(t *testing.T) {
	store := &fakeStore{schemaErr: errors.New("forbidden")}
	w := newTestWorker(Deps{Fetcher: htmlFetcher("https://x/6", postingHTML), Store: store})
	job := NewJob("https://x/6", "")
	w.Process(context.Background(), job)

	if len(store.created) != 1 {
		t.Fatalf("expected a page created")
	}
	props := store.created[0].props
	if _, ok := props[notion.PropStatus]; !ok {
		t.Errorf("expected base property %q set", notion.PropStatus)
	}
	part := notion.PropDescription + " Part 2"
	if _, ok := props[part]; ok {
		t.Errorf("expected optional property %q left out", part)
	}
}

func TestWorker_NoStoreKeepsResultOnJob(t *testing.T) {
	w := newTestWorker(Deps{
		Fetcher:   htmlFetcher("https://x/7", postingHTML),
		Extractor: &fakeExtractor{res: goodExtraction()},
	})
	job := NewJob("https://x/7", "")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q", StatusCompleted, snap.Status)
	}
	if snap.Result.Company != "Acme" || snap.Result.PageID != "" {
		t.Errorf("unexpected result: %+v", snap.Result)
	}
}

func TestWorker_PlainTextPage(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*fetch.Page{
		"https://x/8": {URL: "https://x/8", HTML: []byte("Requirements:\n- Go\n- SQL\n- Docker"), ContentType: "text/plain"},
	}}
	w := newTestWorker(Deps{Fetcher: f})
	job := NewJob("https://x/8", "")
	w.Process(context.Background(), job)

	if got := job.Snapshot().Progress.Bullets; got != 3 {
		t.Errorf("expected 3 bullets, got %d", got)
	}
}

func TestWorker_EmptyPageFails(t *testing.T) {
	w := newTestWorker(Deps{Fetcher: htmlFetcher("https://x/9", "<html><body><script>x()</script></body></html>")})
	job := NewJob("https://x/9", "")
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "formatting" {
		t.Errorf("expected failed in formatting, got %q/%q", snap.Status, snap.Phase)
	}
}
