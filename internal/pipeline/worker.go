package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/jobfmt/internal/extract"
	"github.com/dgallion1/jobfmt/internal/fetch"
	"github.com/dgallion1/jobfmt/internal/formatter"
	"github.com/dgallion1/jobfmt/internal/notion"
	"github.com/dgallion1/jobfmt/internal/parser"
	"golang.org/x/net/html"
)

// Fetcher downloads a posting page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Store is the job database postings are written to.
type Store interface {
	FindByURL(ctx context.Context, jobURL, excludeID string) (*notion.Page, error)
	CreatePage(ctx context.Context, props map[string]any, children []notion.Block) (*notion.Page, error)
	MarkProcessed(ctx context.Context, pageID string) error
	PropertyNames(ctx context.Context) (map[string]bool, error)
	QueryUnprocessed(ctx context.Context, limit int) ([]notion.Page, error)
}

// Deps are the collaborators a Worker needs. Extractor and Store may be nil:
// without an extractor postings are formatted without fields or summary, and
// without a store the result stays on the job.
type Deps struct {
	Fetcher   Fetcher
	Extractor extract.Extractor
	Store     Store
	Formatter *formatter.Formatter
}

// Worker processes a single posting job.
type Worker struct {
	deps Deps
	log  *slog.Logger
	wait func(int) time.Duration
}

func NewWorker(deps Deps, log *slog.Logger) *Worker {
	if deps.Formatter == nil {
		deps.Formatter = formatter.New(nil, 0)
	}
	return &Worker{deps: deps, log: log, wait: Backoff}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "url", job.URL)

	// Phase 1: Fetch
	job.SetStatus(StatusFetching, "fetching")
	page, err := w.deps.Fetcher.Fetch(ctx, job.URL)
	if err != nil {
		log.Error("fetch failed", "error", err)
		job.AddError(fmt.Sprintf("fetch: %s", err))
		job.SetStatus(StatusFailed, "fetching")
		return
	}
	job.SetFetched(page.HTML)

	text, root, err := pageContent(page)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "fetching")
		return
	}

	// Phase 1.5: Dedup check
	dup, err := w.checkDuplicate(ctx, job)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if dup != nil {
		log.Info("duplicate posting, skipping", "existing_page_id", dup.ID)
		w.markSource(ctx, log, job)
		job.SetResult(Result{PageID: dup.ID, PageURL: dup.URL})
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: Extract fields and summary.
	job.SetStatus(StatusExtracting, "extracting")
	res := &extract.Result{}
	if w.deps.Extractor != nil {
		err := retry(ctx, log, "extract", w.wait, func() error {
			job.IncrExtractAttempts()
			r, err := w.deps.Extractor.Extract(ctx, text)
			if err == nil {
				res = r
			}
			return err
		})
		if err != nil {
			log.Error("extraction failed", "error", err)
			job.AddError(fmt.Sprintf("extract: %s", err))
		}
		for _, warn := range res.Warnings {
			log.Warn("extraction warning", "warning", warn)
			job.AddError(fmt.Sprintf("extract: %s", warn))
		}
	}

	// Phase 3: Format
	job.SetStatus(StatusFormatting, "formatting")
	out := w.deps.Formatter.Format(formatter.Input{Content: text, HTML: root, Summary: res.Summary})
	job.SetFormatted(len(out.Bullets), len(out.Blocks))
	log.Info("formatted posting", "blocks", len(out.Blocks), "bullets", len(out.Bullets))

	if len(out.Blocks) == 0 && res.Summary == "" {
		log.Warn("no content produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "formatting")
		return
	}

	result := Result{
		Position: res.Fields.Position,
		Company:  res.Fields.Company,
		Summary:  res.Summary,
	}
	if w.deps.Store == nil {
		job.SetResult(result)
		finish(job)
		return
	}

	// Phase 4: Store the posting as a new row.
	job.SetStatus(StatusStoring, "storing")
	props := notion.Properties(notion.PageInput{
		JobURL:   job.URL,
		Fields:   res.Fields,
		Summary:  res.Summary,
		RichText: out.RichText,
		Markdown: out.Markdown,
	}, w.availableProperties(ctx, log))
	blocks := notion.PageBlocks(out.Blocks, res.Summary)

	var created *notion.Page
	var appendErr error
	err = retry(ctx, log, "store", w.wait, func() error {
		p, err := w.deps.Store.CreatePage(ctx, props, blocks)
		if p != nil {
			// The row exists; retrying would create a second one.
			created, appendErr = p, err
			return nil
		}
		return err
	})
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}
	if appendErr != nil {
		log.Error("page body incomplete", "page_id", created.ID, "error", appendErr)
		job.AddError(fmt.Sprintf("store: %s", appendErr))
	}
	result.PageID = created.ID
	result.PageURL = created.URL
	job.SetResult(result)
	log.Info("stored posting", "page_id", created.ID)

	w.markSource(ctx, log, job)
	finish(job)
}

func finish(job *Job) {
	if job.HasErrors() {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// pageContent returns the posting text and, for markup, the parsed tree.
func pageContent(page *fetch.Page) (string, *html.Node, error) {
	if !page.IsHTML() {
		return string(page.HTML), nil, nil
	}
	root, err := page.Parse()
	if err != nil {
		return "", nil, err
	}
	return parser.FlattenHTML(root), root, nil
}

// checkDuplicate returns another row already holding the job's URL.
func (w *Worker) checkDuplicate(ctx context.Context, job *Job) (*notion.Page, error) {
	if w.deps.Store == nil {
		return nil, nil
	}
	page, err := w.deps.Store.FindByURL(ctx, job.URL, job.SourcePageID)
	if errors.Is(err, notion.ErrNotFound) {
		return nil, nil
	}
	return page, err
}

func (w *Worker) availableProperties(ctx context.Context, log *slog.Logger) map[string]bool {
	names, err := w.deps.Store.PropertyNames(ctx)
	if err != nil {
		log.Warn("read schema failed, using base properties", "error", err)
		return notion.BaseProperties()
	}
	return names
}

// markSource flags the row the job was polled from as processed.
func (w *Worker) markSource(ctx context.Context, log *slog.Logger, job *Job) {
	if job.SourcePageID == "" || w.deps.Store == nil {
		return
	}
	err := retry(ctx, log, "mark_processed", w.wait, func() error {
		return w.deps.Store.MarkProcessed(ctx, job.SourcePageID)
	})
	if err != nil {
		log.Error("mark processed failed", "page_id", job.SourcePageID, "error", err)
		job.AddError(fmt.Sprintf("mark processed: %s", err))
	}
}
