package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/jobfmt/internal/chunker"
)

// MaxSummaryRunes is the longest summary kept, in characters.
const MaxSummaryRunes = 500

// Prompt input caps, in estimated tokens.
const (
	fieldsInputTokens  = 1000
	summaryInputTokens = 750
)

// Fields are the structured properties of one job posting.
type Fields struct {
	Position   string   `json:"Position"`
	Company    string   `json:"Company"`
	Salary     string   `json:"Salary"`
	Commitment string   `json:"Commitment"`
	Industry   []string `json:"Industry"`
	Location   []string `json:"Location"`
}

// Result is everything extracted from one posting. Warnings name the parts
// that could not be extracted; the rest of the result is still usable.
type Result struct {
	Fields   Fields   `json:"fields"`
	Summary  string   `json:"summary"`
	Warnings []string `json:"warnings,omitempty"`
}

// Extractor pulls fields and a summary out of posting text.
type Extractor interface {
	Extract(ctx context.Context, posting string) (*Result, error)
	Model() string
}

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response from llm")

// completer sends one prompt and returns the model's text.
type completer interface {
	complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// run performs the two extraction calls shared by every provider. Transport
// failures abort; unusable answers become warnings.
func run(ctx context.Context, c completer, stats *LLMStats, posting string) (*Result, error) {
	res := &Result{}

	raw, err := timed(ctx, c, stats, BuildFieldsPrompt(chunker.TruncateTokens(posting, fieldsInputTokens)), 1024)
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}
	fields, err := ParseFields(raw)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	} else {
		res.Fields = *fields
	}

	raw, err = timed(ctx, c, stats, BuildSummaryPrompt(chunker.TruncateTokens(posting, summaryInputTokens)), 300)
	if err != nil {
		return nil, fmt.Errorf("extract summary: %w", err)
	}
	summary, err := CleanSummary(raw)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	} else {
		res.Summary = summary
	}
	return res, nil
}

func timed(ctx context.Context, c completer, stats *LLMStats, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, prompt, maxTokens)
	if stats != nil {
		if err != nil {
			stats.RecordError()
		} else {
			stats.Record(time.Since(start).Milliseconds())
		}
	}
	return text, err
}

// ParseFields decodes the model's JSON answer, tolerating a code fence
// around it, and cleans the list fields.
func ParseFields(raw string) (*Fields, error) {
	text := stripCodeBlock(raw)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var f Fields
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return nil, fmt.Errorf("parse fields json: %w (raw: %s)", err, truncate(text, 200))
	}
	f.Position = strings.TrimSpace(f.Position)
	f.Company = strings.TrimSpace(f.Company)
	f.Salary = strings.TrimSpace(f.Salary)
	f.Commitment = strings.TrimSpace(f.Commitment)
	f.Industry = CleanList(f.Industry)
	f.Location = CleanList(f.Location)
	return &f, nil
}

// CleanList splits comma-joined entries, trims them and drops blanks and
// repeats. Multi-select options cannot contain commas.
func CleanList(items []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

// CleanSummary trims the model's summary to MaxSummaryRunes and rejects text
// that tries to steer the reader instead of describing the job.
func CleanSummary(raw string) (string, error) {
	s := strings.TrimSpace(stripCodeBlock(raw))
	if s == "" {
		return "", ErrEmptyResponse
	}
	if injectionPattern.MatchString(s) {
		return "", fmt.Errorf("summary rejected: %s", truncate(s, 80))
	}
	if utf8.RuneCountInString(s) > MaxSummaryRunes {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:MaxSummaryRunes-3])) + "..."
	}
	return s, nil
}
