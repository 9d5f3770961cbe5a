// Package notion is the client for the job database the formatted postings
// are stored in.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"

	// MaxChildrenPerRequest is the most blocks one request may carry.
	MaxChildrenPerRequest = 100
)

// Property names of the job database.
const (
	PropPosition    = "Position"
	PropCompany     = "Company"
	PropSalary      = "Salary"
	PropStatus      = "Status"
	PropJobURL      = "Job URL"
	PropCommitment  = "Commitment"
	PropIndustry    = "Industry"
	PropLocation    = "Location"
	PropProcessed   = "Processed"
	PropDescription = "Job Description"
	PropSummary     = "Job Summary"
)

// BaseProperties are the properties every job database is assumed to have
// when the schema cannot be read.
func BaseProperties() map[string]bool {
	return map[string]bool{
		PropPosition: true, PropCompany: true, PropSalary: true, PropStatus: true,
		PropJobURL: true, PropCommitment: true, PropIndustry: true, PropLocation: true,
		PropProcessed: true, PropDescription: true,
	}
}

// ErrNotFound is returned when no page matches a lookup.
var ErrNotFound = errors.New("notion: not found")

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("notion api status %d: %s", e.Code, body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client communicates with the Notion HTTP API for one database.
type Client struct {
	baseURL    string
	token      string
	databaseID string
	httpClient *http.Client
}

func NewClient(baseURL, token, databaseID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		databaseID: databaseID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Page is a database row.
type Page struct {
	ID         string                     `json:"id"`
	URL        string                     `json:"url"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// JobURL returns the page's "Job URL" property, or "".
func (p Page) JobURL() string {
	var prop struct {
		URL *string `json:"url"`
	}
	raw, ok := p.Properties[PropJobURL]
	if !ok || json.Unmarshal(raw, &prop) != nil || prop.URL == nil {
		return ""
	}
	return *prop.URL
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CreatePage adds a row with the given properties and body blocks. Blocks
// beyond the first MaxChildrenPerRequest are appended in further requests.
func (c *Client) CreatePage(ctx context.Context, props map[string]any, children []Block) (*Page, error) {
	first := children
	if len(first) > MaxChildrenPerRequest {
		first = first[:MaxChildrenPerRequest]
	}
	req := map[string]any{
		"parent":     map[string]string{"database_id": c.databaseID},
		"properties": props,
		"children":   nonNil(first),
	}
	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if len(children) > len(first) {
		if err := c.AppendChildren(ctx, page.ID, children[len(first):]); err != nil {
			return &page, err
		}
	}
	return &page, nil
}

// AppendChildren adds blocks to the end of a page or block.
func (c *Client) AppendChildren(ctx context.Context, blockID string, children []Block) error {
	for start := 0; start < len(children); start += MaxChildrenPerRequest {
		end := min(start+MaxChildrenPerRequest, len(children))
		req := map[string]any{"children": children[start:end]}
		if err := c.do(ctx, http.MethodPatch, "/blocks/"+blockID+"/children", req, nil); err != nil {
			return fmt.Errorf("append children %d-%d: %w", start, end, err)
		}
	}
	return nil
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

func (c *Client) query(ctx context.Context, filter map[string]any, limit int) ([]Page, error) {
	var pages []Page
	cursor := ""
	for {
		req := map[string]any{"filter": filter, "page_size": 100}
		if cursor != "" {
			req["start_cursor"] = cursor
		}
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", req, &resp); err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}
		pages = append(pages, resp.Results...)
		if limit > 0 && len(pages) >= limit {
			return pages[:limit], nil
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}

// QueryUnprocessed lists rows whose Processed box is unchecked. limit <= 0
// returns all of them.
func (c *Client) QueryUnprocessed(ctx context.Context, limit int) ([]Page, error) {
	return c.query(ctx, map[string]any{
		"property": PropProcessed,
		"checkbox": map[string]bool{"equals": false},
	}, limit)
}

// FindByURL returns the first row other than excludeID whose Job URL equals
// jobURL.
func (c *Client) FindByURL(ctx context.Context, jobURL, excludeID string) (*Page, error) {
	pages, err := c.query(ctx, map[string]any{
		"property": PropJobURL,
		"url":      map[string]string{"equals": jobURL},
	}, 2)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if pages[i].ID != excludeID {
			return &pages[i], nil
		}
	}
	return nil, ErrNotFound
}

// MarkProcessed checks the Processed box of a row.
func (c *Client) MarkProcessed(ctx context.Context, pageID string) error {
	req := map[string]any{
		"properties": map[string]any{
			PropProcessed: map[string]bool{"checkbox": true},
		},
	}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, req, nil); err != nil {
		return fmt.Errorf("mark processed %s: %w", pageID, err)
	}
	return nil
}

// PropertyNames returns the set of properties the database defines.
func (c *Client) PropertyNames(ctx context.Context) (map[string]bool, error) {
	var db struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := c.do(ctx, http.MethodGet, "/databases/"+c.databaseID, nil, &db); err != nil {
		return nil, fmt.Errorf("get database: %w", err)
	}
	names := make(map[string]bool, len(db.Properties))
	for name := range db.Properties {
		names[name] = true
	}
	return names, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func nonNil(blocks []Block) []Block {
	if blocks == nil {
		return []Block{}
	}
	return blocks
}
