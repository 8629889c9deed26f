package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pinpon/datapipe/internal/logger"
	"github.com/pinpon/datapipe/internal/normalize"
	"github.com/pinpon/datapipe/internal/table"
)

const (
	notionBaseURL    = "https://api.notion.com"
	notionAPIVersion = "2022-06-28"
	notionTimeout    = 30 * time.Second
)

// NotionClient queries Notion databases page by page.
type NotionClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NotionOption configures a NotionClient.
type NotionOption func(*NotionClient)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(url string) NotionOption {
	return func(c *NotionClient) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) NotionOption {
	return func(c *NotionClient) { c.httpClient = client }
}

// NewNotionClient creates a Notion client with a 30-second request timeout.
func NewNotionClient(apiKey string, opts ...NotionOption) *NotionClient {
	c := &NotionClient{
		apiKey:     apiKey,
		baseURL:    notionBaseURL,
		httpClient: &http.Client{Timeout: notionTimeout},
		log:        logger.WithComponent("source-notion"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type notionQueryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
}

type notionQueryResponse struct {
	Results []struct {
		Properties map[string]notionProperty `json:"properties"`
	} `json:"results"`
	NextCursor string `json:"next_cursor"`
}

// notionProperty is the type-keyed property bag of a database page. Only the
// member named by Type is populated.
type notionProperty struct {
	Type        string           `json:"type"`
	Title       []notionRichText `json:"title"`
	RichText    []notionRichText `json:"rich_text"`
	Number      *float64         `json:"number"`
	Select      *notionOption    `json:"select"`
	MultiSelect []notionOption   `json:"multi_select"`
	Date        *notionDate      `json:"date"`
	Checkbox    *bool            `json:"checkbox"`
	URL         *string          `json:"url"`
}

type notionRichText struct {
	PlainText string `json:"plain_text"`
}

type notionOption struct {
	Name string `json:"name"`
}

type notionDate struct {
	Start string `json:"start"`
}

// LoadDatabase queries all pages of a Notion database, following the
// continuation cursor until exhausted, projects each page's properties to
// scalars and returns the normalized table. Any non-success page response
// fails the whole load with a RemoteError; partial results are discarded.
func (c *NotionClient) LoadDatabase(ctx context.Context, databaseID string) (*table.Table, error) {
	const op = "LoadDatabase"

	var (
		cols []string
		seen = map[string]bool{}
		rows []table.Row
	)

	cursor := ""
	for page := 0; ; page++ {
		resp, err := c.queryPage(ctx, op, databaseID, cursor, page)
		if err != nil {
			return nil, err
		}

		for _, result := range resp.Results {
			row := make(table.Row, len(result.Properties))
			for name, prop := range result.Properties {
				if !seen[name] {
					seen[name] = true
					cols = append(cols, name)
				}
				row[name] = projectProperty(prop)
			}
			rows = append(rows, row)
		}

		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	t := table.New(cols...)
	for _, row := range rows {
		t.Append(row)
	}

	c.log.Info().Str("database", databaseID).Int("rows", t.Len()).Msg("Notion database loaded")
	return normalize.Normalize(t), nil
}

func (c *NotionClient) queryPage(ctx context.Context, op, databaseID, cursor string, page int) (*notionQueryResponse, error) {
	body, err := json.Marshal(notionQueryRequest{StartCursor: cursor})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, databaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", notionAPIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{Op: op, Page: page, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Op: op, Page: page, StatusCode: resp.StatusCode}
	}

	var decoded notionQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &RemoteError{Op: op, Page: page, Err: err}
	}
	return &decoded, nil
}

// projectProperty flattens a typed Notion property to a table cell: text
// runs concatenate, selects take the label, multi-selects join with commas,
// dates take the start value, numbers/booleans/urls pass through.
func projectProperty(p notionProperty) table.Cell {
	switch p.Type {
	case "title":
		return table.String(joinRichText(p.Title))
	case "rich_text":
		return table.String(joinRichText(p.RichText))
	case "number":
		if p.Number == nil {
			return table.Missing
		}
		return table.NumberFromFloat(*p.Number)
	case "select":
		if p.Select == nil {
			return table.Missing
		}
		return table.String(p.Select.Name)
	case "multi_select":
		names := make([]string, len(p.MultiSelect))
		for i, opt := range p.MultiSelect {
			names[i] = opt.Name
		}
		return table.String(strings.Join(names, ","))
	case "date":
		if p.Date == nil {
			return table.Missing
		}
		return table.String(p.Date.Start)
	case "checkbox":
		if p.Checkbox == nil {
			return table.Missing
		}
		return table.Bool(*p.Checkbox)
	case "url":
		if p.URL == nil {
			return table.Missing
		}
		return table.String(*p.URL)
	default:
		return table.Missing
	}
}

func joinRichText(runs []notionRichText) string {
	parts := make([]string, len(runs))
	for i, run := range runs {
		parts[i] = run.PlainText
	}
	return strings.Join(parts, " ")
}
