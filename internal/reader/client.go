// Package reader is the client for the remote read-it-later service. It
// speaks the service's GraphQL search/delete API and downloads page
// attachments.
package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starford/raido/internal/models"
)

// Filter scopes which saved items a sync run fetches.
type Filter string

const (
	FilterAll        Filter = "ALL"
	FilterHighlights Filter = "HIGHLIGHTS"
	FilterArchived   Filter = "ARCHIVED"
	FilterLibrary    Filter = "LIBRARY"
	FilterAdvanced   Filter = "ADVANCED"
)

// Query translates the filter into the service's search syntax. The
// ADVANCED filter defers entirely to the user's custom query.
func (f Filter) Query() string {
	switch f {
	case FilterAll:
		return "in:all"
	case FilterHighlights:
		return "in:all has:highlights"
	case FilterArchived:
		return "in:archive"
	case FilterLibrary:
		return "in:library"
	}
	return ""
}

const searchQuery = `
query Search($after: String, $first: Int, $query: String, $includeContent: Boolean, $format: String) {
  search(first: $first, after: $after, query: $query, includeContent: $includeContent, format: $format) {
    ... on SearchSuccess {
      edges {
        node {
          id
          title
          siteName
          originalArticleUrl
          url
          image
          author
          updatedAt
          description
          savedAt
          pageType
          content
          publishedAt
          readAt
          wordsCount
          isArchived
          readingProgressPercent
          archivedAt
          highlights {
            id
            quote
            annotation
            patch
            updatedAt
            type
            highlightPositionPercent
            labels { name }
            color
          }
          labels { name }
        }
      }
      pageInfo { hasNextPage }
    }
    ... on SearchError { errorCodes }
  }
}`

const deleteMutation = `
mutation SetBookmarkArticle($input: SetBookmarkArticleInput!) {
  setBookmarkArticle(input: $input) {
    ... on SetBookmarkArticleSuccess {
      bookmarkedArticle { id }
    }
    ... on SetBookmarkArticleError { errorCodes }
  }
}`

// Client talks to one service account.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a client for the given GraphQL endpoint.
func NewClient(endpoint, apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchOptions selects one page of saved items.
type SearchOptions struct {
	// After is the item offset of the page start.
	After int
	// First is the page size.
	First int
	// UpdatedSince bounds the search window; empty means all time.
	UpdatedSince string
	// Query is the filter-derived search expression.
	Query string
	// IncludeContent requests full article bodies.
	IncludeContent bool
	// Format of returned content, "html" or "markdown".
	Format string
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type searchResponse struct {
	Data struct {
		Search struct {
			Edges []struct {
				Node models.Article `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			ErrorCodes []string `json:"errorCodes"`
		} `json:"search"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

type deleteResponse struct {
	Data struct {
		SetBookmarkArticle struct {
			BookmarkedArticle struct {
				ID string `json:"id"`
			} `json:"bookmarkedArticle"`
			ErrorCodes []string `json:"errorCodes"`
		} `json:"setBookmarkArticle"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

// Search fetches one page of saved items and reports whether more pages
// follow.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]models.Article, bool, error) {
	query := opts.Query
	if opts.UpdatedSince != "" {
		query = "updated:" + opts.UpdatedSince + " " + query
	}
	query = strings.TrimSpace(query + " sort:saved-asc")

	var resp searchResponse
	err := c.do(ctx, gqlRequest{
		Query: searchQuery,
		Variables: map[string]any{
			"after":          fmt.Sprint(opts.After),
			"first":          opts.First,
			"query":          query,
			"includeContent": opts.IncludeContent,
			"format":         opts.Format,
		},
	}, &resp)
	if err != nil {
		return nil, false, fmt.Errorf("reader: search: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, false, fmt.Errorf("reader: search: %s", resp.Errors[0].Message)
	}
	if codes := resp.Data.Search.ErrorCodes; len(codes) > 0 {
		return nil, false, fmt.Errorf("reader: search failed: %s", strings.Join(codes, ","))
	}

	articles := make([]models.Article, 0, len(resp.Data.Search.Edges))
	for _, e := range resp.Data.Search.Edges {
		articles = append(articles, e.Node)
	}
	return articles, resp.Data.Search.PageInfo.HasNextPage, nil
}

// Delete removes a saved item from the remote library.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	var resp deleteResponse
	err := c.do(ctx, gqlRequest{
		Query: deleteMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"articleID": id,
				"bookmark":  false,
			},
		},
	}, &resp)
	if err != nil {
		return false, fmt.Errorf("reader: delete %s: %w", id, err)
	}
	if len(resp.Errors) > 0 {
		return false, fmt.Errorf("reader: delete %s: %s", id, resp.Errors[0].Message)
	}
	if codes := resp.Data.SetBookmarkArticle.ErrorCodes; len(codes) > 0 {
		return false, fmt.Errorf("reader: delete %s failed: %s", id, strings.Join(codes, ","))
	}
	return resp.Data.SetBookmarkArticle.BookmarkedArticle.ID == id, nil
}

func (c *Client) do(ctx context.Context, reqBody gqlRequest, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("X-Client", "raido")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
