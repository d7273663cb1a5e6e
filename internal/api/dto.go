package api

import (
	"time"

	"github.com/starford/raido/internal/articleservice"
)

// ArticleDetail is the full article response type (aliased from the domain layer).
type ArticleDetail = articleservice.ArticleDetail

// ArticleListItem is a lightweight item in a list response (aliased from the domain layer).
type ArticleListItem = articleservice.ArticleListItem

// ArticleListResponse wraps paginated article listings.
type ArticleListResponse struct {
	Articles []ArticleListItem `json:"articles" validate:"required"`
	Total    int               `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"Raido/2025-03-04/article.md" validate:"required"`
	Title   string `json:"title" example:"A Study in Sync" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// SyncStatusResponse reports the state of the sync engine.
type SyncStatusResponse struct {
	Running bool `json:"running" example:"true" validate:"required"`
}

// ArticleListItemDTO mirrors ArticleListItem for swag.
type ArticleListItemDTO struct {
	Path      string    `json:"path" example:"Raido/2025-03-04/article.md"`
	ArticleID string    `json:"article_id" example:"a1b2c3"`
	Title     string    `json:"title" example:"A Study in Sync"`
	Site      string    `json:"site" example:"example.com"`
	State     string    `json:"state" example:"INBOX"`
	SavedAt   string    `json:"saved_at" example:"2025-03-04 10:20:30"`
	Labels    []string  `json:"labels" example:"go,sync"`
	Checksum  string    `json:"checksum" example:"abc123..."`
	UpdatedAt time.Time `json:"updated_at"`
}
