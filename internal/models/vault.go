package models

import "time"

// FileMeta is a lightweight representation returned by vault list
// operations.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VaultArticle is a synced article as it exists in the vault: the file
// plus the identifying metadata read from its front matter.
type VaultArticle struct {
	Path      string    `json:"path"`
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title,omitempty"`
	Site      string    `json:"site,omitempty"`
	State     string    `json:"state,omitempty"`
	SavedAt   string    `json:"saved_at,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
	Body      string    `json:"body,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
