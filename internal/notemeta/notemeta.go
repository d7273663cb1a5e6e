// Package notemeta reads the identifying metadata out of a synced vault
// file: the article id and descriptive fields from its front matter,
// plus the Markdown body for indexing.
package notemeta

import (
	"strings"

	"github.com/starford/raido/internal/frontmatter"
)

// Meta is what the index stores about one vault file. A single-file
// aggregate carries many articles; its Meta reflects the first (newest)
// front matter record, and ArticleIDs lists every id in the file.
type Meta struct {
	ArticleID  string
	ArticleIDs []string
	Title      string
	Site       string
	State      string
	SavedAt    string
	Labels     []string
	Body       string
}

// Parse extracts metadata from raw Markdown bytes. Files without front
// matter, or with malformed front matter, still index by body; the
// metadata fields stay empty.
func Parse(data []byte) (*Meta, error) {
	value, body, err := frontmatter.Extract(string(data))
	if err != nil || value == nil || len(value.Records) == 0 {
		return &Meta{
			Title: titleFromBody(string(data)),
			Body:  string(data),
		}, nil
	}

	first := value.Records[0]
	meta := &Meta{
		ArticleID: first.ID(),
		Title:     stringField(first, "title"),
		Site:      stringField(first, "site", "site_name", "siteName"),
		State:     stringField(first, "state"),
		SavedAt:   stringField(first, "date_saved", "dateSaved", "saved_at"),
		Labels:    labelField(first),
		Body:      body,
	}
	for _, rec := range value.Records {
		if id := rec.ID(); id != "" {
			meta.ArticleIDs = append(meta.ArticleIDs, id)
		}
	}
	if meta.Title == "" {
		meta.Title = titleFromBody(body)
	}
	return meta, nil
}

// stringField returns the first non-empty string among the given keys.
func stringField(rec *frontmatter.Record, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec.Get(k); ok {
			if s, isStr := v.(string); isStr && s != "" {
				return s
			}
		}
	}
	return ""
}

// labelField reads the labels list, accepting both the "tags" and
// "labels" key and both string and {name: x} entry shapes.
func labelField(rec *frontmatter.Record) []string {
	var raw any
	for _, k := range []string{"tags", "labels"} {
		if v, ok := rec.Get(k); ok {
			raw = v
			break
		}
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, v)
			}
		case *frontmatter.Record:
			if name, ok := v.Get("name"); ok {
				if s, isStr := name.(string); isStr && s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// titleFromBody falls back to the first H1 heading.
func titleFromBody(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
