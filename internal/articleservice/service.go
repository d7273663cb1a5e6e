// Package articleservice coordinates the vault, the catalog, and the
// sync engine for the API and MCP surfaces.
package articleservice

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/notemeta"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/syncer"
)

// ArticleDetail is the full representation of a synced article file.
type ArticleDetail struct {
	Path      string    `json:"path"`
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title"`
	Site      string    `json:"site"`
	State     string    `json:"state"`
	SavedAt   string    `json:"saved_at"`
	Labels    []string  `json:"labels"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleListItem is a lightweight item in a list response.
type ArticleListItem struct {
	Path      string    `json:"path"`
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title"`
	Site      string    `json:"site"`
	State     string    `json:"state"`
	SavedAt   string    `json:"saved_at"`
	Labels    []string  `json:"labels"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter narrows list results.
type ListFilter = index.ListFilter

// Service coordinates storage, catalog, and sync operations.
type Service struct {
	store storage.Provider
	db    *index.DB
	sync  *syncer.Syncer
	md    goldmark.Markdown
}

// NewService creates a new article service. sync may be nil when only
// read operations are needed.
func NewService(store storage.Provider, db *index.DB, sync *syncer.Syncer) *Service {
	return &Service{
		store: store,
		db:    db,
		sync:  sync,
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// GetArticle reads an article file from the vault. When renderHTML is
// true the Markdown body is also rendered to HTML.
func (s *Service) GetArticle(_ context.Context, path string, renderHTML bool) (*ArticleDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	meta, err := notemeta.Parse(data)
	if err != nil {
		return nil, err
	}

	detail := &ArticleDetail{
		Path:      path,
		ArticleID: meta.ArticleID,
		Title:     meta.Title,
		Site:      meta.Site,
		State:     meta.State,
		SavedAt:   meta.SavedAt,
		Labels:    nonNilSlice(meta.Labels),
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}
	if renderHTML {
		var buf bytes.Buffer
		if err := s.md.Convert([]byte(meta.Body), &buf); err != nil {
			return nil, err
		}
		detail.HTML = buf.String()
	}
	return detail, nil
}

// ListArticles returns paginated articles with optional label and state filters.
func (s *Service) ListArticles(_ context.Context, f ListFilter) ([]ArticleListItem, int, error) {
	rows, total, err := s.db.ListArticles(f)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ArticleListItem, len(rows))
	for i, r := range rows {
		items[i] = ArticleListItem{
			Path:      r.Path,
			ArticleID: r.ArticleID,
			Title:     r.Title,
			Site:      r.Site,
			State:     r.State,
			SavedAt:   r.SavedAt,
			Labels:    nonNilSlice(r.Labels),
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// FindByID resolves the vault path of an article by its remote id.
func (s *Service) FindByID(_ context.Context, articleID string) (ArticleListItem, error) {
	row, err := s.db.FindByID(articleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ArticleListItem{}, apperr.ErrNotFound
		}
		return ArticleListItem{}, err
	}
	return ArticleListItem{
		Path:      row.Path,
		ArticleID: row.ArticleID,
		Title:     row.Title,
		Site:      row.Site,
		State:     row.State,
		SavedAt:   row.SavedAt,
		Labels:    nonNilSlice(row.Labels),
		Checksum:  row.Checksum,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// TriggerSync starts a sync run in the calling goroutine and returns
// its result. ErrSyncBusy is returned when a run is already in flight.
func (s *Service) TriggerSync(ctx context.Context) error {
	if s.sync == nil {
		return errors.New("sync engine not configured")
	}
	return s.sync.Sync(ctx)
}

// SyncRunning reports whether a sync run is in flight.
func (s *Service) SyncRunning() bool {
	return s.sync != nil && s.sync.Running()
}

// DeleteArticle deletes the article on the remote service, removes the
// vault file, and drops it from the catalog.
func (s *Service) DeleteArticle(ctx context.Context, path string) error {
	if s.sync == nil {
		return errors.New("sync engine not configured")
	}
	if ok, err := s.store.Exists(path); err != nil {
		return err
	} else if !ok {
		return apperr.ErrNotFound
	}
	if err := s.sync.DeleteArticle(ctx, path); err != nil {
		return err
	}
	return s.db.DeleteArticle(path)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
