// Package syncer is the reconciliation engine: it pages through the
// remote library and maps every fetched article onto the minimal vault
// mutation, keeping repeated runs idempotent.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync/atomic"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/dates"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/reader"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/template"
)

// pageSize is the remote fetch batch size. Pagination is strictly
// sequential; the next page's offset is the prior offset plus this.
const pageSize = 50

// attachmentTimeout bounds one attachment download, retries included.
const attachmentTimeout = 60 * time.Second

// RemoteSource is the slice of the reader client the engine consumes.
type RemoteSource interface {
	Search(ctx context.Context, opts reader.SearchOptions) ([]models.Article, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DownloadAttachment(ctx context.Context, url string) ([]byte, error)
}

// State persists the engine's only durable values: the last successful
// sync timestamp and the transient running flag.
type State interface {
	SyncAt() string
	SetSyncAt(ts string) error
	SetSyncing(running bool) error
}

// Config carries the sync scoping settings.
type Config struct {
	Filter       reader.Filter
	CustomQuery  string
	IsSingleFile bool
}

// Syncer runs one reconciliation pass at a time.
type Syncer struct {
	remote RemoteSource
	store  storage.Provider
	render *template.Renderer
	state  State
	cfg    Config
	log    *slog.Logger
	notify func(Event)

	running atomic.Bool
}

// Option customizes a Syncer.
type Option func(*Syncer)

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Syncer) { s.log = log }
}

// WithEvents registers a callback receiving progress and change events.
func WithEvents(fn func(Event)) Option {
	return func(s *Syncer) { s.notify = fn }
}

// New builds a Syncer.
func New(remote RemoteSource, store storage.Provider, render *template.Renderer, state State, cfg Config, opts ...Option) *Syncer {
	s := &Syncer{
		remote: remote,
		store:  store,
		render: render,
		state:  state,
		cfg:    cfg,
		log:    slog.Default(),
		notify: func(Event) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Running reports whether a run is in flight.
func (s *Syncer) Running() bool {
	return s.running.Load()
}

// Sync runs one full reconciliation pass. A second concurrent call is
// rejected with apperr.ErrSyncBusy rather than queued. The persisted
// sync timestamp advances to the run's start time only when every page
// was processed; a failed run leaves it unchanged so the next run
// retries the same window.
func (s *Syncer) Sync(ctx context.Context) (err error) {
	if !s.running.CompareAndSwap(false, true) {
		return apperr.ErrSyncBusy
	}
	defer func() {
		// The flag clears on every exit path; a crash between here and
		// process death is repaired by the startup reset.
		s.running.Store(false)
		if stateErr := s.state.SetSyncing(false); stateErr != nil && err == nil {
			err = stateErr
		}
		if err != nil {
			s.notify(Event{Type: EventSyncFailed, Message: err.Error()})
		}
	}()
	if err := s.state.SetSyncing(true); err != nil {
		return fmt.Errorf("syncer: persist running flag: %w", err)
	}

	start := time.Now()
	syncAt := s.state.SyncAt()
	query := s.cfg.Filter.Query()
	if s.cfg.Filter == reader.FilterAdvanced {
		query = s.cfg.CustomQuery
	}
	includeContent := s.render.NeedsContent()

	s.notify(Event{Type: EventSyncStarted})
	s.log.Info("sync started",
		slog.String("since", syncAt),
		slog.String("query", query),
		slog.Bool("include_content", includeContent))

	synced := 0
	for after := 0; ; after += pageSize {
		articles, hasNext, err := s.remote.Search(ctx, reader.SearchOptions{
			After:          after,
			First:          pageSize,
			UpdatedSince:   syncAt,
			Query:          query,
			IncludeContent: includeContent,
			Format:         "markdown",
		})
		if err != nil {
			return fmt.Errorf("syncer: fetch page at offset %d: %w", after, err)
		}

		for i := range articles {
			a := &articles[i]
			if err := s.syncArticle(ctx, a); err != nil {
				// One bad record never blocks the rest of the run.
				s.log.Warn("article sync failed",
					slog.String("id", a.ID),
					slog.String("title", a.Title),
					slog.Any("error", err))
				continue
			}
			synced++
		}
		s.notify(Event{Type: EventSyncProgress, Synced: synced})

		if !hasNext {
			break
		}
	}

	if err := s.state.SetSyncAt(dates.FormatTimestamp(start)); err != nil {
		return fmt.Errorf("syncer: persist sync timestamp: %w", err)
	}
	s.notify(Event{Type: EventSyncFinished, Synced: synced})
	s.log.Info("sync finished", slog.Int("synced", synced))
	return nil
}

func (s *Syncer) syncArticle(ctx context.Context, a *models.Article) error {
	folder, err := s.render.RenderFolder(a)
	if err != nil {
		return err
	}
	if err := s.store.EnsureDir(folder); err != nil {
		return err
	}

	attachment := ""
	if a.PageType == models.PageTypeFile && s.render.NeedsAttachment() {
		attachment, err = s.fetchAttachment(ctx, a)
		if err != nil {
			// The article still syncs, just without its attachment.
			s.log.Warn("attachment download failed",
				slog.String("id", a.ID),
				slog.Any("error", err))
			attachment = ""
		}
	}

	rendered, err := s.render.RenderContent(a, attachment)
	if err != nil {
		return err
	}
	if rendered.FrontMatter == nil || rendered.FrontMatter.ID() == "" {
		return fmt.Errorf("syncer: article %s: %w", a.ID, apperr.ErrBadFrontMatter)
	}
	name, err := s.render.RenderFilename(a)
	if err != nil {
		return err
	}
	target := path.Join(folder, name+".md")

	if s.cfg.IsSingleFile {
		return s.reconcileSingleFile(target, a.ID, rendered)
	}
	return s.reconcileSeparate(target, a.ID, []byte(rendered.Content))
}

// fetchAttachment downloads the article's file attachment into the
// attachment folder. The path is deterministic, so an already-present
// file short-circuits the download.
func (s *Syncer) fetchAttachment(ctx context.Context, a *models.Article) (string, error) {
	folder, err := s.render.RenderAttachmentFolder(a)
	if err != nil {
		return "", err
	}
	target := path.Join(folder, a.ID+".pdf")

	exists, err := s.store.Exists(target)
	if err != nil {
		return "", err
	}
	if exists {
		return target, nil
	}

	dctx, cancel := context.WithTimeout(ctx, attachmentTimeout)
	defer cancel()
	data, err := s.remote.DownloadAttachment(dctx, a.URL)
	if err != nil {
		return "", err
	}
	if err := s.store.EnsureDir(folder); err != nil {
		return "", err
	}
	if err := s.store.Write(target, data); err != nil {
		return "", err
	}
	return target, nil
}

// DeleteArticle removes a synced article everywhere: from the remote
// library, then from the vault. The file's front matter id identifies
// the remote record.
func (s *Syncer) DeleteArticle(ctx context.Context, filePath string) error {
	data, err := s.store.Read(filePath)
	if err != nil {
		return err
	}
	value, _, err := frontMatterOf(data)
	if err != nil {
		return fmt.Errorf("syncer: delete %s: %w", filePath, err)
	}
	if value == nil || len(value.Records) == 0 || value.Records[0].ID() == "" {
		return fmt.Errorf("syncer: delete %s: no article id in front matter: %w", filePath, apperr.ErrBadFrontMatter)
	}
	id := value.Records[0].ID()

	if _, err := s.remote.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(filePath); err != nil {
		return err
	}
	s.notify(Event{Type: EventArticleDeleted, ArticleID: id, Path: filePath})
	return nil
}
