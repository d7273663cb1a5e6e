package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/articleservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *articleservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *articleservice.Service) *Handler {
	return &Handler{svc: svc}
}

// articlePath extracts the article path from the URL (everything after /api/articles/).
// Supports encoded slashes from OpenAPI clients (e.g. Raido%2Farticle.md).
func articlePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListArticles handles GET /api/articles.
//
//	@Summary		List synced articles with optional pagination and filtering
//	@Tags			articles
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			label	query		string	false	"Filter by label"
//	@Param			state	query		string	false	"Filter by state"	Enums(INBOX, READING, COMPLETED, ARCHIVED)
//	@Success		200		{object}	ArticleListResponse
//	@Security		BearerAuth
//	@Router			/articles [get]
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListArticles(r.Context(), articleservice.ListFilter{
		Label:  q.Get("label"),
		State:  q.Get("state"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.Error("list articles failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"articles": items,
		"total":    total,
	})
}

// GetArticle handles GET /api/articles/*.
//
//	@Summary		Get a single article by vault path
//	@Tags			articles
//	@Produce		json
//	@Param			path	path		string	true	"Article path"
//	@Param			format	query		string	false	"Body format"	Enums(markdown, html)
//	@Success		200		{object}	ArticleDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{path} [get]
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	path := articlePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	renderHTML := r.URL.Query().Get("format") == "html"
	article, err := h.svc.GetArticle(r.Context(), path, renderHTML)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get article failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// DeleteArticle handles DELETE /api/articles/*.
//
// The article is deleted on the remote service first; the vault file
// and catalog entry are only removed after that succeeds.
//
//	@Summary		Delete an article remotely and locally
//	@Tags			articles
//	@Param			path	path	string	true	"Article path"
//	@Success		204		"Article deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles/{path} [delete]
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	path := articlePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteArticle(r.Context(), path); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete article failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across synced articles
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// TriggerSync handles POST /api/sync.
//
// The run executes in the background; progress is reported on the SSE
// stream. A run already in flight yields 409.
//
//	@Summary		Trigger a sync run
//	@Tags			sync
//	@Produce		json
//	@Success		202	{object}	SyncStatusResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.svc.SyncRunning() {
		writeJSON(w, http.StatusConflict, errorBody("sync already in progress"))
		return
	}
	go func() {
		if err := h.svc.TriggerSync(context.Background()); err != nil {
			if errors.Is(err, apperr.ErrSyncBusy) {
				return
			}
			slog.Error("sync run failed", slog.String("error", err.Error()))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]any{"running": true})
}

// SyncStatus handles GET /api/sync.
//
//	@Summary		Report whether a sync run is in flight
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncStatusResponse
//	@Security		BearerAuth
//	@Router			/sync [get]
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.svc.SyncRunning()})
}
