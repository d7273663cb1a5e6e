package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/raido/internal/articleservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot is used to resolve the attachment directory.
func NewRouter(svc *articleservice.Service, authEnabled bool, token string, sseHandler http.Handler, vaultRoot, attachmentFolder string) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(vaultRoot, attachmentFolder)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Articles.
	r.Get("/articles", h.ListArticles)
	r.Get("/articles/*", h.GetArticle)
	r.Delete("/articles/*", h.DeleteArticle)

	// Search.
	r.Get("/search", h.Search)

	// Sync.
	r.Post("/sync", h.TriggerSync)
	r.Get("/sync", h.SyncStatus)

	// Downloaded attachments (auth-protected).
	r.Get("/attachments/{filename}", ah.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
