package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// AttachmentHandler serves attachment files downloaded by the sync
// engine (PDFs saved alongside file-type articles).
type AttachmentHandler struct {
	vaultRoot string
	folder    string
}

// NewAttachmentHandler creates a handler rooted at the vault's
// attachment directory.
func NewAttachmentHandler(vaultRoot, folder string) *AttachmentHandler {
	if folder == "" {
		folder = "attachments"
	}
	return &AttachmentHandler{vaultRoot: vaultRoot, folder: folder}
}

// attachPath returns the absolute path to the attachment directory.
func (h *AttachmentHandler) attachPath() string {
	return filepath.Join(h.vaultRoot, filepath.FromSlash(h.folder))
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the attachment dir.
func (h *AttachmentHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	// Reject anything with path separators or traversal.
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.attachPath(), cleaned)
	// Double-check the resolved path is under the attachment dir.
	if !strings.HasPrefix(abs, h.attachPath()+string(os.PathSeparator)) && abs != h.attachPath() {
		return "", fmt.Errorf("path escapes attachment directory")
	}
	return abs, nil
}

// ServeFile handles GET /api/attachments/{filename}.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
