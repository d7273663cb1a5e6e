package mcpserver

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/articleservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/reader"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/syncer"
	"github.com/starford/raido/internal/template"
)

type stubRemote struct {
	deleted []string
}

func (r *stubRemote) Search(context.Context, reader.SearchOptions) ([]models.Article, bool, error) {
	return nil, false, nil
}

func (r *stubRemote) Delete(_ context.Context, id string) (bool, error) {
	r.deleted = append(r.deleted, id)
	return true, nil
}

func (r *stubRemote) DownloadAttachment(context.Context, string) ([]byte, error) {
	return nil, nil
}

type stubState struct {
	syncAt string
}

func (s *stubState) SyncAt() string            { return s.syncAt }
func (s *stubState) SetSyncAt(ts string) error { s.syncAt = ts; return nil }
func (s *stubState) SetSyncing(bool) error     { return nil }

func testServer(t *testing.T) (*Server, storage.Provider, *index.DB, *stubRemote) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "raido-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	render, err := template.NewRenderer(template.Config{
		Template: "# {{{title}}}\n",
		Folder:   "Raido",
		Filename: "{{{title}}}",
	})
	if err != nil {
		t.Fatal(err)
	}

	remote := &stubRemote{}
	sync := syncer.New(remote, store, render, &stubState{}, syncer.Config{Filter: reader.FilterAll})
	svc := articleservice.NewService(store, db, sync)

	return New(svc), store, db, remote
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_library":
		result, err = srv.searchLibrary(ctx, req)
	case "read_article":
		result, err = srv.readArticle(ctx, req)
	case "list_articles":
		result, err = srv.listArticles(ctx, req)
	case "sync_library":
		result, err = srv.syncLibrary(ctx, req)
	case "delete_article":
		result, err = srv.deleteArticle(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadArticle(t *testing.T) {
	srv, store, _, _ := testServer(t)
	content := "---\nid: a1\ntitle: Reading\n---\n\n# Reading\n"
	_ = store.Write("Raido/read.md", []byte(content))

	r := callTool(t, srv, "read_article", map[string]interface{}{"path": "Raido/read.md"})
	if resultText(r) != content {
		t.Errorf("read result = %q", resultText(r))
	}
}

func TestReadArticleMissing(t *testing.T) {
	srv, _, _, _ := testServer(t)
	r := callTool(t, srv, "read_article", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing article")
	}
}

func TestListArticles(t *testing.T) {
	srv, _, db, _ := testServer(t)
	_ = db.UpsertArticle(index.ArticleRow{
		Path: "Raido/a.md", ArticleID: "a1", Title: "First", State: "INBOX", UpdatedAt: time.Now(),
	}, "")
	_ = db.UpsertArticle(index.ArticleRow{
		Path: "Raido/b.md", ArticleID: "a2", Title: "Second", State: "ARCHIVED", UpdatedAt: time.Now(),
	}, "")

	r := callTool(t, srv, "list_articles", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"total": 2`) {
		t.Errorf("list result = %q", text)
	}

	r = callTool(t, srv, "list_articles", map[string]interface{}{"state": "ARCHIVED"})
	text = resultText(r)
	if !strings.Contains(text, `"total": 1`) || !strings.Contains(text, "Second") {
		t.Errorf("filtered list = %q", text)
	}
}

func TestSearchLibrary(t *testing.T) {
	srv, _, db, _ := testServer(t)
	_ = db.UpsertArticle(index.ArticleRow{
		Path: "Raido/s.md", ArticleID: "s1", Title: "Search Target", UpdatedAt: time.Now(),
	}, "rarephrase appears here")

	r := callTool(t, srv, "search_library", map[string]interface{}{"query": "rarephrase"})
	if !strings.Contains(resultText(r), "Raido/s.md") {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestSyncLibrary(t *testing.T) {
	srv, _, _, _ := testServer(t)
	r := callTool(t, srv, "sync_library", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("sync error: %q", resultText(r))
	}
	if resultText(r) != "sync finished" {
		t.Errorf("sync result = %q", resultText(r))
	}
}

func TestDeleteArticle(t *testing.T) {
	srv, store, db, remote := testServer(t)
	content := "---\nid: gone-7\ntitle: Bye\n---\n\n# Bye\n"
	_ = store.Write("Raido/bye.md", []byte(content))
	_ = db.UpsertArticle(index.ArticleRow{
		Path: "Raido/bye.md", ArticleID: "gone-7", Title: "Bye", UpdatedAt: time.Now(),
	}, "")

	r := callTool(t, srv, "delete_article", map[string]interface{}{"path": "Raido/bye.md"})
	if r.IsError {
		t.Fatalf("delete error: %q", resultText(r))
	}
	if len(remote.deleted) != 1 || remote.deleted[0] != "gone-7" {
		t.Errorf("remote deletions = %v", remote.deleted)
	}
	if ok, _ := store.Exists("Raido/bye.md"); ok {
		t.Error("vault file should be removed")
	}
}
