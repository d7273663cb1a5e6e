package template

import (
	"strings"
	"testing"

	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/highlights"
	"github.com/starford/raido/internal/models"
)

func intp(v int) *int { return &v }

func testArticle() *models.Article {
	return &models.Article{
		ID:          "art-1",
		Title:       "A Study in Sync",
		URL:         "https://reader.example/me/a-study-in-sync",
		OriginalURL: "https://www.example.com/posts/sync",
		Author:      "Ada",
		Labels:      []models.Label{{Name: "deep dive"}, {Name: "go"}},
		SavedAt:     "2025-03-04T10:20:30Z",
		PublishedAt: "2025-02-01T08:00:00Z",
		PageType:    models.PageTypeArticle,
		WordsCount:  intp(940),
		Highlights: []models.Highlight{
			{
				ID:        "h1",
				Quote:     "first insight",
				UpdatedAt: "2025-03-04T11:00:00Z",
				Type:      models.HighlightTypeHighlight,
			},
			{
				ID:         "n1",
				Annotation: "overall note",
				Type:       models.HighlightTypeNote,
			},
		},
	}
}

func baseConfig() Config {
	return Config{
		Template:              DefaultTemplate,
		HighlightOrder:        highlights.OrderLocation,
		DateSavedFormat:       "yyyy-MM-dd",
		DateHighlightedFormat: "yyyy-MM-dd HH:mm",
		FolderDateFormat:      "yyyy-MM-dd",
		FilenameDateFormat:    "yyyy-MM-dd",
		Folder:                "Raido/{{{date}}}",
		Filename:              "{{{title}}}",
		AttachmentFolder:      "Raido/attachments",
	}
}

func mustRenderer(t *testing.T, cfg Config) *Renderer {
	t.Helper()
	r, err := NewRenderer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRenderContentDefaultTemplate(t *testing.T) {
	r := mustRenderer(t, baseConfig())
	out, err := r.RenderContent(testArticle(), "")
	if err != nil {
		t.Fatal(err)
	}
	if out.FrontMatter.ID() != "art-1" {
		t.Fatalf("front matter id = %q", out.FrontMatter.ID())
	}
	if !strings.HasPrefix(out.Content, "---\nid: art-1\n") {
		t.Fatalf("content does not open with front matter:\n%s", out.Content)
	}
	if !strings.Contains(out.Body, "# A Study in Sync") {
		t.Fatalf("title missing from body:\n%s", out.Body)
	}
	if !strings.Contains(out.Body, "> first insight") {
		t.Fatalf("highlight missing from body:\n%s", out.Body)
	}
	if strings.Contains(out.Body, "overall note") {
		t.Fatalf("article note leaked into the highlight list:\n%s", out.Body)
	}
}

func TestRenderContentDeterministic(t *testing.T) {
	r := mustRenderer(t, baseConfig())
	a := testArticle()
	first, err := r.RenderContent(a, "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.RenderContent(a, "")
	if err != nil {
		t.Fatal(err)
	}
	if first.Content != second.Content {
		t.Fatalf("re-render differs:\n%s\nvs\n%s", first.Content, second.Content)
	}
}

func TestFrontMatterVariables(t *testing.T) {
	cfg := baseConfig()
	cfg.FrontMatterVariables = []string{"title", "author", "tags", "date_saved", "site_name::site", "date_read"}
	r := mustRenderer(t, cfg)
	out, err := r.RenderContent(testArticle(), "")
	if err != nil {
		t.Fatal(err)
	}

	keys := out.FrontMatter.Keys()
	if keys[0] != "id" {
		t.Fatalf("id is not the first key: %v", keys)
	}
	if title, _ := out.FrontMatter.Get("title"); title != "A Study in Sync" {
		t.Fatalf("title = %v", title)
	}
	if site, _ := out.FrontMatter.Get("site"); site != "example.com" {
		t.Fatalf("aliased site = %v", site)
	}
	tags, _ := out.FrontMatter.Get("tags")
	names, ok := tags.([]string)
	if !ok || len(names) != 2 || names[0] != "deep_dive" {
		t.Fatalf("tags = %#v", tags)
	}
	if _, ok := out.FrontMatter.Get("date_read"); ok {
		t.Fatal("empty date_read should be skipped")
	}
}

func TestFrontMatterTemplate(t *testing.T) {
	cfg := baseConfig()
	cfg.FrontMatterTemplate = "source: raido\npublished: {{{datePublished}}}\n"
	r := mustRenderer(t, cfg)
	out, err := r.RenderContent(testArticle(), "")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := out.FrontMatter.Get("source"); v != "raido" {
		t.Fatalf("source = %v", v)
	}
	if v, _ := out.FrontMatter.Get("published"); v != "2025-02-01" {
		t.Fatalf("published = %v", v)
	}
}

func TestFrontMatterTemplateInvalidYAMLDegrades(t *testing.T) {
	cfg := baseConfig()
	cfg.FrontMatterTemplate = "just a scalar, not a mapping"
	r := mustRenderer(t, cfg)
	out, err := r.RenderContent(testArticle(), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.FrontMatter.Get("error"); !ok {
		t.Fatalf("expected an error marker field, keys = %v", out.FrontMatter.Keys())
	}
	if out.FrontMatter.ID() != "art-1" {
		t.Fatal("id must survive a bad front matter template")
	}
}

func TestTemplateEmittedFrontMatterMerged(t *testing.T) {
	cfg := baseConfig()
	cfg.Template = "---\naliases: [saved]\ntitle: shadowed\n---\n\nbody of {{{title}}}\n"
	cfg.FrontMatterVariables = []string{"title"}
	r := mustRenderer(t, cfg)
	out, err := r.RenderContent(testArticle(), "")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := out.FrontMatter.Get("title"); v != "A Study in Sync" {
		t.Fatalf("configured variable should win over template block, title = %v", v)
	}
	if _, ok := out.FrontMatter.Get("aliases"); !ok {
		t.Fatal("template block keys should merge in")
	}
	if strings.Contains(out.Body, "---") {
		t.Fatalf("front matter block left in body:\n%s", out.Body)
	}
	if !strings.Contains(out.Body, "body of A Study in Sync") {
		t.Fatalf("body = %q", out.Body)
	}
}

func TestSingleFileWrapsBodyInSentinels(t *testing.T) {
	cfg := baseConfig()
	cfg.IsSingleFile = true
	r := mustRenderer(t, cfg)
	out, err := r.RenderContent(testArticle(), "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.Body, "%%art-1_start%%\n") {
		t.Fatalf("missing start sentinel:\n%s", out.Body)
	}
	if !strings.HasSuffix(out.Body, "\n%%art-1_end%%") {
		t.Fatalf("missing end sentinel:\n%s", out.Body)
	}
	if !strings.HasPrefix(out.Content, "---\n- id: art-1\n") {
		t.Fatalf("front matter should be a sequence:\n%s", out.Content)
	}
}

func TestBlockquoteContinuation(t *testing.T) {
	cfg := baseConfig()
	r := mustRenderer(t, cfg)
	a := testArticle()
	a.Highlights[0].Quote = "a\nb"
	out, err := r.RenderContent(a, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Body, "> a\n> b") {
		t.Fatalf("wrapped quote lines missing continuation prefix:\n%s", out.Body)
	}
}

func TestQuoteUntouchedWithoutBlockquote(t *testing.T) {
	cfg := baseConfig()
	cfg.Template = "{{#highlights}}{{{text}}}{{/highlights}}"
	r := mustRenderer(t, cfg)
	a := testArticle()
	a.Highlights[0].Quote = "a\nb"
	out, err := r.RenderContent(a, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Body, "a\nb") || strings.Contains(out.Body, "> ") {
		t.Fatalf("quote should pass through untouched:\n%s", out.Body)
	}
}

func TestTransforms(t *testing.T) {
	cfg := baseConfig()
	cfg.Template = "{{#upperCase}}{{{siteName}}}{{/upperCase}} " +
		"{{#lowerCase}}{{{title}}}{{/lowerCase}} " +
		"{{#upperCaseFirst}}{{{author}}}{{/upperCaseFirst}} " +
		"{{#formatDate}}{{{datePublished}}}, yyyy{{/formatDate}}"
	cfg.DateSavedFormat = "yyyy-MM-dd"
	r := mustRenderer(t, cfg)
	out, err := r.RenderContent(testArticle(), "")
	if err != nil {
		t.Fatal(err)
	}
	want := "EXAMPLE.COM a study in sync Ada 2025"
	if strings.TrimSpace(out.Body) != want {
		t.Fatalf("body = %q, want %q", strings.TrimSpace(out.Body), want)
	}
}

func TestViewFallbacks(t *testing.T) {
	cfg := baseConfig()
	cfg.Template = "{{{author}}} | {{{siteName}}} | {{{state}}} | {{{readLength}}}"
	r := mustRenderer(t, cfg)
	a := testArticle()
	a.Author = ""
	a.SiteName = ""
	a.WordsCount = intp(3000)
	out, err := r.RenderContent(a, "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.Body) != "unknown | example.com | INBOX | 13" {
		t.Fatalf("body = %q", strings.TrimSpace(out.Body))
	}
}

func TestRenderFilenameTruncatesAndSanitizes(t *testing.T) {
	r := mustRenderer(t, baseConfig())
	a := testArticle()
	a.Title = "what: a/b " + strings.Repeat("x", 120)
	name, err := r.RenderFilename(a)
	if err != nil {
		t.Fatal(err)
	}
	if len([]rune(name)) > 100 {
		t.Fatalf("filename too long: %d runes", len([]rune(name)))
	}
	if strings.ContainsAny(name, `<>:"/\|?*`) {
		t.Fatalf("filename has illegal characters: %q", name)
	}
	if !strings.HasPrefix(name, "what- a-b ") {
		t.Fatalf("name = %q", name)
	}
}

func TestRenderFolderKeepsSeparators(t *testing.T) {
	r := mustRenderer(t, baseConfig())
	folder, err := r.RenderFolder(testArticle())
	if err != nil {
		t.Fatal(err)
	}
	if folder != "Raido/2025-03-04" {
		t.Fatalf("folder = %q", folder)
	}
}

func TestNeedsContentAndAttachment(t *testing.T) {
	cfg := baseConfig()
	if mustRenderer(t, cfg).NeedsContent() {
		t.Fatal("default template does not reference content")
	}
	cfg.Template = "{{{content}}}"
	if !mustRenderer(t, cfg).NeedsContent() {
		t.Fatal("content reference not detected")
	}
	cfg.Template = "[pdf]({{{fileAttachment}}})"
	r := mustRenderer(t, cfg)
	if !r.NeedsAttachment() {
		t.Fatal("attachment reference not detected")
	}
	if r.NeedsContent() {
		t.Fatal("attachment template does not reference content")
	}
}

func TestNewRendererRejectsBrokenTemplate(t *testing.T) {
	cfg := baseConfig()
	cfg.Template = "{{#highlights}} unclosed section"
	if _, err := NewRenderer(cfg); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestFrontMatterSerializedOrderStable(t *testing.T) {
	cfg := baseConfig()
	cfg.FrontMatterVariables = []string{"title", "author", "date_saved"}
	r := mustRenderer(t, cfg)
	out, err := r.RenderContent(testArticle(), "")
	if err != nil {
		t.Fatal(err)
	}
	v, _, err := frontmatter.Extract(out.Content)
	if err != nil {
		t.Fatal(err)
	}
	keys := v.Records[0].Keys()
	want := []string{"id", "title", "author", "date_saved"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want prefix %v", keys, want)
		}
	}
}
