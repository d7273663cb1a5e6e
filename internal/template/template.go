// Package template renders fetched articles into Markdown through
// user-configurable Mustache templates. It owns the article view, the
// named transform helpers available inside templates, front matter
// assembly, and the filename/folder path templates.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cbroglie/mustache"

	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/highlights"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/sanitize"
)

// DefaultTemplate is the article template used when the settings file
// does not override it.
const DefaultTemplate = `# {{{title}}}
#Raido

[Read Original]({{{originalUrl}}})

{{#hasHighlights}}
## Highlights

{{#highlights}}
> {{{text}}} [link]({{{link}}}){{#hasLabels}} {{#labels}}#{{{name}}} {{/labels}}{{/hasLabels}}
{{#note}}

{{{note}}}
{{/note}}

{{/highlights}}
{{/hasHighlights}}`

// maxNameLen bounds rendered file and folder names to stay inside
// common filesystem limits.
const maxNameLen = 100

// Config carries the rendering settings for one vault.
type Config struct {
	Template             string
	FrontMatterTemplate  string
	FrontMatterVariables []string
	HighlightOrder       highlights.Order

	DateSavedFormat       string
	DateHighlightedFormat string
	FolderDateFormat      string
	FilenameDateFormat    string

	Folder           string
	Filename         string
	AttachmentFolder string

	IsSingleFile bool
}

// Rendered is the output of rendering one article.
type Rendered struct {
	// FrontMatter always carries the article id as its first key.
	FrontMatter *frontmatter.Record
	// Body is the Markdown below the front matter block. In single-file
	// mode it is wrapped in %%{id}_start%% / %%{id}_end%% sentinels.
	Body string
	// Content is the complete file payload: serialized front matter,
	// a blank line, then Body.
	Content string
}

// Renderer expands templates for one configuration.
type Renderer struct {
	cfg Config
	// blockquoted is true when the template opens the highlight list
	// with a "> " blockquote, in which case multi-line quotes get a
	// continuation prefix on wrapped lines.
	blockquoted bool
}

var blockquoteRe = regexp.MustCompile(`(?m)\{\{#highlights\}\}\n*>`)

var (
	contentVarRe    = regexp.MustCompile(`\{\{\{?\s*content\s*\}?\}\}`)
	attachmentVarRe = regexp.MustCompile(`\{\{\{?\s*fileAttachment\s*\}?\}\}`)
)

// NewRenderer validates the configured templates and returns a renderer.
func NewRenderer(cfg Config) (*Renderer, error) {
	if cfg.Template == "" {
		cfg.Template = DefaultTemplate
	}
	for name, tpl := range map[string]string{
		"template":          cfg.Template,
		"frontMatter":       cfg.FrontMatterTemplate,
		"folder":            cfg.Folder,
		"filename":          cfg.Filename,
		"attachment folder": cfg.AttachmentFolder,
	} {
		if tpl == "" {
			continue
		}
		if _, err := mustache.ParseString(stripTransforms(tpl)); err != nil {
			return nil, fmt.Errorf("template: parse %s template: %w", name, err)
		}
	}
	return &Renderer{
		cfg:         cfg,
		blockquoted: blockquoteRe.MatchString(cfg.Template),
	}, nil
}

// NeedsContent reports whether any configured template references the
// article body, so the sync run can skip requesting it otherwise.
func (r *Renderer) NeedsContent() bool {
	return contentVarRe.MatchString(r.cfg.Template) ||
		contentVarRe.MatchString(r.cfg.FrontMatterTemplate)
}

// NeedsAttachment reports whether the template references the downloaded
// attachment path.
func (r *Renderer) NeedsAttachment() bool {
	return attachmentVarRe.MatchString(r.cfg.Template) ||
		attachmentVarRe.MatchString(r.cfg.FrontMatterTemplate)
}

// RenderContent renders one article into its complete file payload.
// fileAttachment is the vault-relative path of a downloaded attachment,
// or "" when the article has none.
func (r *Renderer) RenderContent(a *models.Article, fileAttachment string) (*Rendered, error) {
	view := r.buildView(a, fileAttachment)

	out, err := r.render(r.cfg.Template, view)
	if err != nil {
		return nil, fmt.Errorf("template: render article %s: %w", a.ID, err)
	}

	// A template may emit its own front matter block; fold its keys in
	// below the configured ones. A malformed block is dropped rather
	// than failing the article.
	legacy, body, extractErr := frontmatter.Extract(out)

	rec := frontmatter.NewRecord()
	rec.Set("id", a.ID)
	r.applyFrontMatterVariables(rec, a, view)
	if err := r.applyFrontMatterTemplate(rec, view); err != nil {
		rec.Set("error", "front matter template is not valid YAML")
	}
	if extractErr == nil && legacy != nil && !legacy.Sequence {
		mergeAbsent(rec, legacy.Records[0])
	}

	var value *frontmatter.Value
	if r.cfg.IsSingleFile {
		body = fmt.Sprintf("%%%%%s_start%%%%\n%s\n%%%%%s_end%%%%", a.ID, body, a.ID)
		value = frontmatter.SequenceOf(rec)
	} else {
		value = frontmatter.Single(rec)
	}
	block, err := frontmatter.Serialize(value)
	if err != nil {
		return nil, fmt.Errorf("template: serialize front matter for %s: %w", a.ID, err)
	}

	return &Rendered{
		FrontMatter: rec,
		Body:        body,
		Content:     block + "\n\n" + body,
	}, nil
}

// RenderFilename renders the filename template into a sanitized file
// name stem, without extension.
func (r *Renderer) RenderFilename(a *models.Article) (string, error) {
	out, err := r.render(r.cfg.Filename, r.pathView(a, r.cfg.FilenameDateFormat))
	if err != nil {
		return "", fmt.Errorf("template: render filename for %s: %w", a.ID, err)
	}
	return sanitize.FileName(truncate(out, maxNameLen)), nil
}

// RenderFolder renders the folder template into a sanitized
// vault-relative folder path.
func (r *Renderer) RenderFolder(a *models.Article) (string, error) {
	out, err := r.render(r.cfg.Folder, r.pathView(a, r.cfg.FolderDateFormat))
	if err != nil {
		return "", fmt.Errorf("template: render folder for %s: %w", a.ID, err)
	}
	return sanitize.FolderPath(truncate(out, maxNameLen)), nil
}

// RenderAttachmentFolder renders the attachment folder template.
func (r *Renderer) RenderAttachmentFolder(a *models.Article) (string, error) {
	out, err := r.render(r.cfg.AttachmentFolder, r.pathView(a, r.cfg.FolderDateFormat))
	if err != nil {
		return "", fmt.Errorf("template: render attachment folder for %s: %w", a.ID, err)
	}
	return sanitize.FolderPath(truncate(out, maxNameLen)), nil
}

// applyFrontMatterTemplate renders the optional front matter template
// and folds its mapping into rec without displacing configured keys.
func (r *Renderer) applyFrontMatterTemplate(rec *frontmatter.Record, view map[string]any) error {
	if r.cfg.FrontMatterTemplate == "" {
		return nil
	}
	out, err := r.render(r.cfg.FrontMatterTemplate, view)
	if err != nil {
		return err
	}
	parsed := frontmatter.NewRecord()
	if err := yamlDecode(out, parsed); err != nil {
		return err
	}
	mergeAbsent(rec, parsed)
	return nil
}

func mergeAbsent(dst, src *frontmatter.Record) {
	for _, k := range src.Keys() {
		if _, ok := dst.Get(k); ok {
			continue
		}
		v, _ := src.Get(k)
		dst.Set(k, v)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimRight(string(runes[:n]), " ")
}
