package template

import (
	"math"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/dates"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/highlights"
	"github.com/starford/raido/internal/models"
)

// wordsPerMinute is the reading speed assumed for the readLength field.
const wordsPerMinute = 235

// buildView assembles the Mustache context for one article. Empty
// optional fields are omitted so their sections stay falsy.
func (r *Renderer) buildView(a *models.Article, fileAttachment string) map[string]any {
	hs := highlights.Filter(a.Highlights)
	highlights.Sort(hs, r.cfg.HighlightOrder, a.PageType)

	hviews := make([]map[string]any, 0, len(hs))
	for _, h := range hs {
		hv := map[string]any{
			"text":            r.quote(h.Quote),
			"link":            a.URL + "#" + h.ID,
			"dateHighlighted": r.fmtDate(h.UpdatedAt, r.cfg.DateHighlightedFormat),
			"labels":          labelViews(h.Labels),
			"labelCount":      len(h.Labels),
			"hasLabels":       len(h.Labels) > 0,
		}
		if h.Annotation != "" {
			hv["note"] = h.Annotation
		}
		if h.Color != "" {
			hv["color"] = h.Color
		}
		hviews = append(hviews, hv)
	}

	author := a.Author
	if author == "" {
		author = "unknown"
	}
	siteName := a.SiteName
	if siteName == "" {
		siteName = siteNameFromURL(a.OriginalURL)
	}

	view := map[string]any{
		"id":             a.ID,
		"title":          a.Title,
		"link":           a.URL,
		"siteName":       siteName,
		"originalUrl":    a.OriginalURL,
		"author":         author,
		"labels":         labelViews(a.Labels),
		"labelCount":     len(a.Labels),
		"hasLabels":      len(a.Labels) > 0,
		"dateSaved":      r.fmtDate(a.SavedAt, r.cfg.DateSavedFormat),
		"highlights":     hviews,
		"highlightCount": len(hviews),
		"hasHighlights":  len(hviews) > 0,
		"type":           string(a.PageType),
		"state":          string(models.StateOf(a)),
	}

	setIfPresent(view, "content", a.Content)
	setIfPresent(view, "datePublished", r.fmtDate(a.PublishedAt, r.cfg.DateSavedFormat))
	setIfPresent(view, "dateRead", r.fmtDate(a.ReadAt, r.cfg.DateSavedFormat))
	setIfPresent(view, "dateArchived", r.fmtDate(a.ArchivedAt, r.cfg.DateSavedFormat))
	setIfPresent(view, "description", a.Description)
	setIfPresent(view, "image", a.Image)
	setIfPresent(view, "fileAttachment", fileAttachment)

	if a.WordsCount != nil {
		words := *a.WordsCount
		view["wordsCount"] = words
		if words > 0 {
			view["readLength"] = int(math.Round(math.Max(1, float64(words)/wordsPerMinute)))
		}
	}
	return view
}

// pathView is the reduced context used for filename and folder templates.
func (r *Renderer) pathView(a *models.Article, dateFormat string) map[string]any {
	author := a.Author
	if author == "" {
		author = "unknown"
	}
	siteName := a.SiteName
	if siteName == "" {
		siteName = siteNameFromURL(a.OriginalURL)
	}
	return map[string]any{
		"id":       a.ID,
		"title":    a.Title,
		"author":   author,
		"siteName": siteName,
		"state":    string(models.StateOf(a)),
		"date":     r.fmtDate(a.SavedAt, dateFormat),
	}
}

// applyFrontMatterVariables writes the configured variables into rec.
// Each entry names a snake_case view field, optionally renamed with a
// "name::alias" suffix. "tags" maps the label names. Empty values are
// skipped so optional fields never emit blank keys.
func (r *Renderer) applyFrontMatterVariables(rec *frontmatter.Record, a *models.Article, view map[string]any) {
	for _, item := range r.cfg.FrontMatterVariables {
		name, alias, ok := strings.Cut(item, "::")
		if !ok {
			alias = name
		}
		if name == "id" {
			continue
		}
		if name == "tags" || name == "labels" {
			if len(a.Labels) == 0 {
				continue
			}
			names := make([]string, len(a.Labels))
			for i, l := range a.Labels {
				names[i] = strings.ReplaceAll(l.Name, " ", "_")
			}
			rec.Set(alias, names)
			continue
		}
		v, ok := view[snakeToCamel(name)]
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		rec.Set(alias, v)
	}
}

// quote formats a highlight quote for the template. When the template
// renders highlights as a blockquote, wrapped lines get a continuation
// "> " prefix and escaped '>' characters are restored.
func (r *Renderer) quote(q string) string {
	if !r.blockquoted {
		return q
	}
	q = strings.ReplaceAll(q, "&gt;", ">")
	return strings.ReplaceAll(q, "\n", "\n> ")
}

func (r *Renderer) fmtDate(iso, pattern string) string {
	if iso == "" {
		return ""
	}
	t, err := dates.ParseISO(iso)
	if err != nil {
		return ""
	}
	return dates.Format(t, pattern)
}

func setIfPresent(view map[string]any, key, val string) {
	if val != "" {
		view[key] = val
	}
}

func labelViews(labels []models.Label) []map[string]string {
	out := make([]map[string]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, map[string]string{
			"name": strings.ReplaceAll(l.Name, " ", "_"),
		})
	}
	return out
}

// siteNameFromURL falls back to the URL's hostname, dropping a leading
// "www." prefix.
func siteNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func snakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}

func yamlDecode(s string, rec *frontmatter.Record) error {
	return yaml.Unmarshal([]byte(s), rec)
}
