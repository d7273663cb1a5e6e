package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cbroglie/mustache"

	"github.com/starford/raido/internal/dates"
)

// Named transforms usable inside any template as
// {{#name}}…{{/name}} sections. The span's contents are rendered
// against the article view first, then passed through the transform.
//
// formatDate expects "{{{someDate}}}, pattern": the part before the
// first comma names the date, the part after is a date pattern.
type transformFunc func(r *Renderer, inner string, view map[string]any) (string, error)

var transforms = map[string]transformFunc{
	"lowerCase": func(r *Renderer, inner string, view map[string]any) (string, error) {
		s, err := mustache.Render(inner, view)
		return strings.ToLower(s), err
	},
	"upperCase": func(r *Renderer, inner string, view map[string]any) (string, error) {
		s, err := mustache.Render(inner, view)
		return strings.ToUpper(s), err
	},
	"upperCaseFirst": func(r *Renderer, inner string, view map[string]any) (string, error) {
		s, err := mustache.Render(inner, view)
		if err != nil || s == "" {
			return s, err
		}
		runes := []rune(strings.ToLower(s))
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		return string(runes), nil
	},
	"formatDate": func(r *Renderer, inner string, view map[string]any) (string, error) {
		expr, pattern, ok := strings.Cut(inner, ",")
		if !ok {
			return mustache.Render(inner, view)
		}
		rendered, err := mustache.Render(expr, view)
		if err != nil {
			return "", err
		}
		rendered = strings.TrimSpace(rendered)
		if rendered == "" {
			return "", nil
		}
		return r.reformatDate(rendered, strings.TrimSpace(pattern)), nil
	},
}

var (
	transformRes   = map[string]*regexp.Regexp{}
	transformTagRe *regexp.Regexp
)

func init() {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
		transformRes[name] = regexp.MustCompile(`(?s)\{\{#` + name + `\}\}(.*?)\{\{/` + name + `\}\}`)
	}
	transformTagRe = regexp.MustCompile(`\{\{[#/](?:` + strings.Join(names, "|") + `)\}\}`)
}

// stripTransforms removes transform section tags so the remainder can be
// syntax-checked as plain Mustache.
func stripTransforms(tpl string) string {
	return transformTagRe.ReplaceAllString(tpl, "")
}

// render expands tpl against view. Transform spans are evaluated first
// and stashed behind placeholders, so the main render never sees them;
// the placeholders are substituted back afterwards.
func (r *Renderer) render(tpl string, view map[string]any) (string, error) {
	var stash []string
	for name, fn := range transforms {
		re := transformRes[name]
		var innerErr error
		tpl = re.ReplaceAllStringFunc(tpl, func(m string) string {
			inner := re.FindStringSubmatch(m)[1]
			val, err := fn(r, inner, view)
			if err != nil {
				innerErr = err
				return m
			}
			ph := placeholder(len(stash))
			stash = append(stash, val)
			return ph
		})
		if innerErr != nil {
			return "", innerErr
		}
	}

	out, err := mustache.Render(tpl, view)
	if err != nil {
		return "", err
	}
	for i, v := range stash {
		out = strings.ReplaceAll(out, placeholder(i), v)
	}
	return out, nil
}

func placeholder(i int) string {
	return fmt.Sprintf("\x00tf%d\x00", i)
}

// reformatDate re-renders an already-rendered date value with another
// pattern. The value may be ISO or formatted per the saved-date setting;
// anything unparseable passes through unchanged.
func (r *Renderer) reformatDate(value, pattern string) string {
	if t, err := dates.ParseISO(value); err == nil {
		return dates.Format(t, pattern)
	}
	if r.cfg.DateSavedFormat != "" {
		if t, err := dates.Parse(value, r.cfg.DateSavedFormat); err == nil {
			return dates.Format(t, pattern)
		}
	}
	return value
}
