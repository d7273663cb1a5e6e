package syncer

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/frontmatter"
	"github.com/starford/raido/internal/template"
)

// reconcileSeparate maps one rendered article onto the vault in
// separate-files mode. The front matter id is the sole identity key;
// filename collisions between distinct ids are resolved by retrying the
// same decision against a "-{id}" suffixed path.
func (s *Syncer) reconcileSeparate(target, id string, content []byte) error {
	exists, err := s.store.Exists(target)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.store.Create(target, content); err != nil {
			if errors.Is(err, fs.ErrExist) {
				// Lost a create race, most likely two articles with the
				// same title in this run.
				s.log.Warn("file appeared while syncing, check for duplicate titles",
					slog.String("path", target),
					slog.String("id", id))
				return nil
			}
			return err
		}
		s.notify(Event{Type: EventArticleCreated, ArticleID: id, Path: target})
		return nil
	}

	existing, err := s.store.Read(target)
	if err != nil {
		return err
	}
	existingID := ""
	if value, _, err := frontMatterOf(existing); err == nil && value != nil && len(value.Records) > 0 {
		existingID = value.Records[0].ID()
	}

	// A missing id means an unsynced file at this path; treat it as the
	// same logical record and take it over.
	if existingID == "" || existingID == id {
		if bytes.Equal(existing, content) {
			return nil
		}
		if err := s.store.Write(target, content); err != nil {
			return err
		}
		s.notify(Event{Type: EventArticleUpdated, ArticleID: id, Path: target})
		return nil
	}

	// Title collision with a different article: disambiguate the name
	// with the id and reconcile against that path instead.
	disambiguated := strings.TrimSuffix(target, ".md") + "-" + id + ".md"
	return s.reconcileSeparate(disambiguated, id, content)
}

// reconcileSingleFile splices one article into an aggregate file whose
// front matter is a sequence of per-article records and whose body is a
// series of sentinel-wrapped sections.
func (s *Syncer) reconcileSingleFile(target, id string, rendered *template.Rendered) error {
	exists, err := s.store.Exists(target)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.store.Create(target, []byte(rendered.Content)); err != nil {
			if errors.Is(err, fs.ErrExist) {
				s.log.Warn("file appeared while syncing, check for duplicate titles",
					slog.String("path", target),
					slog.String("id", id))
				return nil
			}
			return err
		}
		s.notify(Event{Type: EventArticleCreated, ArticleID: id, Path: target})
		return nil
	}

	existing, err := s.store.Read(target)
	if err != nil {
		return err
	}
	value, body, err := frontMatterOf(existing)
	if err != nil {
		return fmt.Errorf("syncer: %s: %w", target, err)
	}
	if value == nil || len(value.Records) == 0 {
		return fmt.Errorf("syncer: %s has no front matter: %w", target, apperr.ErrBadFrontMatter)
	}

	if idx := frontmatter.FindIndex(value.Records, id); idx >= 0 {
		// Known article: replace its record in place and the text
		// strictly inside its sentinel pair.
		value.Records[idx] = rendered.FrontMatter
		body = replaceSection(body, id, rendered.Body)
	} else {
		// New article: newest first.
		value.Records = append([]*frontmatter.Record{rendered.FrontMatter}, value.Records...)
		body = rendered.Body + "\n\n" + body
	}
	value.Sequence = true

	block, err := frontmatter.Serialize(value)
	if err != nil {
		return fmt.Errorf("syncer: %s: %w", target, err)
	}
	merged := []byte(block + "\n\n" + body)
	if bytes.Equal(existing, merged) {
		return nil
	}
	if err := s.store.Write(target, merged); err != nil {
		return err
	}
	s.notify(Event{Type: EventArticleUpdated, ArticleID: id, Path: target})
	return nil
}

// replaceSection swaps the first sentinel-delimited span for id with
// section. A body missing the sentinels gets the section prepended.
func replaceSection(body, id, section string) string {
	re := regexp.MustCompile(`(?s)%%` + regexp.QuoteMeta(id) + `_start%%.*?%%` + regexp.QuoteMeta(id) + `_end%%`)
	loc := re.FindStringIndex(body)
	if loc == nil {
		return section + "\n\n" + body
	}
	return body[:loc[0]] + section + body[loc[1]:]
}

func frontMatterOf(data []byte) (*frontmatter.Value, string, error) {
	return frontmatter.Extract(string(data))
}
