package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ArticleRow represents a row in the articles table.
type ArticleRow struct {
	Path      string
	ArticleID string
	Title     string
	Site      string
	State     string
	SavedAt   string
	Labels    []string
	Checksum  string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// ListFilter narrows ListArticles results. Zero values match everything.
type ListFilter struct {
	Label  string
	State  string
	Limit  int
	Offset int
}

// UpsertArticle inserts or replaces an article and its FTS entry within a transaction.
func (db *DB) UpsertArticle(a ArticleRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	labelsJSON, _ := json.Marshal(a.Labels)

	// Upsert articles table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO articles (path, article_id, title, site, state, saved_at, labels, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			article_id = excluded.article_id,
			title      = excluded.title,
			site       = excluded.site,
			state      = excluded.state,
			saved_at   = excluded.saved_at,
			labels     = excluded.labels,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, a.Path, a.ArticleID, a.Title, a.Site, a.State, a.SavedAt, string(labelsJSON), a.Checksum, body, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert article: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, a.Path, a.Title, body, a.Labels); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteArticle removes an article and its FTS entry.
func (db *DB) DeleteArticle(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM articles WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a path, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM articles WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns every indexed path mapped to its stored checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// FindByID returns the article carrying the given remote id, or sql.ErrNoRows.
func (db *DB) FindByID(articleID string) (ArticleRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, article_id, title, site, state, saved_at, labels, checksum, updated_at
		FROM articles WHERE article_id = ? LIMIT 1
	`, articleID)
	return scanArticle(row)
}

// ListArticles returns articles matching the filter, newest saved first,
// along with the total count before limit/offset.
func (db *DB) ListArticles(f ListFilter) ([]ArticleRow, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.State != "" {
		where += ` AND state = ?`
		args = append(args, f.State)
	}
	if f.Label != "" {
		// labels is a JSON array of strings; match the quoted element.
		where += ` AND labels LIKE ?`
		args = append(args, `%"`+f.Label+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM articles`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count articles: %w", err)
	}

	query := `
		SELECT path, article_id, title, site, state, saved_at, labels, checksum, updated_at
		FROM articles` + where + ` ORDER BY saved_at DESC, path ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list articles: %w", err)
	}
	defer rows.Close()

	var out []ArticleRow
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (ArticleRow, error) {
	var a ArticleRow
	var labelsJSON string
	err := row.Scan(&a.Path, &a.ArticleID, &a.Title, &a.Site, &a.State, &a.SavedAt, &labelsJSON, &a.Checksum, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ArticleRow{}, err
		}
		return ArticleRow{}, fmt.Errorf("index: scan article: %w", err)
	}
	if err := json.Unmarshal([]byte(labelsJSON), &a.Labels); err != nil {
		a.Labels = nil
	}
	return a, nil
}
