// Package models defines the domain types for Raido.
package models

// PageType classifies what kind of page a saved article was captured from.
type PageType string

// Page types reported by the reading service.
const (
	PageTypeArticle PageType = "ARTICLE"
	PageTypeBook    PageType = "BOOK"
	PageTypeFile    PageType = "FILE"
	PageTypeProfile PageType = "PROFILE"
	PageTypeUnknown PageType = "UNKNOWN"
	PageTypeWebsite PageType = "WEBSITE"
	PageTypeTweet   PageType = "TWEET"
	PageTypeVideo   PageType = "VIDEO"
	PageTypeImage   PageType = "IMAGE"
)

// HighlightType distinguishes real highlights from article-level notes and
// redactions, which are never rendered in the highlight list.
type HighlightType string

const (
	HighlightTypeHighlight HighlightType = "HIGHLIGHT"
	HighlightTypeNote      HighlightType = "NOTE"
	HighlightTypeRedaction HighlightType = "REDACTION"
)

// Label is a user-assigned tag on an article or highlight.
type Label struct {
	Name string `json:"name"`
}

// Highlight is an annotation attached to an article.
//
// PositionPercent is the preferred ordering key when present. Patch is an
// opaque location encoding whose format depends on the page type: a
// diff-match-patch text patch for web pages, or a JSON bounding box for
// FILE pages.
type Highlight struct {
	ID              string        `json:"id"`
	Quote           string        `json:"quote"`
	Annotation      string        `json:"annotation"`
	Patch           string        `json:"patch"`
	UpdatedAt       string        `json:"updatedAt"`
	Labels          []Label       `json:"labels,omitempty"`
	Type            HighlightType `json:"type"`
	PositionPercent *float64      `json:"highlightPositionPercent"`
	Color           string        `json:"color,omitempty"`
}

// Article is one saved record fetched from the reading service. Timestamps
// are kept as the ISO-8601 strings the wire format delivers; they are parsed
// at render time.
type Article struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	SiteName    string      `json:"siteName"`
	OriginalURL string      `json:"originalArticleUrl"`
	URL         string      `json:"url"`
	Image       string      `json:"image"`
	Author      string      `json:"author"`
	Description string      `json:"description"`
	Labels      []Label     `json:"labels,omitempty"`
	Highlights  []Highlight `json:"highlights,omitempty"`

	SavedAt     string `json:"savedAt"`
	UpdatedAt   string `json:"updatedAt"`
	PublishedAt string `json:"publishedAt"`
	ReadAt      string `json:"readAt"`
	ArchivedAt  string `json:"archivedAt"`

	PageType PageType `json:"pageType"`
	Content  string   `json:"content"`

	WordsCount             *int    `json:"wordsCount"`
	ReadingProgressPercent float64 `json:"readingProgressPercent"`
	IsArchived             bool    `json:"isArchived"`
}

// State is the derived reading-lifecycle state of an article.
type State string

const (
	StateInbox     State = "INBOX"
	StateReading   State = "READING"
	StateCompleted State = "COMPLETED"
	StateArchived  State = "ARCHIVED"
)

// StateOf derives the lifecycle state. Archived status takes precedence
// over reading progress.
func StateOf(a *Article) State {
	if a.IsArchived {
		return StateArchived
	}
	if a.ReadingProgressPercent == 100 {
		return StateCompleted
	}
	if a.ReadingProgressPercent > 0 {
		return StateReading
	}
	return StateInbox
}
