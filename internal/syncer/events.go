package syncer

// EventType names a sync lifecycle or vault change event.
type EventType string

const (
	EventSyncStarted    EventType = "sync.started"
	EventSyncProgress   EventType = "sync.progress"
	EventSyncFinished   EventType = "sync.finished"
	EventSyncFailed     EventType = "sync.failed"
	EventArticleCreated EventType = "article.created"
	EventArticleUpdated EventType = "article.updated"
	EventArticleDeleted EventType = "article.deleted"
)

// Event is delivered to the callback registered with WithEvents.
type Event struct {
	Type      EventType `json:"type"`
	ArticleID string    `json:"article_id,omitempty"`
	Path      string    `json:"path,omitempty"`
	Synced    int       `json:"synced,omitempty"`
	Message   string    `json:"message,omitempty"`
}
