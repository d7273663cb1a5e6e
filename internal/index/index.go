package index

// ArticleIndex defines the interface for article catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ArticleIndex interface {
	UpsertArticle(a ArticleRow, body string) error
	DeleteArticle(path string) error
	GetChecksum(path string) (string, error)
	FindByID(articleID string) (ArticleRow, error)
	ListArticles(f ListFilter) ([]ArticleRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ArticleIndex at compile time.
var _ ArticleIndex = (*DB)(nil)
