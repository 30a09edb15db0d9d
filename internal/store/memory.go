package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/filter"
	"github.com/siahsang/articles/models"
)

type memoryTxKey struct{}

// MemoryStore keeps articles and users in process. Every method is safe for
// concurrent use; WithinTx serialises transactions against each other.
type MemoryStore struct {
	mu            sync.RWMutex
	txMu          sync.Mutex
	users         map[int64]*models.User
	articles      map[int64]*models.Article
	slugs         map[string]int64
	nextUserID    int64
	nextArticleID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[int64]*models.User),
		articles:      make(map[int64]*models.Article),
		slugs:         make(map[string]int64),
		nextUserID:    1,
		nextArticleID: 1,
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, memoryTxKey{}, true))
}

func (s *MemoryStore) EnsureUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			clone := *existing
			return &clone, nil
		}
	}

	created := *user
	created.ID = s.nextUserID
	s.nextUserID++
	s.users[created.ID] = &created

	clone := created
	return &clone, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, xerrors.New(ErrNoRecordFound)
}

func (s *MemoryStore) SlugsWithPrefix(ctx context.Context, base string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slugs []string
	for slug := range s.slugs {
		if slug == base || strings.HasPrefix(slug, base+"-") {
			slugs = append(slugs, slug)
		}
	}
	return slugs, nil
}

func (s *MemoryStore) TitleExists(ctx context.Context, title string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, article := range s.articles {
		if id != excludeID && strings.EqualFold(article.Title, title) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) InsertArticle(ctx context.Context, article *models.Article) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.slugs[article.Slug]; taken {
		return nil, xerrors.New(ErrDuplicatedSlug)
	}
	author, ok := s.users[article.Author.ID]
	if !ok {
		return nil, xerrors.New(ErrUnknownAuthor)
	}

	stored := article.Clone()
	stored.ID = s.nextArticleID
	stored.Author = authorOf(author)
	s.nextArticleID++
	s.articles[stored.ID] = stored
	s.slugs[stored.Slug] = stored.ID

	return stored.Clone(), nil
}

func (s *MemoryStore) GetArticle(ctx context.Context, id int64, visibility filter.Visibility) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	article, ok := s.articles[id]
	if !ok || !visibility.Allows(article) {
		return nil, xerrors.New(ErrNoRecordFound)
	}
	return article.Clone(), nil
}

// UpdateArticle writes the mutable fields. Slug, author, featured and
// view_count are owned by other operations and left as stored.
func (s *MemoryStore) UpdateArticle(ctx context.Context, article *models.Article) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.articles[article.ID]
	if !ok {
		return nil, xerrors.New(ErrNoRecordFound)
	}

	updated := stored.Clone()
	updated.Title = article.Title
	updated.Content = article.Content
	updated.Excerpt = article.Excerpt
	updated.Status = article.Status
	updated.Tags = article.Tags
	updated.UpdatedAt = article.UpdatedAt
	updated.PublishedAt = nil
	if article.PublishedAt != nil {
		publishedAt := *article.PublishedAt
		updated.PublishedAt = &publishedAt
	}
	s.articles[updated.ID] = updated

	return updated.Clone(), nil
}

func (s *MemoryStore) DeleteArticle(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[id]
	if !ok {
		return xerrors.New(ErrNoRecordFound)
	}
	delete(s.slugs, article.Slug)
	delete(s.articles, id)
	return nil
}

func (s *MemoryStore) IncrementViewCount(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[id]
	if !ok {
		return 0, xerrors.New(ErrNoRecordFound)
	}
	article.ViewCount++
	return article.ViewCount, nil
}

func (s *MemoryStore) ToggleFeatured(ctx context.Context, id int64, updatedAt time.Time) (*models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[id]
	if !ok {
		return nil, xerrors.New(ErrNoRecordFound)
	}
	article.Featured = !article.Featured
	article.UpdatedAt = updatedAt
	return article.Clone(), nil
}

func (s *MemoryStore) ListArticles(ctx context.Context, query filter.Query) ([]*models.Article, int64, error) {
	s.mu.RLock()
	var matched []*models.Article
	for _, article := range s.articles {
		if query.Matches(article) {
			matched = append(matched, article.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, query.Ordering.Compare)

	total := int64(len(matched))
	start := min(query.Page.Offset, total)
	end := total
	if query.Page.Limit > 0 {
		end = min(start+query.Page.Limit, total)
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) Stats(ctx context.Context, visibility filter.Visibility, viewerID int64) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.Stats{}
	var mine, myPublished, myDrafts int64
	for _, article := range s.articles {
		if !visibility.Allows(article) {
			continue
		}
		stats.TotalArticles++
		stats.TotalViews += article.ViewCount
		if article.Featured {
			stats.FeaturedArticles++
		}
		switch article.Status {
		case models.StatusPublished:
			stats.PublishedArticles++
		case models.StatusDraft:
			stats.DraftArticles++
		}

		if viewerID == 0 || article.Author.ID != viewerID {
			continue
		}
		mine++
		switch article.Status {
		case models.StatusPublished:
			myPublished++
		case models.StatusDraft:
			myDrafts++
		}
	}

	if viewerID != 0 {
		stats.MyArticles = &mine
		stats.MyPublished = &myPublished
		stats.MyDrafts = &myDrafts
	}
	return stats, nil
}

func authorOf(user *models.User) models.Author {
	return models.Author{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}
