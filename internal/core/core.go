// Package core holds the article lifecycle and the mutation policy. Handlers
// hand it an identity and inputs; it decides visibility, ownership and
// derived fields, then delegates persistence to the repositories.
package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/siahsang/articles/internal/filter"
	"github.com/siahsang/articles/models"
)

type ArticleRepository interface {
	WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error
	SlugsWithPrefix(ctx context.Context, base string) ([]string, error)
	TitleExists(ctx context.Context, title string, excludeID int64) (bool, error)
	InsertArticle(ctx context.Context, article *models.Article) (*models.Article, error)
	GetArticle(ctx context.Context, id int64, visibility filter.Visibility) (*models.Article, error)
	UpdateArticle(ctx context.Context, article *models.Article) (*models.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
	IncrementViewCount(ctx context.Context, id int64) (int64, error)
	ToggleFeatured(ctx context.Context, id int64, updatedAt time.Time) (*models.Article, error)
	ListArticles(ctx context.Context, query filter.Query) ([]*models.Article, int64, error)
	Stats(ctx context.Context, visibility filter.Visibility, viewerID int64) (*models.Stats, error)
}

type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	EnsureUser(ctx context.Context, user *models.User) (*models.User, error)
}

type Core struct {
	log      *slog.Logger
	articles ArticleRepository
	users    UserRepository
	now      func() time.Time
}

func NewCore(articles ArticleRepository, users UserRepository, log *slog.Logger) *Core {
	return &Core{
		log:      log,
		articles: articles,
		users:    users,
		now:      func() time.Time { return time.Now().UTC() },
	}
}
