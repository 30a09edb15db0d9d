package core

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/auth"
	"github.com/siahsang/articles/internal/filter"
	"github.com/siahsang/articles/internal/metrics"
	"github.com/siahsang/articles/internal/store"
	"github.com/siahsang/articles/models"
)

const maxSlugAttempts = 5

func (c *Core) CreateArticle(ctx context.Context, identity auth.Identity, input ArticleInput) (*models.Article, error) {
	if !identity.IsAuthenticated() {
		return nil, xerrors.New(ErrAuthenticationRequired)
	}
	if verr := input.requireFields(); verr != nil {
		return nil, verr
	}

	now := c.now()
	article := &models.Article{
		Author:    models.Author{ID: identity.UserID, Username: identity.Username},
		Status:    models.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.applyTo(article)

	if err := c.validateArticle(ctx, article, 0); err != nil {
		return nil, err
	}
	ApplyStatusTransition(article, "", now)
	DeriveDefaults(article)

	created, err := c.insertWithUniqueSlug(ctx, article)
	if err != nil {
		return nil, err
	}

	metrics.RecordMutation(metrics.ActionCreate)
	c.log.InfoContext(ctx, "article created",
		slog.Int64("article_id", created.ID),
		slog.String("slug", created.Slug),
		slog.String("author", identity.Username),
	)
	return created, nil
}

// insertWithUniqueSlug picks the first free slug in the base family and
// retries with a fresh read when a concurrent insert claims it first.
func (c *Core) insertWithUniqueSlug(ctx context.Context, article *models.Article) (*models.Article, error) {
	base := article.Slug
	for attempt := 1; ; attempt++ {
		taken, err := c.articles.SlugsWithPrefix(ctx, base)
		if err != nil {
			return nil, err
		}
		article.Slug = NextSlug(base, taken)

		created, err := c.articles.InsertArticle(ctx, article)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, store.ErrDuplicatedSlug) || attempt == maxSlugAttempts {
			return nil, err
		}

		metrics.SlugConflictsTotal.Inc()
		c.log.DebugContext(ctx, "slug claimed concurrently, retrying",
			slog.String("slug", article.Slug),
			slog.Int("attempt", attempt),
		)
	}
}

// UpdateArticle applies input to the article. A full update requires title
// and content; a partial one keeps whatever is not sent.
func (c *Core) UpdateArticle(ctx context.Context, identity auth.Identity, id int64, input ArticleInput, partial bool) (*models.Article, error) {
	if !identity.IsAuthenticated() {
		return nil, xerrors.New(ErrAuthenticationRequired)
	}

	var updated *models.Article
	err := c.articles.WithinTx(ctx, func(txCtx context.Context) error {
		current, err := c.visibleArticle(txCtx, identity, id)
		if err != nil {
			return err
		}
		if current.Author.ID != identity.UserID {
			return xerrors.New(ErrForbidden)
		}
		if !partial {
			if verr := input.requireFields(); verr != nil {
				return verr
			}
		}

		next := current.Clone()
		input.applyTo(next)
		if err := c.validateArticle(txCtx, next, current.ID); err != nil {
			return err
		}

		now := c.now()
		ApplyStatusTransition(next, current.Status, now)
		DeriveDefaults(next)
		next.UpdatedAt = now

		updated, err = c.articles.UpdateArticle(txCtx, next)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMutation(metrics.ActionUpdate)
	c.log.InfoContext(ctx, "article updated",
		slog.Int64("article_id", updated.ID),
		slog.String("status", string(updated.Status)),
	)
	return updated, nil
}

// DeleteArticle removes an article. Only its author may do so, staff
// included.
func (c *Core) DeleteArticle(ctx context.Context, identity auth.Identity, id int64) error {
	if !identity.IsAuthenticated() {
		return xerrors.New(ErrAuthenticationRequired)
	}

	err := c.articles.WithinTx(ctx, func(txCtx context.Context) error {
		current, err := c.visibleArticle(txCtx, identity, id)
		if err != nil {
			return err
		}
		if current.Author.ID != identity.UserID {
			return xerrors.New(ErrForbidden)
		}
		if err := c.articles.DeleteArticle(txCtx, id); err != nil {
			return notFoundOr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordMutation(metrics.ActionDelete)
	c.log.InfoContext(ctx, "article deleted", slog.Int64("article_id", id))
	return nil
}

// GetArticle returns a visible article. Reading a published article counts
// as a view and the result carries the incremented count.
func (c *Core) GetArticle(ctx context.Context, identity auth.Identity, id int64) (*models.Article, error) {
	article, err := c.visibleArticle(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if !article.IsPublished() {
		return article, nil
	}

	views, err := c.articles.IncrementViewCount(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	article.ViewCount = views
	metrics.ArticleViewsTotal.Inc()
	return article, nil
}

func (c *Core) ToggleFeatured(ctx context.Context, identity auth.Identity, id int64) (*models.Article, error) {
	if !identity.IsAuthenticated() {
		return nil, xerrors.New(ErrAuthenticationRequired)
	}
	if !identity.IsStaff {
		return nil, xerrors.New(ErrForbidden)
	}

	article, err := c.articles.ToggleFeatured(ctx, id, c.now())
	if err != nil {
		return nil, notFoundOr(err)
	}

	metrics.RecordMutation(metrics.ActionToggleFeatured)
	c.log.InfoContext(ctx, "article featured flag toggled",
		slog.Int64("article_id", article.ID),
		slog.Bool("featured", article.Featured),
		slog.String("staff", identity.Username),
	)
	return article, nil
}

func (c *Core) visibleArticle(ctx context.Context, identity auth.Identity, id int64) (*models.Article, error) {
	article, err := c.articles.GetArticle(ctx, id, filter.VisibilityFor(identity))
	if err != nil {
		return nil, notFoundOr(err)
	}
	return article, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, store.ErrNoRecordFound) {
		return xerrors.New(ErrNotFound)
	}
	return err
}
