package core

import (
	"context"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/auth"
	"github.com/siahsang/articles/internal/filter"
	"github.com/siahsang/articles/models"
)

// Listing is the ordering and page window shared by every collection query.
type Listing struct {
	Ordering filter.Ordering
	Page     filter.Filter
}

type ArticlePage struct {
	Articles []*models.Article
	Metadata filter.Metadata
}

func (c *Core) ListArticles(ctx context.Context, identity auth.Identity, articleFilter filter.ArticleFilter, listing Listing) (*ArticlePage, error) {
	return c.list(ctx, identity, articleFilter, listing)
}

func (c *Core) FeaturedArticles(ctx context.Context, identity auth.Identity, listing Listing) (*ArticlePage, error) {
	featured := true
	return c.list(ctx, identity, filter.ArticleFilter{
		Featured: &featured,
		Status:   models.StatusPublished,
	}, listing)
}

func (c *Core) MyArticles(ctx context.Context, identity auth.Identity, listing Listing) (*ArticlePage, error) {
	if !identity.IsAuthenticated() {
		return nil, xerrors.New(ErrAuthenticationRequired)
	}
	return c.list(ctx, identity, filter.ArticleFilter{AuthorID: identity.UserID}, listing)
}

func (c *Core) ArticlesByAuthor(ctx context.Context, identity auth.Identity, username string, listing Listing) (*ArticlePage, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &MissingParameterError{Name: "author"}
	}
	return c.list(ctx, identity, filter.ArticleFilter{
		Author: username,
		Status: models.StatusPublished,
	}, listing)
}

func (c *Core) ArticlesByTag(ctx context.Context, identity auth.Identity, tag string, listing Listing) (*ArticlePage, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return nil, &MissingParameterError{Name: "tag"}
	}
	return c.list(ctx, identity, filter.ArticleFilter{
		Tags:   []string{tag},
		Status: models.StatusPublished,
	}, listing)
}

func (c *Core) list(ctx context.Context, identity auth.Identity, articleFilter filter.ArticleFilter, listing Listing) (*ArticlePage, error) {
	articles, count, err := c.articles.ListArticles(ctx, filter.Query{
		Visibility: filter.VisibilityFor(identity),
		Filter:     articleFilter,
		Ordering:   listing.Ordering,
		Page:       listing.Page,
	})
	if err != nil {
		return nil, err
	}
	return &ArticlePage{
		Articles: articles,
		Metadata: listing.Page.Metadata(count),
	}, nil
}

// Stats counts over the collection the identity can see, at the moment of
// the call.
func (c *Core) Stats(ctx context.Context, identity auth.Identity) (*models.Stats, error) {
	return c.articles.Stats(ctx, filter.VisibilityFor(identity), identity.UserID)
}
