package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siahsang/articles/internal/core"
	"github.com/siahsang/articles/internal/filter"
	"github.com/siahsang/articles/internal/store"
	"github.com/siahsang/articles/models"
)

type repository interface {
	core.ArticleRepository
	core.UserRepository
}

// runContract exercises the behaviour every repository implementation
// shares. newRepo must return an empty repository.
func runContract(t *testing.T, newRepo func(t *testing.T) repository) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	seed := func(t *testing.T, repo repository) (*models.User, *models.User) {
		t.Helper()
		alice, err := repo.EnsureUser(ctx, &models.User{Username: "alice", FirstName: "Alice", LastName: "Liddell"})
		require.NoError(t, err)
		bob, err := repo.EnsureUser(ctx, &models.User{Username: "bob"})
		require.NoError(t, err)
		return alice, bob
	}

	insert := func(t *testing.T, repo repository, author *models.User, title, slug string, status models.Status) *models.Article {
		t.Helper()
		article := &models.Article{
			Title:     title,
			Slug:      slug,
			Content:   "content of " + title,
			Excerpt:   "excerpt",
			Author:    models.Author{ID: author.ID},
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if status == models.StatusPublished {
			publishedAt := now
			article.PublishedAt = &publishedAt
		}
		created, err := repo.InsertArticle(ctx, article)
		require.NoError(t, err)
		now = now.Add(time.Minute)
		return created
	}

	t.Run("users", func(t *testing.T) {
		repo := newRepo(t)
		first, err := repo.EnsureUser(ctx, &models.User{Username: "editor", IsStaff: true})
		require.NoError(t, err)
		again, err := repo.EnsureUser(ctx, &models.User{Username: "editor"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.True(t, again.IsStaff)

		found, err := repo.GetUserByUsername(ctx, "editor")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)

		_, err = repo.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, store.ErrNoRecordFound)
	})

	t.Run("insert and get", func(t *testing.T) {
		repo := newRepo(t)
		alice, _ := seed(t, repo)
		created := insert(t, repo, alice, "First post", "first-post", models.StatusDraft)

		assert.NotZero(t, created.ID)
		assert.Equal(t, "alice", created.Author.Username)
		assert.Equal(t, "Liddell", created.Author.LastName)

		got, err := repo.GetArticle(ctx, created.ID, filter.Visibility{ViewerID: alice.ID})
		require.NoError(t, err)
		assert.Equal(t, created.Title, got.Title)

		_, err = repo.GetArticle(ctx, created.ID, filter.Visibility{})
		assert.ErrorIs(t, err, store.ErrNoRecordFound)
		_, err = repo.GetArticle(ctx, 424242, filter.Visibility{Unrestricted: true})
		assert.ErrorIs(t, err, store.ErrNoRecordFound)
	})

	t.Run("insert rejects duplicate slug and unknown author", func(t *testing.T) {
		repo := newRepo(t)
		alice, _ := seed(t, repo)
		insert(t, repo, alice, "Taken", "taken", models.StatusDraft)

		_, err := repo.InsertArticle(ctx, &models.Article{
			Title: "Other", Slug: "taken", Content: "content", Author: models.Author{ID: alice.ID},
			Status: models.StatusDraft, CreatedAt: now, UpdatedAt: now,
		})
		assert.ErrorIs(t, err, store.ErrDuplicatedSlug)

		_, err = repo.InsertArticle(ctx, &models.Article{
			Title: "Orphan", Slug: "orphan", Content: "content", Author: models.Author{ID: 987654},
			Status: models.StatusDraft, CreatedAt: now, UpdatedAt: now,
		})
		assert.ErrorIs(t, err, store.ErrUnknownAuthor)
	})

	t.Run("slug family and titles", func(t *testing.T) {
		repo := newRepo(t)
		alice, _ := seed(t, repo)
		post := insert(t, repo, alice, "Post", "post", models.StatusDraft)
		insert(t, repo, alice, "Post again", "post-1", models.StatusDraft)
		insert(t, repo, alice, "Posts", "posts", models.StatusDraft)
		insert(t, repo, alice, "Percent", "post_100", models.StatusDraft)

		slugs, err := repo.SlugsWithPrefix(ctx, "post")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"post", "post-1"}, slugs)

		exists, err := repo.TitleExists(ctx, "POST", 0)
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = repo.TitleExists(ctx, "post", post.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update leaves featured and views alone", func(t *testing.T) {
		repo := newRepo(t)
		alice, _ := seed(t, repo)
		article := insert(t, repo, alice, "Editable", "editable", models.StatusPublished)
		_, err := repo.IncrementViewCount(ctx, article.ID)
		require.NoError(t, err)
		_, err = repo.ToggleFeatured(ctx, article.ID, now)
		require.NoError(t, err)

		next := article.Clone()
		next.Title = "Edited"
		next.Status = models.StatusDraft
		next.PublishedAt = nil
		next.Featured = false
		next.ViewCount = 0
		next.Tags = "go"
		next.UpdatedAt = now.Add(time.Hour)

		updated, err := repo.UpdateArticle(ctx, next)
		require.NoError(t, err)
		assert.Equal(t, "Edited", updated.Title)
		assert.Equal(t, "editable", updated.Slug)
		assert.Equal(t, models.StatusDraft, updated.Status)
		assert.Nil(t, updated.PublishedAt)
		assert.Equal(t, "go", updated.Tags)
		assert.True(t, updated.Featured)
		assert.EqualValues(t, 1, updated.ViewCount)
		assert.True(t, now.Add(time.Hour).Equal(updated.UpdatedAt))
	})

	t.Run("views toggles and delete", func(t *testing.T) {
		repo := newRepo(t)
		alice, _ := seed(t, repo)
		article := insert(t, repo, alice, "Busy", "busy", models.StatusPublished)

		for want := int64(1); want <= 3; want++ {
			got, err := repo.IncrementViewCount(ctx, article.ID)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		toggledAt := now.Add(time.Hour)
		toggled, err := repo.ToggleFeatured(ctx, article.ID, toggledAt)
		require.NoError(t, err)
		assert.True(t, toggled.Featured)
		assert.True(t, toggledAt.Equal(toggled.UpdatedAt))

		require.NoError(t, repo.DeleteArticle(ctx, article.ID))
		assert.ErrorIs(t, repo.DeleteArticle(ctx, article.ID), store.ErrNoRecordFound)
		_, err = repo.IncrementViewCount(ctx, article.ID)
		assert.ErrorIs(t, err, store.ErrNoRecordFound)
		_, err = repo.ToggleFeatured(ctx, article.ID, now)
		assert.ErrorIs(t, err, store.ErrNoRecordFound)

		slugs, err := repo.SlugsWithPrefix(ctx, "busy")
		require.NoError(t, err)
		assert.Empty(t, slugs)
	})

	t.Run("list filters orders and pages", func(t *testing.T) {
		repo := newRepo(t)
		alice, bob := seed(t, repo)
		insert(t, repo, alice, "Alpha", "alpha", models.StatusPublished)
		insert(t, repo, alice, "Bravo draft", "bravo", models.StatusDraft)
		charlie := insert(t, repo, bob, "Charlie", "charlie", models.StatusPublished)
		insert(t, repo, bob, "Delta archived", "delta", models.StatusArchived)

		list := func(q filter.Query) ([]string, int64) {
			t.Helper()
			articles, total, err := repo.ListArticles(ctx, q)
			require.NoError(t, err)
			var titles []string
			for _, a := range articles {
				titles = append(titles, a.Title)
			}
			return titles, total
		}

		titles, total := list(filter.Query{Page: filter.NewFilter(10, 0)})
		assert.Equal(t, []string{"Charlie", "Alpha"}, titles)
		assert.EqualValues(t, 2, total)

		titles, total = list(filter.Query{Visibility: filter.Visibility{ViewerID: alice.ID}, Page: filter.NewFilter(10, 0)})
		assert.Equal(t, []string{"Charlie", "Bravo draft", "Alpha"}, titles)
		assert.EqualValues(t, 3, total)

		ordering, err := filter.ParseOrdering("title")
		require.NoError(t, err)
		titles, total = list(filter.Query{
			Visibility: filter.Visibility{Unrestricted: true},
			Ordering:   ordering,
			Page:       filter.NewFilter(2, 1),
		})
		assert.Equal(t, []string{"Bravo draft", "Charlie"}, titles)
		assert.EqualValues(t, 4, total)

		titles, _ = list(filter.Query{
			Visibility: filter.Visibility{Unrestricted: true},
			Filter:     filter.ArticleFilter{Author: "BOB", Status: models.StatusArchived},
			Page:       filter.NewFilter(10, 0),
		})
		assert.Equal(t, []string{"Delta archived"}, titles)

		_, err = repo.IncrementViewCount(ctx, charlie.ID)
		require.NoError(t, err)
		minViews := int64(1)
		titles, _ = list(filter.Query{
			Filter: filter.ArticleFilter{MinViews: &minViews, Search: "charl"},
			Page:   filter.NewFilter(10, 0),
		})
		assert.Equal(t, []string{"Charlie"}, titles)
	})

	t.Run("stats", func(t *testing.T) {
		repo := newRepo(t)
		alice, bob := seed(t, repo)
		published := insert(t, repo, alice, "Alpha", "alpha", models.StatusPublished)
		insert(t, repo, alice, "Alpha draft", "alpha-draft", models.StatusDraft)
		insert(t, repo, bob, "Bob draft", "bob-draft", models.StatusDraft)
		_, err := repo.IncrementViewCount(ctx, published.ID)
		require.NoError(t, err)
		_, err = repo.ToggleFeatured(ctx, published.ID, now)
		require.NoError(t, err)

		anonymous, err := repo.Stats(ctx, filter.Visibility{}, 0)
		require.NoError(t, err)
		assert.Equal(t, &models.Stats{
			TotalArticles: 1, PublishedArticles: 1, FeaturedArticles: 1, TotalViews: 1,
		}, anonymous)

		mine, err := repo.Stats(ctx, filter.Visibility{ViewerID: alice.ID}, alice.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, mine.TotalArticles)
		assert.EqualValues(t, 1, mine.DraftArticles)
		require.NotNil(t, mine.MyArticles)
		assert.EqualValues(t, 2, *mine.MyArticles)
		assert.EqualValues(t, 1, *mine.MyPublished)
		assert.EqualValues(t, 1, *mine.MyDrafts)

		all, err := repo.Stats(ctx, filter.Visibility{Unrestricted: true}, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 3, all.TotalArticles)
		assert.EqualValues(t, 2, all.DraftArticles)
	})
}
