package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/siahsang/articles/internal/core"
	"github.com/siahsang/articles/internal/filter"
	"github.com/siahsang/articles/internal/store"
	"github.com/siahsang/articles/models"
)

// setupPostgres starts a disposable PostgreSQL container and applies the
// migrations with the same code path the service uses at startup.
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	_, currentFile, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("articles"),
		postgres.WithUsername("articles"),
		postgres.WithPassword("articles"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, store.Migrate(connStr, migrationsPath, logger))
	// A second run finds nothing to apply.
	require.NoError(t, store.Migrate(connStr, migrationsPath, logger))

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.PingContext(ctx))
	return db
}

func newPostgresStore(t *testing.T, db *sql.DB) *store.PostgresStore {
	t.Helper()
	_, err := db.Exec(`TRUNCATE TABLE articles, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return store.NewPostgresStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)), 5*time.Second)
}

func TestPostgresStore(t *testing.T) {
	db := setupPostgres(t)

	t.Run("contract", func(t *testing.T) {
		runContract(t, func(t *testing.T) repository {
			return newPostgresStore(t, db)
		})
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		s := newPostgresStore(t, db)
		ctx := context.Background()
		errAbort := errors.New("abort")

		err := s.WithinTx(ctx, func(txCtx context.Context) error {
			if _, err := s.EnsureUser(txCtx, &models.User{Username: "rolled-back"}); err != nil {
				return err
			}
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		_, err = s.GetUserByUsername(ctx, "rolled-back")
		assert.ErrorIs(t, err, store.ErrNoRecordFound)
	})

	t.Run("concurrent view counts are not lost", func(t *testing.T) {
		s := newPostgresStore(t, db)
		ctx := context.Background()
		alice, err := s.EnsureUser(ctx, &models.User{Username: "alice"})
		require.NoError(t, err)
		now := time.Now().UTC()
		article, err := s.InsertArticle(ctx, &models.Article{
			Title: "Hot", Slug: "hot", Content: "content", Author: models.Author{ID: alice.ID},
			Status: models.StatusPublished, CreatedAt: now, UpdatedAt: now, PublishedAt: &now,
		})
		require.NoError(t, err)

		const readers = 25
		var wg sync.WaitGroup
		for range readers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.IncrementViewCount(ctx, article.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.GetArticle(ctx, article.ID, filter.Visibility{})
		require.NoError(t, err)
		assert.EqualValues(t, readers, got.ViewCount)
	})

	t.Run("concurrent creates get distinct slugs", func(t *testing.T) {
		s := newPostgresStore(t, db)
		ctx := context.Background()
		c := core.NewCore(s, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
		_, err := s.EnsureUser(ctx, &models.User{Username: "alice"})
		require.NoError(t, err)
		alice, err := c.IdentityFor(ctx, "alice")
		require.NoError(t, err)

		const writers = 4
		slugs := make([]string, writers)
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				title := "Concurrent title" + strings.Repeat("!", i+1)
				content := fmt.Sprintf("content written by writer %d", i)
				article, err := c.CreateArticle(ctx, alice, core.ArticleInput{Title: &title, Content: &content})
				if assert.NoError(t, err) {
					slugs[i] = article.Slug
				}
			}()
		}
		wg.Wait()

		assert.ElementsMatch(t, []string{
			"concurrent-title", "concurrent-title-1", "concurrent-title-2", "concurrent-title-3",
		}, slugs)
	})

	t.Run("update inside a transaction locks the row", func(t *testing.T) {
		s := newPostgresStore(t, db)
		ctx := context.Background()
		c := core.NewCore(s, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
		_, err := s.EnsureUser(ctx, &models.User{Username: "alice"})
		require.NoError(t, err)
		alice, err := c.IdentityFor(ctx, "alice")
		require.NoError(t, err)

		title, content := "Lockable article", "content that is long enough"
		article, err := c.CreateArticle(ctx, alice, core.ArticleInput{Title: &title, Content: &content})
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tags := fmt.Sprintf("tag%d", i)
				_, err := c.UpdateArticle(ctx, alice, article.ID, core.ArticleInput{Tags: &tags}, true)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := c.GetArticle(ctx, alice, article.ID)
		require.NoError(t, err)
		assert.Regexp(t, `^tag\d$`, got.Tags)
	})
}
