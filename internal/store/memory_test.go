package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siahsang/articles/internal/store"
	"github.com/siahsang/articles/models"
)

func TestMemoryStore(t *testing.T) {
	runContract(t, func(t *testing.T) repository {
		return store.NewMemoryStore()
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	alice, err := s.EnsureUser(ctx, &models.User{Username: "alice"})
	require.NoError(t, err)

	now := time.Now()
	created, err := s.InsertArticle(ctx, &models.Article{
		Title: "Original", Slug: "original", Content: "content",
		Author: models.Author{ID: alice.ID}, Status: models.StatusDraft, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	created.Title = "Mutated by caller"
	exists, err := s.TitleExists(ctx, "Mutated by caller", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_ConcurrentViewCounts(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	alice, err := s.EnsureUser(ctx, &models.User{Username: "alice"})
	require.NoError(t, err)
	now := time.Now()
	article, err := s.InsertArticle(ctx, &models.Article{
		Title: "Hot", Slug: "hot", Content: "content",
		Author: models.Author{ID: alice.ID}, Status: models.StatusPublished, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	const readers = 100
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

	views, err := s.IncrementViewCount(ctx, article.ID)
	require.NoError(t, err)
	assert.EqualValues(t, readers+1, views)
}

func TestMemoryStore_WithinTxSerializes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithinTx(ctx, func(txCtx context.Context) error {
				mu.Lock()
				active++
				maxSeen = max(maxSeen, active)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestMemoryStore_NestedTxDoesNotDeadlock(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	err := s.WithinTx(ctx, func(txCtx context.Context) error {
		return s.WithinTx(txCtx, func(context.Context) error { return nil })
	})
	assert.NoError(t, err)
}
