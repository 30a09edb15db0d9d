package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/siahsang/articles/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World!", "hello-world"},
		{"Crème Brûlée recipes", "creme-brulee-recipes"},
		{"  --Go  1.24 -- release ", "go-1-24-release"},
		{"snake_case_title", "snake-case-title"},
		{"!!!???", "article"},
		{"日本語のタイトル", "article"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugify_TruncatesLongTitles(t *testing.T) {
	slug := Slugify(strings.Repeat("ab ", 150))
	assert.LessOrEqual(t, len(slug), maxBaseSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestNextSlug(t *testing.T) {
	assert.Equal(t, "post", NextSlug("post", nil))
	assert.Equal(t, "post", NextSlug("post", []string{"post-1", "posts"}))
	assert.Equal(t, "post-1", NextSlug("post", []string{"post"}))
	assert.Equal(t, "post-2", NextSlug("post", []string{"post", "post-1", "post-3"}))
}

func TestDeriveExcerpt(t *testing.T) {
	short := strings.TrimSpace(strings.Repeat("word ", 30))
	assert.Equal(t, short, DeriveExcerpt(short))

	long := strings.Repeat("word ", 31)
	assert.Equal(t, short+"...", DeriveExcerpt(long))

	assert.Equal(t, "spaced out words", DeriveExcerpt("  spaced \n out\twords "))
}

func TestDeriveExcerpt_RespectsMaximumLength(t *testing.T) {
	content := strings.Repeat(strings.Repeat("x", 40)+" ", 31)
	excerpt := DeriveExcerpt(content)
	assert.Len(t, []rune(excerpt), maxExcerptLength)
	assert.True(t, strings.HasSuffix(excerpt, "..."))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, "go,rust", NormalizeTags(" Go, go ,Rust,, "))
	assert.Equal(t, "", NormalizeTags(" , ,"))
	assert.Equal(t, "b,a", NormalizeTags("B,a,b"))
}

func TestDeriveDefaults(t *testing.T) {
	article := &models.Article{Title: "A Tale of Two Cities", Content: "It was the best of times"}
	DeriveDefaults(article)
	assert.Equal(t, "a-tale-of-two-cities", article.Slug)
	assert.Equal(t, "It was the best of times", article.Excerpt)

	kept := &models.Article{Title: "New title", Slug: "old-title", Content: "body text here", Excerpt: "custom"}
	DeriveDefaults(kept)
	assert.Equal(t, "old-title", kept.Slug)
	assert.Equal(t, "custom", kept.Excerpt)
}

func TestApplyStatusTransition(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	t.Run("publishing stamps published_at", func(t *testing.T) {
		a := &models.Article{Status: models.StatusPublished}
		ApplyStatusTransition(a, models.StatusDraft, now)
		assert.Equal(t, &now, a.PublishedAt)
	})

	t.Run("staying published keeps published_at", func(t *testing.T) {
		a := &models.Article{Status: models.StatusPublished, PublishedAt: &earlier}
		ApplyStatusTransition(a, models.StatusPublished, now)
		assert.Equal(t, &earlier, a.PublishedAt)
	})

	t.Run("unpublishing to draft clears published_at", func(t *testing.T) {
		a := &models.Article{Status: models.StatusDraft, PublishedAt: &earlier}
		ApplyStatusTransition(a, models.StatusPublished, now)
		assert.Nil(t, a.PublishedAt)
	})

	t.Run("archiving keeps published_at", func(t *testing.T) {
		a := &models.Article{Status: models.StatusArchived, PublishedAt: &earlier}
		ApplyStatusTransition(a, models.StatusPublished, now)
		assert.Equal(t, &earlier, a.PublishedAt)
	})

	t.Run("republishing from archive restamps", func(t *testing.T) {
		a := &models.Article{Status: models.StatusPublished, PublishedAt: &earlier}
		ApplyStatusTransition(a, models.StatusArchived, now)
		assert.Equal(t, &now, a.PublishedAt)
	})
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "bad", "content": "short"}}
	assert.Equal(t, "validation failed: content: short; title: bad", err.Error())
}
