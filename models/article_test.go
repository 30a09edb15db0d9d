package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestArticle_ReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 1},
		{50, 1},
		{200, 1},
		{300, 2},
		{450, 2},
		{500, 2},
		{700, 4},
		{1000, 5},
	}

	for _, tt := range tests {
		a := &Article{Content: words(tt.words)}
		assert.Equal(t, tt.want, a.ReadingTime(), "reading time for %d words", tt.words)
	}
}

func TestArticle_WordCount(t *testing.T) {
	a := &Article{Content: "  one\ttwo\n\nthree   four "}
	assert.Equal(t, 4, a.WordCount())
}

func TestArticle_TagsList(t *testing.T) {
	a := &Article{Tags: "go, api ,, testing"}
	assert.Equal(t, []string{"go", "api", "testing"}, a.TagsList())

	empty := &Article{}
	assert.Empty(t, empty.TagsList())
}

func TestArticle_IsPublished(t *testing.T) {
	assert.True(t, (&Article{Status: StatusPublished}).IsPublished())
	assert.False(t, (&Article{Status: StatusDraft}).IsPublished())
	assert.False(t, (&Article{Status: StatusArchived}).IsPublished())
}

func TestArticle_CloneCopiesPublishedAt(t *testing.T) {
	now := time.Now()
	a := &Article{ID: 1, PublishedAt: &now}
	clone := a.Clone()

	later := now.Add(time.Hour)
	*clone.PublishedAt = later

	assert.Equal(t, now, *a.PublishedAt)
}

func TestStatus_IsValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.IsValid())
	}
	assert.False(t, Status("deleted").IsValid())
}
