package models

import (
	"math"
	"strings"
)

const wordsPerMinute = 200

func (a *Article) WordCount() int {
	return len(strings.Fields(a.Content))
}

// ReadingTime is the estimated reading time in minutes, never less than one.
// Halves round to even: 300 words is 2 minutes, 500 words is 2 minutes.
func (a *Article) ReadingTime() int {
	minutes := int(math.RoundToEven(float64(a.WordCount()) / wordsPerMinute))
	return max(1, minutes)
}

func (a *Article) TagsList() []string {
	tags := []string{}
	for _, tag := range strings.Split(a.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (a *Article) IsPublished() bool {
	return a.Status == StatusPublished
}

func (a *Article) Clone() *Article {
	clone := *a
	if a.PublishedAt != nil {
		publishedAt := *a.PublishedAt
		clone.PublishedAt = &publishedAt
	}
	return &clone
}
