package models

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

var Statuses = []Status{StatusDraft, StatusPublished, StatusArchived}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"-"`
}

type Author struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	Author      Author     `json:"author"`
	Status      Status     `json:"status"`
	Featured    bool       `json:"featured"`
	ViewCount   int64      `json:"view_count"`
	Tags        string     `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

// Stats summarizes the articles visible to one identity. The My* fields
// are only set for authenticated callers.
type Stats struct {
	TotalArticles     int64  `json:"total_articles"`
	PublishedArticles int64  `json:"published_articles"`
	DraftArticles     int64  `json:"draft_articles"`
	FeaturedArticles  int64  `json:"featured_articles"`
	TotalViews        int64  `json:"total_views"`
	MyArticles        *int64 `json:"my_articles,omitempty"`
	MyPublished       *int64 `json:"my_published,omitempty"`
	MyDrafts          *int64 `json:"my_drafts,omitempty"`
}
