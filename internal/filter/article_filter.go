package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/siahsang/articles/internal/validator"
	"github.com/siahsang/articles/models"
)

// ArticleFilter holds the optional field predicates of an article query.
// Every set predicate must hold; Tags and Search are disjunctions within
// themselves.
type ArticleFilter struct {
	Title          string
	Content        string
	Author         string
	AuthorContains string
	AuthorID       int64
	Status         models.Status
	Featured       *bool
	Tags           []string
	Search         string

	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	PublishedAfter  *time.Time
	PublishedBefore *time.Time

	MinViews *int64
	MaxViews *int64
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseArticleFilter reads the filter query parameters. Malformed values are
// reported on v under the parameter name.
func ParseArticleFilter(query url.Values, v *validator.Validator) ArticleFilter {
	f := ArticleFilter{
		Title:          strings.TrimSpace(query.Get("title")),
		Content:        strings.TrimSpace(query.Get("content")),
		Author:         strings.TrimSpace(query.Get("author")),
		AuthorContains: strings.TrimSpace(query.Get("author_contains")),
		Tags:           ParseTags(query.Get("tags")),
		Search:         strings.TrimSpace(query.Get("search")),
	}

	if status := strings.TrimSpace(query.Get("status")); status != "" {
		f.Status = models.Status(status)
		v.Check(f.Status.IsValid(), "status", "select a valid choice: draft, published or archived")
	}

	if featured := strings.TrimSpace(query.Get("featured")); featured != "" {
		b, err := strconv.ParseBool(featured)
		v.Check(err == nil, "featured", "must be a boolean")
		f.Featured = &b
	}

	f.CreatedAfter = readTime(query, "created_after", v)
	f.CreatedBefore = readTime(query, "created_before", v)
	f.PublishedAfter = readTime(query, "published_after", v)
	f.PublishedBefore = readTime(query, "published_before", v)
	f.MinViews = readCount(query, "min_views", v)
	f.MaxViews = readCount(query, "max_views", v)

	return f
}

// ParseTags splits a comma separated tag list into trimmed, lowercased,
// non-empty terms.
func ParseTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func readTime(query url.Values, key string, v *validator.Validator) *time.Time {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil
	}
	// An unescaped "+hh:mm" offset arrives decoded as a space.
	raw = strings.ReplaceAll(raw, " ", "+")
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	v.AddError(key, "must be a valid date or RFC 3339 timestamp")
	return nil
}

func readCount(query url.Values, key string, v *validator.Validator) *int64 {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		v.AddError(key, "must be an integer")
		return nil
	}
	return &n
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (f ArticleFilter) Matches(a *models.Article) bool {
	switch {
	case f.Title != "" && !containsFold(a.Title, f.Title):
		return false
	case f.Content != "" && !containsFold(a.Content, f.Content):
		return false
	case f.Author != "" && !strings.EqualFold(a.Author.Username, f.Author):
		return false
	case f.AuthorContains != "" && !containsFold(a.Author.Username, f.AuthorContains):
		return false
	case f.AuthorID != 0 && a.Author.ID != f.AuthorID:
		return false
	case f.Status != "" && a.Status != f.Status:
		return false
	case f.Featured != nil && a.Featured != *f.Featured:
		return false
	case f.CreatedAfter != nil && a.CreatedAt.Before(*f.CreatedAfter):
		return false
	case f.CreatedBefore != nil && a.CreatedAt.After(*f.CreatedBefore):
		return false
	case f.PublishedAfter != nil && (a.PublishedAt == nil || a.PublishedAt.Before(*f.PublishedAfter)):
		return false
	case f.PublishedBefore != nil && (a.PublishedAt == nil || a.PublishedAt.After(*f.PublishedBefore)):
		return false
	case f.MinViews != nil && a.ViewCount < *f.MinViews:
		return false
	case f.MaxViews != nil && a.ViewCount > *f.MaxViews:
		return false
	}

	if len(f.Tags) > 0 && !f.matchesAnyTag(a) {
		return false
	}
	if f.Search != "" && !f.matchesSearch(a) {
		return false
	}
	return true
}

func (f ArticleFilter) matchesAnyTag(a *models.Article) bool {
	for _, tag := range f.Tags {
		if containsFold(a.Tags, tag) {
			return true
		}
	}
	return false
}

func (f ArticleFilter) matchesSearch(a *models.Article) bool {
	for _, field := range []string{a.Title, a.Content, a.Tags, a.Author.Username, a.Author.FirstName, a.Author.LastName} {
		if containsFold(field, f.Search) {
			return true
		}
	}
	return false
}

func (f ArticleFilter) AppendSQL(c *Conditions) {
	if f.Title != "" {
		c.Add("a.title ILIKE ?", containsPattern(f.Title))
	}
	if f.Content != "" {
		c.Add("a.content ILIKE ?", containsPattern(f.Content))
	}
	if f.Author != "" {
		c.Add("lower(u.username) = lower(?)", f.Author)
	}
	if f.AuthorContains != "" {
		c.Add("u.username ILIKE ?", containsPattern(f.AuthorContains))
	}
	if f.AuthorID != 0 {
		c.Add("a.author_id = ?", f.AuthorID)
	}
	if f.Status != "" {
		c.Add("a.status = ?", string(f.Status))
	}
	if f.Featured != nil {
		c.Add("a.featured = ?", *f.Featured)
	}
	if len(f.Tags) > 0 {
		terms := make([]string, len(f.Tags))
		args := make([]any, len(f.Tags))
		for i, tag := range f.Tags {
			terms[i] = "a.tags ILIKE ?"
			args[i] = containsPattern(tag)
		}
		c.Add("("+strings.Join(terms, " OR ")+")", args...)
	}
	if f.CreatedAfter != nil {
		c.Add("a.created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		c.Add("a.created_at <= ?", *f.CreatedBefore)
	}
	if f.PublishedAfter != nil {
		c.Add("a.published_at >= ?", *f.PublishedAfter)
	}
	if f.PublishedBefore != nil {
		c.Add("a.published_at <= ?", *f.PublishedBefore)
	}
	if f.MinViews != nil {
		c.Add("a.view_count >= ?", *f.MinViews)
	}
	if f.MaxViews != nil {
		c.Add("a.view_count <= ?", *f.MaxViews)
	}
	if f.Search != "" {
		p := containsPattern(f.Search)
		c.Add("(a.title ILIKE ? OR a.content ILIKE ? OR a.tags ILIKE ? OR u.username ILIKE ? OR u.first_name ILIKE ? OR u.last_name ILIKE ?)",
			p, p, p, p, p, p)
	}
}
