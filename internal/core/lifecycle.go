package core

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/siahsang/articles/internal/filter"
	"github.com/siahsang/articles/internal/utils/collectionutils"
	"github.com/siahsang/articles/internal/utils/functional"
	"github.com/siahsang/articles/models"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	fallbackSlug      = "article"
	maxBaseSlugLength = 200
	excerptWords      = 30
	maxExcerptLength  = 500
	excerptEllipsis   = "..."
)

// Slugify folds the title to ASCII and joins its alphanumeric runs with
// single hyphens.
func Slugify(title string) string {
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}

	var sb strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := sb.String()
	if len(slug) > maxBaseSlugLength {
		slug = strings.TrimRight(slug[:maxBaseSlugLength], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// NextSlug returns the first of base, base-1, base-2, ... that is not taken.
func NextSlug(base string, taken []string) string {
	used := collectionutils.SetOf(taken)
	if !used.Contains(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !used.Contains(candidate) {
			return candidate
		}
	}
}

func DeriveExcerpt(content string) string {
	words := strings.Fields(content)
	truncated := len(words) > excerptWords
	if truncated {
		words = words[:excerptWords]
	}

	excerpt := strings.Join(words, " ")
	if truncated {
		excerpt += excerptEllipsis
	}
	if utf8.RuneCountInString(excerpt) > maxExcerptLength {
		r := []rune(excerpt)
		excerpt = string(r[:maxExcerptLength-len(excerptEllipsis)]) + excerptEllipsis
	}
	return excerpt
}

// NormalizeTags lowercases and trims every tag, drops empties and repeats,
// and keeps first-seen order.
func NormalizeTags(raw string) string {
	return strings.Join(functional.Distinct(filter.ParseTags(raw)), ",")
}

// DeriveDefaults fills the base slug and a missing excerpt. Slug uniqueness
// is settled at insert time.
func DeriveDefaults(article *models.Article) {
	if article.Slug == "" {
		article.Slug = Slugify(article.Title)
	}
	if strings.TrimSpace(article.Excerpt) == "" {
		article.Excerpt = DeriveExcerpt(article.Content)
	}
}

func ApplyStatusTransition(article *models.Article, previous models.Status, now time.Time) {
	switch {
	case article.Status == models.StatusPublished && previous != models.StatusPublished:
		publishedAt := now
		article.PublishedAt = &publishedAt
	case article.Status == models.StatusDraft && previous == models.StatusPublished:
		article.PublishedAt = nil
	}
}
