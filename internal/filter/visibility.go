package filter

import (
	"github.com/siahsang/articles/internal/auth"
	"github.com/siahsang/articles/models"
)

// Visibility is the set of articles an identity may retrieve. It is applied
// before every other predicate and no query parameter can widen it.
type Visibility struct {
	Unrestricted bool
	ViewerID     int64
}

func VisibilityFor(identity auth.Identity) Visibility {
	if !identity.IsAuthenticated() {
		return Visibility{}
	}
	return Visibility{
		Unrestricted: identity.IsStaff,
		ViewerID:     identity.UserID,
	}
}

func (v Visibility) Allows(article *models.Article) bool {
	switch {
	case v.Unrestricted:
		return true
	case article.Status == models.StatusPublished:
		return true
	default:
		return v.ViewerID != 0 && article.Author.ID == v.ViewerID
	}
}

func (v Visibility) AppendSQL(c *Conditions) {
	switch {
	case v.Unrestricted:
	case v.ViewerID == 0:
		c.Add("a.status = ?", string(models.StatusPublished))
	default:
		c.Add("(a.status = ? OR a.author_id = ?)", string(models.StatusPublished), v.ViewerID)
	}
}
