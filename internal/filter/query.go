package filter

import "github.com/siahsang/articles/models"

// Query is a fully shaped article collection request.
type Query struct {
	Visibility Visibility
	Filter     ArticleFilter
	Ordering   Ordering
	Page       Filter
}

func (q Query) Matches(a *models.Article) bool {
	return q.Visibility.Allows(a) && q.Filter.Matches(a)
}

// Conditions renders visibility first, then the field predicates.
func (q Query) Conditions() *Conditions {
	c := &Conditions{}
	q.Visibility.AppendSQL(c)
	q.Filter.AppendSQL(c)
	return c
}
