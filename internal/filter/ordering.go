package filter

import (
	"cmp"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/models"
)

var ErrUnknownOrderingField = xerrors.Message("unknown ordering field")

var orderingColumns = map[string]string{
	"title":        "a.title",
	"created_at":   "a.created_at",
	"updated_at":   "a.updated_at",
	"published_at": "a.published_at",
	"view_count":   "a.view_count",
	"status":       "a.status",
}

type OrderField struct {
	Field      string
	Descending bool
}

type Ordering []OrderField

// DefaultOrdering is newest first.
var DefaultOrdering = Ordering{{Field: "created_at", Descending: true}}

// ParseOrdering reads a comma separated list such as "-view_count,title".
// An empty value yields DefaultOrdering.
func ParseOrdering(raw string) (Ordering, error) {
	var ordering Ordering
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		field := OrderField{Field: strings.TrimPrefix(term, "-"), Descending: strings.HasPrefix(term, "-")}
		if _, ok := orderingColumns[field.Field]; !ok {
			return nil, xerrors.Newf("%w: %q", ErrUnknownOrderingField, field.Field)
		}
		ordering = append(ordering, field)
	}
	if len(ordering) == 0 {
		return DefaultOrdering, nil
	}
	return ordering, nil
}

func (o Ordering) orDefault() Ordering {
	if len(o) == 0 {
		return DefaultOrdering
	}
	return o
}

// SQL renders the ORDER BY clause. The id of the last field's direction
// breaks ties so pages are stable.
func (o Ordering) SQL() string {
	o = o.orDefault()
	terms := make([]string, 0, len(o)+1)
	for _, field := range o {
		terms = append(terms, orderingColumns[field.Field]+direction(field.Descending))
	}
	terms = append(terms, "a.id"+direction(o[len(o)-1].Descending))
	return "ORDER BY " + strings.Join(terms, ", ")
}

func direction(descending bool) string {
	if descending {
		return " DESC"
	}
	return " ASC"
}

// Compare orders articles the way SQL does, including PostgreSQL's
// placement of NULL published_at values (last ascending, first descending).
func (o Ordering) Compare(a, b *models.Article) int {
	o = o.orDefault()
	for _, field := range o {
		if c := compareField(field.Field, a, b); c != 0 {
			if field.Descending {
				return -c
			}
			return c
		}
	}
	c := cmp.Compare(a.ID, b.ID)
	if o[len(o)-1].Descending {
		return -c
	}
	return c
}

func compareField(field string, a, b *models.Article) int {
	switch field {
	case "title":
		return cmp.Compare(a.Title, b.Title)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "view_count":
		return cmp.Compare(a.ViewCount, b.ViewCount)
	case "status":
		return cmp.Compare(a.Status, b.Status)
	case "published_at":
		switch {
		case a.PublishedAt == nil && b.PublishedAt == nil:
			return 0
		case a.PublishedAt == nil:
			return 1
		case b.PublishedAt == nil:
			return -1
		default:
			return a.PublishedAt.Compare(*b.PublishedAt)
		}
	}
	return 0
}
