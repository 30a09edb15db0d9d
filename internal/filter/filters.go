package filter

import "github.com/siahsang/articles/internal/validator"

const (
	DefaultLimit = 20
	MaxLimit     = 100
	MaxOffset    = 10_000_000
)

// Filter is the pagination window applied after visibility, predicates and
// ordering.
type Filter struct {
	Limit  int64
	Offset int64
}

type Metadata struct {
	Count  int64 `json:"count"`
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func NewFilter(limit, offset int64) Filter {
	return Filter{
		Limit:  limit,
		Offset: offset,
	}
}

func ValidateFilters(filters Filter, v *validator.Validator) {
	v.Check(filters.Limit > 0, "limit", "must be greater than 0")
	v.Check(filters.Limit <= MaxLimit, "limit", "must be a maximum of 100")
	v.Check(filters.Offset >= 0, "offset", "must be greater than or equal to 0")
	v.Check(filters.Offset <= MaxOffset, "offset", "must be a maximum of 10_000_000")
}

func (f Filter) Metadata(count int64) Metadata {
	return Metadata{Count: count, Limit: f.Limit, Offset: f.Offset}
}
