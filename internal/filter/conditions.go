package filter

import (
	"strconv"
	"strings"
)

// Conditions accumulates AND-ed SQL predicates. Clauses are written with
// `?` placeholders which are renumbered to PostgreSQL `$n` as they are added.
type Conditions struct {
	clauses []string
	args    []any
}

func (c *Conditions) Add(clause string, args ...any) {
	var sb strings.Builder
	next := len(c.args) + 1
	for _, r := range clause {
		if r == '?' {
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(next))
			next++
			continue
		}
		sb.WriteRune(r)
	}
	c.clauses = append(c.clauses, sb.String())
	c.args = append(c.args, args...)
}

func (c *Conditions) Where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.clauses, " AND ")
}

func (c *Conditions) Args() []any {
	return c.args
}

// Placeholder returns the placeholder the next argument will bind to.
func (c *Conditions) Placeholder(offset int) string {
	return "$" + strconv.Itoa(len(c.args)+1+offset)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

func PrefixPattern(value string) string {
	return likeEscaper.Replace(value) + "%"
}
