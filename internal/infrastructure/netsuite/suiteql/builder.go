// Package suiteql builds structured ERP read queries. Identifiers are
// validated and every literal goes through Quote, so callers never
// concatenate user data into query text.
package suiteql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidIdentifier is returned for table or column names that are not
// plain identifiers
var ErrInvalidIdentifier = errors.New("suiteql: invalid identifier")

// ErrEmptyList is returned for an IN condition without values
var ErrEmptyList = errors.New("suiteql: empty value list")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

var lower = cases.Lower(language.Und)

// Quote returns v as a string literal with single quotes doubled
func Quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func identifier(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return name, nil
}

// ---------------------------------------------------------------------------
// Conditions
// ---------------------------------------------------------------------------

// Condition is one WHERE predicate. Construction errors are carried until
// the query is built.
type Condition struct {
	expr string
	err  error
}

func column(col string, format string, args ...any) Condition {
	name, err := identifier(col)
	if err != nil {
		return Condition{err: err}
	}
	return Condition{expr: fmt.Sprintf(format, append([]any{name}, args...)...)}
}

// Eq is col = 'value'
func Eq(col, value string) Condition {
	return column(col, "%s = %s", Quote(value))
}

// EqFold is a case-insensitive equality
func EqFold(col, value string) Condition {
	return column(col, "LOWER(%s) = %s", Quote(lower.String(value)))
}

// Like is a case-insensitive substring match. LIKE wildcards in value are
// matched literally.
func Like(col, value string) Condition {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(lower.String(value))
	return column(col, `LOWER(%s) LIKE %s ESCAPE '\'`, Quote("%"+escaped+"%"))
}

// In is col IN ('a', 'b', ...)
func In(col string, values ...string) Condition {
	if len(values) == 0 {
		return Condition{err: fmt.Errorf("%w: %s", ErrEmptyList, col)}
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = Quote(v)
	}
	return column(col, "%s IN (%s)", strings.Join(quoted, ", "))
}

// IsNull is col IS NULL
func IsNull(col string) Condition {
	return column(col, "%s IS NULL")
}

// And joins conditions with AND
func And(conds ...Condition) Condition {
	return join(" AND ", conds)
}

// Or joins conditions with OR
func Or(conds ...Condition) Condition {
	return join(" OR ", conds)
}

func join(sep string, conds []Condition) Condition {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		if c.err != nil {
			return c
		}
		if c.expr != "" {
			parts = append(parts, c.expr)
		}
	}
	switch len(parts) {
	case 0:
		return Condition{}
	case 1:
		return Condition{expr: parts[0]}
	}
	return Condition{expr: "(" + strings.Join(parts, sep) + ")"}
}

// String returns the rendered predicate
func (c Condition) String() string {
	return c.expr
}

// Err returns the construction error, if any
func (c Condition) Err() error {
	return c.err
}

// ---------------------------------------------------------------------------
// Query
// ---------------------------------------------------------------------------

// Query is a SELECT statement under construction
type Query struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	errs    []error
}

// Select starts a query over the given columns
func Select(cols ...string) *Query {
	q := &Query{}
	for _, c := range cols {
		name, err := identifier(c)
		if err != nil {
			q.errs = append(q.errs, err)
			continue
		}
		q.columns = append(q.columns, name)
	}
	return q
}

// Display adds BUILTIN.DF(col) AS alias, the display text of a list field
func (q *Query) Display(col, alias string) *Query {
	name, err := identifier(col)
	if err != nil {
		q.errs = append(q.errs, err)
		return q
	}
	as, err := identifier(alias)
	if err != nil {
		q.errs = append(q.errs, err)
		return q
	}
	q.columns = append(q.columns, fmt.Sprintf("BUILTIN.DF(%s) AS %s", name, as))
	return q
}

// From sets the table
func (q *Query) From(table string) *Query {
	name, err := identifier(table)
	if err != nil {
		q.errs = append(q.errs, err)
		return q
	}
	q.table = name
	return q
}

// Where adds conditions, joined with AND
func (q *Query) Where(conds ...Condition) *Query {
	q.where = append(q.where, conds...)
	return q
}

// OrderBy adds ascending sort columns
func (q *Query) OrderBy(cols ...string) *Query {
	return q.order("", cols)
}

// OrderByDesc adds descending sort columns
func (q *Query) OrderByDesc(cols ...string) *Query {
	return q.order(" DESC", cols)
}

func (q *Query) order(direction string, cols []string) *Query {
	for _, c := range cols {
		name, err := identifier(c)
		if err != nil {
			q.errs = append(q.errs, err)
			continue
		}
		q.orderBy = append(q.orderBy, name+direction)
	}
	return q
}

// Build renders the query text
func (q *Query) Build() (string, error) {
	if err := errors.Join(q.errs...); err != nil {
		return "", err
	}
	if len(q.columns) == 0 || q.table == "" {
		return "", errors.New("suiteql: query needs columns and a table")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(q.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(q.table)

	parts := make([]string, 0, len(q.where))
	for _, c := range q.where {
		if c.err != nil {
			return "", c.err
		}
		if c.expr != "" {
			parts = append(parts, c.expr)
		}
	}
	if len(parts) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}
	if len(q.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(q.orderBy, ", "))
	}
	return sb.String(), nil
}

// MustBuild is Build for queries built only from constants. It panics on error.
func (q *Query) MustBuild() string {
	s, err := q.Build()
	if err != nil {
		panic(err)
	}
	return s
}
