package query

import (
	"strconv"
	"strings"
)

// Select is a single-table SELECT statement. Where clauses are ANDed.
type Select struct {
	table   string
	columns []string
	where   []Predicate
	orderBy []string
	limit   int
	offset  int
	denied  bool
}

func From(table string) *Select {
	return &Select{table: table}
}

func (s *Select) Columns(columns ...string) *Select {
	s.columns = append(s.columns, columns...)
	return s
}

func (s *Select) Where(p Predicate) *Select {
	s.where = append(s.where, p)
	return s
}

func (s *Select) OrderBy(exprs ...string) *Select {
	s.orderBy = append(s.orderBy, exprs...)
	return s
}

func (s *Select) Limit(n int) *Select {
	s.limit = n
	return s
}

func (s *Select) Offset(n int) *Select {
	s.offset = n
	return s
}

// Deny constrains the statement to return no rows.
func (s *Select) Deny() *Select {
	s.denied = true
	return s.Where(False())
}

// Denied reports whether the statement was constrained to no rows. Callers
// may skip executing it.
func (s *Select) Denied() bool {
	return s.denied
}

func (s *Select) Table() string {
	return s.table
}

func (s *Select) LimitValue() int {
	return s.limit
}

func (s *Select) OffsetValue() int {
	return s.offset
}

// Predicate returns the combined where clause.
func (s *Select) Predicate() Predicate {
	return And(s.where...)
}

// Matches evaluates the where clause against a single row.
func (s *Select) Matches(row Row) bool {
	return !s.denied && s.Predicate().Eval(row)
}

// Build renders the statement and its positional arguments.
func (s *Select) Build() (string, []any) {
	var b strings.Builder
	args := &Args{}

	b.WriteString("SELECT ")
	if len(s.columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(s.columns, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(s.table)

	if len(s.where) > 0 {
		parts := make([]string, len(s.where))
		for i, p := range s.where {
			parts[i] = p.SQL(args)
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(parts, " AND "))
	}
	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.orderBy, ", "))
	}
	if s.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(s.limit))
	}
	if s.offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(s.offset))
	}
	return b.String(), args.Values()
}
