package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// identifierRegex validates table and column names before they are quoted
// into SQL text. Values always travel as $N parameters.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var reservedWords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"DROP": true, "CREATE": true, "ALTER": true, "TRUNCATE": true,
	"EXEC": true, "EXECUTE": true, "UNION": true, "INTO": true,
	"FROM": true, "WHERE": true, "GRANT": true, "REVOKE": true,
}

var sqlOperators = map[Operator]string{
	OpEq:    "=",
	OpNeq:   "<>",
	OpGt:    ">",
	OpGte:   ">=",
	OpLt:    "<",
	OpLte:   "<=",
	OpILike: "ILIKE",
}

// ValidateIdentifier rejects names that are empty, too long, outside
// [a-zA-Z_][a-zA-Z0-9_]* or SQL keywords.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("identifier too long (max 63 chars): %q", name)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	if reservedWords[strings.ToUpper(name)] {
		return fmt.Errorf("identifier %q is a SQL reserved word", name)
	}
	return nil
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqlBuilder accumulates SQL text and positional arguments.
type sqlBuilder struct {
	b    strings.Builder
	args []any
}

func (s *sqlBuilder) param(v any) string {
	s.args = append(s.args, v)
	return fmt.Sprintf("$%d", len(s.args))
}

func (s *sqlBuilder) table(schema, table string) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if schema != "" {
		s.b.WriteString(quote(schema))
		s.b.WriteString(".")
	}
	s.b.WriteString(quote(table))
	return nil
}

func (s *sqlBuilder) predicate(p Predicate) error {
	if err := ValidateIdentifier(p.Column); err != nil {
		return err
	}
	op, ok := sqlOperators[p.Op]
	if !ok {
		return fmt.Errorf("unsupported operator %q", p.Op)
	}
	if p.Value == nil {
		switch p.Op {
		case OpEq:
			s.b.WriteString(quote(p.Column) + " IS NULL")
			return nil
		case OpNeq:
			s.b.WriteString(quote(p.Column) + " IS NOT NULL")
			return nil
		}
	}
	s.b.WriteString(quote(p.Column) + " " + op + " " + s.param(p.Value))
	return nil
}

func (s *sqlBuilder) where(all, anyOf []Predicate) error {
	if len(all) == 0 && len(anyOf) == 0 {
		return nil
	}
	s.b.WriteString(" WHERE ")
	for i, p := range all {
		if i > 0 {
			s.b.WriteString(" AND ")
		}
		if err := s.predicate(p); err != nil {
			return err
		}
	}
	if len(anyOf) > 0 {
		if len(all) > 0 {
			s.b.WriteString(" AND ")
		}
		s.b.WriteString("(")
		for i, p := range anyOf {
			if i > 0 {
				s.b.WriteString(" OR ")
			}
			if err := s.predicate(p); err != nil {
				return err
			}
		}
		s.b.WriteString(")")
	}
	return nil
}

// BuildSelect renders q as a parameterized PostgreSQL SELECT.
func BuildSelect(schema string, q Query) (string, []any, error) {
	var s sqlBuilder
	s.b.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		s.b.WriteString("*")
	} else {
		for i, c := range q.Columns {
			if err := ValidateIdentifier(c); err != nil {
				return "", nil, err
			}
			if i > 0 {
				s.b.WriteString(", ")
			}
			s.b.WriteString(quote(c))
		}
	}
	s.b.WriteString(" FROM ")
	if err := s.table(schema, q.Table); err != nil {
		return "", nil, err
	}
	if err := s.where(q.Where, q.AnyOf); err != nil {
		return "", nil, err
	}
	if q.Order != nil {
		if err := ValidateIdentifier(q.Order.Column); err != nil {
			return "", nil, fmt.Errorf("invalid order column: %w", err)
		}
		dir := "ASC"
		if !q.Order.Ascending {
			dir = "DESC"
		}
		s.b.WriteString(" ORDER BY " + quote(q.Order.Column) + " " + dir)
	}
	if q.Limit > 0 {
		s.b.WriteString(" LIMIT " + s.param(q.Limit))
	}
	if q.Offset > 0 {
		s.b.WriteString(" OFFSET " + s.param(q.Offset))
	}
	return s.b.String(), s.args, nil
}

// BuildInsert renders a multi-row INSERT ... RETURNING *. Columns come from
// the first row in sorted order; later rows must carry the same keys.
func BuildInsert(schema, table string, rows []Row) (string, []any, error) {
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("at least one row is required")
	}
	columns := sortedKeys(rows[0])
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("row has no columns")
	}

	var s sqlBuilder
	s.b.WriteString("INSERT INTO ")
	if err := s.table(schema, table); err != nil {
		return "", nil, err
	}
	s.b.WriteString(" (")
	for i, c := range columns {
		if err := ValidateIdentifier(c); err != nil {
			return "", nil, err
		}
		if i > 0 {
			s.b.WriteString(", ")
		}
		s.b.WriteString(quote(c))
	}
	s.b.WriteString(") VALUES ")
	for ri, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("row %d has %d columns, want %d", ri, len(row), len(columns))
		}
		if ri > 0 {
			s.b.WriteString(", ")
		}
		s.b.WriteString("(")
		for ci, c := range columns {
			v, ok := row[c]
			if !ok {
				return "", nil, fmt.Errorf("row %d is missing column %q", ri, c)
			}
			if ci > 0 {
				s.b.WriteString(", ")
			}
			s.b.WriteString(s.param(v))
		}
		s.b.WriteString(")")
	}
	s.b.WriteString(" RETURNING *")
	return s.b.String(), s.args, nil
}

// BuildUpdate renders UPDATE ... SET ... WHERE ... RETURNING *. An empty
// where clause is refused so a missing id never rewrites a whole table.
func BuildUpdate(schema, table string, values Row, where []Predicate) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, fmt.Errorf("no values to update")
	}
	if len(where) == 0 {
		return "", nil, fmt.Errorf("update without predicates is not allowed")
	}

	var s sqlBuilder
	s.b.WriteString("UPDATE ")
	if err := s.table(schema, table); err != nil {
		return "", nil, err
	}
	s.b.WriteString(" SET ")
	for i, c := range sortedKeys(values) {
		if err := ValidateIdentifier(c); err != nil {
			return "", nil, err
		}
		if i > 0 {
			s.b.WriteString(", ")
		}
		s.b.WriteString(quote(c) + " = " + s.param(values[c]))
	}
	if err := s.where(where, nil); err != nil {
		return "", nil, err
	}
	s.b.WriteString(" RETURNING *")
	return s.b.String(), s.args, nil
}

// BuildDelete renders DELETE ... WHERE ... RETURNING *.
func BuildDelete(schema, table string, where []Predicate) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, fmt.Errorf("delete without predicates is not allowed")
	}
	var s sqlBuilder
	s.b.WriteString("DELETE FROM ")
	if err := s.table(schema, table); err != nil {
		return "", nil, err
	}
	if err := s.where(where, nil); err != nil {
		return "", nil, err
	}
	s.b.WriteString(" RETURNING *")
	return s.b.String(), s.args, nil
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
