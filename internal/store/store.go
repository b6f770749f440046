// Package store is the backing-store boundary: a small predicate vocabulary
// (eq, neq, gt, gte, lt, lte, ilike, or-of-ilike, order, range) executed either
// against PostgreSQL or an in-memory table set.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by First when the query matched no rows.
var ErrNotFound = errors.New("no rows found")

// Row is a single record keyed by column name.
type Row = map[string]any

// Operator is a comparison understood by every Store implementation.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpILike Operator = "ilike"
)

// Valid reports whether op is part of the vocabulary.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpILike:
		return true
	}
	return false
}

// Predicate compares one column against a value.
type Predicate struct {
	Column string   `json:"column"`
	Op     Operator `json:"operator"`
	Value  any      `json:"value"`
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s.%s.%v", p.Column, p.Op, p.Value)
}

// Eq is shorthand for an equality predicate.
func Eq(column string, value any) Predicate {
	return Predicate{Column: column, Op: OpEq, Value: value}
}

// Order sorts results by a single column.
type Order struct {
	Column    string
	Ascending bool
}

// Query describes a select. Where predicates are ANDed; AnyOf predicates
// form one OR group that is ANDed with Where.
type Query struct {
	Table   string
	Columns []string
	Where   []Predicate
	AnyOf   []Predicate
	Order   *Order
	Limit   int
	Offset  int
}

// Range sets Offset/Limit from an inclusive row range.
func (q *Query) Range(from, to int) {
	if from < 0 {
		from = 0
	}
	q.Offset = from
	q.Limit = to - from + 1
	if q.Limit < 0 {
		q.Limit = 0
	}
}

// Store is implemented by the Postgres and in-memory backends. Handles are
// safe for concurrent use and hold no per-request state.
type Store interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	Update(ctx context.Context, table string, values Row, where []Predicate) ([]Row, error)
	Delete(ctx context.Context, table string, where []Predicate) ([]Row, error)
	Ping(ctx context.Context) error
}

// First runs q limited to one row and returns ErrNotFound when nothing
// matched.
func First(ctx context.Context, s Store, q Query) (Row, error) {
	q.Limit = 1
	rows, err := s.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}
