package resolver

import (
	"errors"
	"fmt"
)

// ErrNoMatch is wrapped by every MatchError.
var ErrNoMatch = errors.New("no match for filter")

// MatchError reports a filter that resolved to neither a column of the
// queried table nor a value in any related table.
type MatchError struct {
	Key   string
	Value any
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("no match for filter %q", fmt.Sprintf("%s: %v", e.Key, e.Value))
}

func (e *MatchError) Unwrap() error { return ErrNoMatch }

// QueryError wraps a backing-store failure raised while resolving or
// executing a query.
type QueryError struct {
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Table, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
