// Package schema infers column types from a sample row so filters can pick
// the right comparison for each column.
package schema

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/lrsystem/lrsystem/internal/store"
)

// ColumnType is the inferred type of a column.
type ColumnType string

const (
	Text   ColumnType = "texto"
	Number ColumnType = "numero"
	Date   ColumnType = "fecha"
)

// Column is one named, typed column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// TableSchema is the ordered set of columns of a table. An empty schema
// means the table could not be sampled; callers treat every column as text.
type TableSchema struct {
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

// Empty reports whether no columns could be inferred.
func (s TableSchema) Empty() bool { return len(s.Columns) == 0 }

// Lookup returns the type of name and whether the column exists.
func (s TableSchema) Lookup(name string) (ColumnType, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// TypeOf returns the inferred type of name, defaulting to Text.
func (s TableSchema) TypeOf(name string) ColumnType {
	if t, ok := s.Lookup(name); ok {
		return t
	}
	return Text
}

// OfType lists the column names with the given type, in schema order.
func (s TableSchema) OfType(t ColumnType) []string {
	var out []string
	for _, c := range s.Columns {
		if c.Type == t {
			out = append(out, c.Name)
		}
	}
	return out
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),
}

// Introspector samples one row per call. Results are never cached; only
// concurrent samples of the same table share a single store round trip.
type Introspector struct {
	store store.Store
	sf    singleflight.Group
}

func NewIntrospector(s store.Store) *Introspector {
	return &Introspector{store: s}
}

// sampleTimeout bounds the shared sample, which outlives any single caller.
const sampleTimeout = 15 * time.Second

// Inspect returns the inferred schema of table. Store errors and empty
// tables yield an empty schema rather than an error. A caller whose ctx ends
// first gets an empty schema; callers sharing the same sample are unaffected.
func (i *Introspector) Inspect(ctx context.Context, table string) TableSchema {
	ch := i.sf.DoChan(table, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sampleTimeout)
		defer cancel()
		rows, err := i.store.Select(sctx, store.Query{Table: table, Limit: 1})
		if err != nil {
			log.Warn().Err(err).Str("table", table).Msg("schema sample failed")
			return TableSchema{Table: table}, nil
		}
		if len(rows) == 0 {
			return TableSchema{Table: table}, nil
		}
		return Infer(table, rows[0]), nil
	})
	select {
	case res := <-ch:
		return res.Val.(TableSchema)
	case <-ctx.Done():
		return TableSchema{Table: table}
	}
}

// Infer classifies every field of a sample row. Columns are returned in
// name order since rows carry no column ordering of their own.
func Infer(table string, row store.Row) TableSchema {
	names := make([]string, 0, len(row))
	for k := range row {
		names = append(names, k)
	}
	sort.Strings(names)

	ts := TableSchema{Table: table, Columns: make([]Column, 0, len(names))}
	for _, n := range names {
		ts.Columns = append(ts.Columns, Column{Name: n, Type: Classify(row[n])})
	}
	return ts
}

// Classify maps a sampled value to a column type.
func Classify(v any) ColumnType {
	switch t := v.(type) {
	case nil:
		return Text
	case time.Time:
		return Date
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return Number
	case string:
		if LooksLikeDate(t) {
			return Date
		}
		return Text
	}
	return Text
}

// LooksLikeDate reports whether s matches one of the recognised date shapes
// or parses as a full timestamp.
func LooksLikeDate(s string) bool {
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	_, ok := ParseDate(s)
	return ok
}

var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDate tries the supported layouts in order. Bare dates are read as
// UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
