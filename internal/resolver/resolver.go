// Package resolver turns a table name and a loose set of filters into an
// executed query. Filters naming a column of the table are typed and applied
// directly; anything else is looked up by approximate value in the related
// tables and rewritten into a foreign-key equality.
package resolver

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/filter"
	"github.com/lrsystem/lrsystem/internal/fuzzy"
	"github.com/lrsystem/lrsystem/internal/metrics"
	"github.com/lrsystem/lrsystem/internal/schema"
	"github.com/lrsystem/lrsystem/internal/store"
)

// Options tunes relation lookup and value correction.
type Options struct {
	// RelatedTables are tried in order for filters that name no column of
	// the queried table.
	RelatedTables []string
	// RelationThreshold is the minimum score for a related-table match.
	RelationThreshold float64
	// CorrectionThreshold is the minimum score for replacing a typed text
	// value with the stored spelling.
	CorrectionThreshold float64
	// CandidateLimit bounds the rows read when collecting match candidates.
	CandidateLimit int
}

// DefaultOptions returns the stock relation set and thresholds.
func DefaultOptions() Options {
	return Options{
		RelatedTables:       catalog.RelatedTables(),
		RelationThreshold:   fuzzy.RelationThreshold,
		CorrectionThreshold: fuzzy.CorrectionThreshold,
		CandidateLimit:      1000,
	}
}

// QueryResult is the outcome of one resolved query.
type QueryResult struct {
	Table          string            `json:"tabla"`
	Rows           []store.Row       `json:"datos"`
	AppliedFilters []store.Predicate `json:"filtros_aplicados"`
}

// Resolver is safe for concurrent use.
type Resolver struct {
	store      store.Store
	schemas    *schema.Introspector
	normalizer *filter.Normalizer
	opts       Options
}

func New(s store.Store, schemas *schema.Introspector, n *filter.Normalizer, opts Options) *Resolver {
	def := DefaultOptions()
	if opts.RelatedTables == nil {
		opts.RelatedTables = def.RelatedTables
	}
	if opts.RelationThreshold <= 0 {
		opts.RelationThreshold = def.RelationThreshold
	}
	if opts.CorrectionThreshold <= 0 {
		opts.CorrectionThreshold = def.CorrectionThreshold
	}
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = def.CandidateLimit
	}
	return &Resolver{store: s, schemas: schemas, normalizer: n, opts: opts}
}

// Resolve resolves filters against table and runs the query.
func (r *Resolver) Resolve(ctx context.Context, table string, filters map[string]any) (QueryResult, error) {
	return r.ResolveQuery(ctx, store.Query{Table: table}, filters)
}

// ResolveQuery is Resolve with a caller supplied base query, used to carry
// ordering, ranges and pre-built predicates.
func (r *Resolver) ResolveQuery(ctx context.Context, base store.Query, filters map[string]any) (QueryResult, error) {
	q, applied, err := r.Build(ctx, base, filters)
	if err != nil {
		return QueryResult{}, err
	}
	rows, err := r.store.Select(ctx, q)
	if err != nil {
		return QueryResult{}, &QueryError{Table: q.Table, Err: err}
	}
	log.Debug().
		Str("table", q.Table).
		Int("filters", len(applied)).
		Int("rows", len(rows)).
		Msg("query resolved")
	return QueryResult{Table: q.Table, Rows: rows, AppliedFilters: applied}, nil
}

// Build resolves every filter into predicates appended to base.Where. The
// returned slice holds only the predicates derived from filters.
func (r *Resolver) Build(ctx context.Context, base store.Query, filters map[string]any) (store.Query, []store.Predicate, error) {
	ts := r.schemas.Inspect(ctx, base.Table)

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := base
	q.Where = slices.Clone(base.Where)
	applied := make([]store.Predicate, 0, len(keys))
	for _, key := range keys {
		value := filters[key]
		var (
			p   store.Predicate
			err error
		)
		if r.isDirect(ts, key) {
			p, err = r.direct(ctx, base.Table, ts, key, value)
		} else {
			p, err = r.related(ctx, key, value)
		}
		if err != nil {
			return store.Query{}, nil, err
		}
		q.Where = append(q.Where, p)
		applied = append(applied, p)
	}
	return q, applied, nil
}

// isDirect reports whether key names a column of the queried table. With no
// schema available every bare key is taken as a column.
func (r *Resolver) isDirect(ts schema.TableSchema, key string) bool {
	if strings.Contains(key, ".") {
		return false
	}
	if ts.Empty() {
		return true
	}
	_, ok := ts.Lookup(key)
	return ok
}

func (r *Resolver) direct(ctx context.Context, table string, ts schema.TableSchema, column string, value any) (store.Predicate, error) {
	typ := ts.TypeOf(column)
	if s, ok := value.(string); ok && s != "" && typ == schema.Text {
		return r.correctText(ctx, table, column, s)
	}
	n := r.normalizer.Normalize(value, typ)
	return store.Predicate{Column: column, Op: n.Op, Value: n.Value}, nil
}

// correctText replaces value with the stored spelling when one scores at
// least the correction threshold. Otherwise value is compared as typed.
func (r *Resolver) correctText(ctx context.Context, table, column, value string) (store.Predicate, error) {
	rows, err := r.store.Select(ctx, store.Query{
		Table:   table,
		Columns: []string{column},
		Limit:   r.opts.CandidateLimit,
	})
	if err != nil {
		return store.Predicate{}, &QueryError{Table: table, Err: err}
	}
	cands := candidates(rows, []string{column})
	m, ok := fuzzy.BestMatch(value, cands, r.opts.CorrectionThreshold, fuzzy.FoldCase)
	metrics.ObserveResolution("correction", ok)
	if ok {
		if m.Value != value {
			log.Debug().Str("column", column).Str("from", value).Str("to", m.Value).
				Float64("score", m.Score).Msg("filter value corrected")
		}
		return store.Eq(column, m.Value), nil
	}
	return store.Eq(column, value), nil
}

// related searches the related tables for value. A dotted key puts its table
// first and restricts that table to the named column.
func (r *Resolver) related(ctx context.Context, key string, value any) (store.Predicate, error) {
	target := fmt.Sprint(value)
	prefix, column, dotted := strings.Cut(key, ".")

	tables := make([]string, 0, len(r.opts.RelatedTables)+1)
	if dotted {
		tables = append(tables, prefix)
	}
	for _, t := range r.opts.RelatedTables {
		if !slices.Contains(tables, t) {
			tables = append(tables, t)
		}
	}

	for _, t := range tables {
		rts := r.schemas.Inspect(ctx, t)
		if rts.Empty() {
			continue
		}
		cols := rts.OfType(schema.Text)
		if dotted && t == prefix {
			if _, ok := rts.Lookup(column); ok {
				cols = []string{column}
			}
		}
		if len(cols) == 0 {
			continue
		}

		rows, err := r.store.Select(ctx, store.Query{Table: t, Columns: cols, Limit: r.opts.CandidateLimit})
		if err != nil {
			return store.Predicate{}, &QueryError{Table: t, Err: err}
		}
		m, ok := fuzzy.BestMatch(target, candidates(rows, cols), r.opts.RelationThreshold, fuzzy.FoldCase|fuzzy.FoldDiacritics)
		if !ok {
			continue
		}

		row, err := store.First(ctx, r.store, store.Query{
			Table:   t,
			Columns: []string{"id"},
			Where:   []store.Predicate{store.Eq(m.Column, m.Value)},
		})
		if err != nil {
			return store.Predicate{}, &QueryError{Table: t, Err: err}
		}
		fk := "id_" + strings.ToLower(t)
		metrics.ObserveResolution("relation", true)
		log.Debug().
			Str("filter", key).
			Str("table", t).
			Str("column", m.Column).
			Str("matched", m.Value).
			Float64("score", m.Score).
			Msg("filter resolved through related table")
		return store.Eq(fk, row["id"]), nil
	}

	metrics.ObserveResolution("relation", false)
	return store.Predicate{}, &MatchError{Key: key, Value: value}
}

// candidates flattens the string values of rows, row by row and column by
// column within a row.
func candidates(rows []store.Row, cols []string) []fuzzy.Candidate {
	out := make([]fuzzy.Candidate, 0, len(rows)*len(cols))
	for _, row := range rows {
		for _, c := range cols {
			if s, ok := row[c].(string); ok && s != "" {
				out = append(out, fuzzy.Candidate{Value: s, Column: c})
			}
		}
	}
	return out
}
