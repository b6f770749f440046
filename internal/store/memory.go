package store

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store used for local development and tests. It
// evaluates the same predicate vocabulary as the SQL builder.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]Row
	nextID map[string]int64
}

// NewMemory seeds a store with the given tables. Rows are copied.
func NewMemory(seed map[string][]Row) *Memory {
	m := &Memory{
		tables: make(map[string][]Row, len(seed)),
		nextID: make(map[string]int64, len(seed)),
	}
	for table, rows := range seed {
		m.tables[table] = make([]Row, 0, len(rows))
		for _, r := range rows {
			m.tables[table] = append(m.tables[table], maps.Clone(r))
			if id, ok := toFloat(r["id"]); ok && int64(id) >= m.nextID[table] {
				m.nextID[table] = int64(id)
			}
		}
	}
	return m
}

// LoadSeed reads tables for NewMemory from a JSON object keyed by table
// name. Whole numbers are decoded as int64.
func LoadSeed(path string) (map[string][]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed map[string][]Row
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}
	for table, rows := range seed {
		if err := ValidateIdentifier(table); err != nil {
			return nil, err
		}
		for _, r := range rows {
			for k, v := range r {
				if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
					r[k] = int64(f)
				}
			}
		}
	}
	return seed, nil
}

func (m *Memory) Select(_ context.Context, q Query) ([]Row, error) {
	if err := ValidateIdentifier(q.Table); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[q.Table]
	if !ok {
		return nil, fmt.Errorf("relation %q does not exist", q.Table)
	}

	var out []Row
	for _, r := range rows {
		match, err := matchesAll(r, q.Where)
		if err != nil {
			return nil, err
		}
		if !match {
			continue
		}
		if len(q.AnyOf) > 0 {
			anyMatch := false
			for _, p := range q.AnyOf {
				ok, err := matches(r, p)
				if err != nil {
					return nil, err
				}
				if ok {
					anyMatch = true
					break
				}
			}
			if !anyMatch {
				continue
			}
		}
		out = append(out, project(r, q.Columns))
	}

	if q.Order != nil {
		col, asc := q.Order.Column, q.Order.Ascending
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i][col], out[j][col]
			if a == nil || b == nil {
				return b == nil && a != nil
			}
			c, ok := compare(a, b)
			if !ok {
				return false
			}
			if asc {
				return c < 0
			}
			return c > 0
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			out = nil
		} else {
			out = out[q.Offset:]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if out == nil {
		out = []Row{}
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, table string, rows []Row) ([]Row, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("at least one row is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		r = maps.Clone(r)
		if _, ok := r["id"]; !ok {
			m.nextID[table]++
			r["id"] = m.nextID[table]
		}
		m.tables[table] = append(m.tables[table], r)
		out = append(out, maps.Clone(r))
	}
	return out, nil
}

func (m *Memory) Update(_ context.Context, table string, values Row, where []Predicate) ([]Row, error) {
	if len(where) == 0 {
		return nil, fmt.Errorf("update without predicates is not allowed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("relation %q does not exist", table)
	}
	out := []Row{}
	for _, r := range rows {
		match, err := matchesAll(r, where)
		if err != nil {
			return nil, err
		}
		if match {
			maps.Copy(r, values)
			out = append(out, maps.Clone(r))
		}
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, table string, where []Predicate) ([]Row, error) {
	if len(where) == 0 {
		return nil, fmt.Errorf("delete without predicates is not allowed")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("relation %q does not exist", table)
	}
	kept := rows[:0]
	out := []Row{}
	for _, r := range rows {
		match, err := matchesAll(r, where)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, r)
			continue
		}
		kept = append(kept, r)
	}
	m.tables[table] = kept
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func project(r Row, cols []string) Row {
	if len(cols) == 0 {
		return maps.Clone(r)
	}
	out := make(Row, len(cols))
	for _, c := range cols {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func matchesAll(r Row, preds []Predicate) (bool, error) {
	for _, p := range preds {
		ok, err := matches(r, p)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matches(r Row, p Predicate) (bool, error) {
	v, present := r[p.Column]
	switch p.Op {
	case OpEq:
		if p.Value == nil {
			return v == nil, nil
		}
		return present && equal(v, p.Value), nil
	case OpNeq:
		if p.Value == nil {
			return v != nil, nil
		}
		return !present || !equal(v, p.Value), nil
	case OpILike:
		pattern, ok := p.Value.(string)
		if !ok {
			return false, fmt.Errorf("ilike on %q requires a string pattern", p.Column)
		}
		if v == nil {
			return false, nil
		}
		return likeRegexp(pattern).MatchString(fmt.Sprint(v)), nil
	case OpGt, OpGte, OpLt, OpLte:
		if v == nil || p.Value == nil {
			return false, nil
		}
		c, ok := compare(v, p.Value)
		if !ok {
			return false, nil
		}
		switch p.Op {
		case OpGt:
			return c > 0, nil
		case OpGte:
			return c >= 0, nil
		case OpLt:
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	}
	return false, fmt.Errorf("unsupported operator %q", p.Op)
}

func likeRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func equal(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// compare orders two scalar values. Numbers compare numerically, times and
// date-like strings chronologically, everything else as strings.
func compare(a, b any) (int, bool) {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	_, aStr := a.(string)
	_, bStr := b.(string)
	if aNum && bNum && !(aStr && bStr) {
		return cmpFloat(af, bf), true
	}

	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Compare(bt), true
		}
	}

	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if ab == bb {
			return 0, true
		}
		return 1, true
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b)), true
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
