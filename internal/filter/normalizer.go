// Package filter turns raw filter values into typed comparisons.
package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lrsystem/lrsystem/internal/schema"
	"github.com/lrsystem/lrsystem/internal/store"
)

// ISOLayout is the UTC timestamp format produced for date filters.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Normalized is a comparison ready to be applied to a column.
type Normalized struct {
	Op    store.Operator `json:"operator"`
	Value any            `json:"value"`
}

// operatorTokens are tried in order against the trimmed value.
var operatorTokens = []struct {
	token string
	op    store.Operator
}{
	{">=", store.OpGte},
	{">", store.OpGt},
	{"<=", store.OpLte},
	{"<", store.OpLt},
	{"=", store.OpEq},
	{"!=", store.OpNeq},
}

var (
	daysRe   = regexp.MustCompile(`(?i)(\d+)\s*(?:days?|d[ií]as?)\b`)
	monthsRe = regexp.MustCompile(`(?i)(\d+)\s*(?:months?|mes(?:es)?)\b`)
	yearsRe  = regexp.MustCompile(`(?i)(\d+)\s*(?:years?|a[ñn]os?)\b`)
)

// Normalizer parses operators and relative dates. The clock is injectable
// so relative expressions are deterministic under test.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer uses time.Now when now is nil.
func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize converts raw into a comparison for a column of type typ.
// Unparsable numbers and dates fall back to equality on the raw value.
func (n *Normalizer) Normalize(raw any, typ schema.ColumnType) Normalized {
	s, ok := raw.(string)
	if !ok || s == "" {
		return Normalized{Op: store.OpEq, Value: raw}
	}

	switch typ {
	case schema.Number:
		op, rest := SplitOperator(s)
		f, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return Normalized{Op: store.OpEq, Value: raw}
		}
		return Normalized{Op: op, Value: f}

	case schema.Date:
		op, rest := SplitOperator(s)
		rest = strings.TrimSpace(rest)
		if isRelative(rest) {
			return Normalized{Op: op, Value: n.relative(rest).UTC().Format(ISOLayout)}
		}
		if t, ok := schema.ParseDate(rest); ok {
			return Normalized{Op: op, Value: t.UTC().Format(ISOLayout)}
		}
		return Normalized{Op: store.OpEq, Value: raw}
	}

	return Normalized{Op: store.OpEq, Value: raw}
}

// SplitOperator strips a leading comparison token. Values without one are
// equality comparisons.
func SplitOperator(s string) (store.Operator, string) {
	trimmed := strings.TrimSpace(s)
	for _, t := range operatorTokens {
		if strings.HasPrefix(trimmed, t.token) {
			return t.op, strings.TrimSpace(trimmed[len(t.token):])
		}
	}
	return store.OpEq, s
}

func isRelative(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "now()") ||
		strings.Contains(lower, "interval") ||
		daysRe.MatchString(s) ||
		monthsRe.MatchString(s) ||
		yearsRe.MatchString(s)
}

// relative subtracts days, then months, then years from the current time.
func (n *Normalizer) relative(s string) time.Time {
	t := n.now()
	if q, ok := quantity(daysRe, s); ok {
		t = t.AddDate(0, 0, -q)
	}
	if q, ok := quantity(monthsRe, s); ok {
		t = t.AddDate(0, -q, 0)
	}
	if q, ok := quantity(yearsRe, s); ok {
		t = t.AddDate(-q, 0, 0)
	}
	return t
}

func quantity(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	q, err := strconv.Atoi(m[1])
	return q, err == nil
}
