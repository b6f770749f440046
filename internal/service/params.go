package service

import (
	"maps"
	"math"
	"strconv"
	"strings"
)

// Params are the loose key/value arguments of an action.
type Params = map[string]any

// MergeParams overlays caller on suggested; caller values win on key
// collision. Neither input is modified.
func MergeParams(suggested, caller Params) Params {
	out := make(Params, len(suggested)+len(caller))
	maps.Copy(out, suggested)
	maps.Copy(out, caller)
	return out
}

// present reports whether key holds a usable value.
func present(p Params, key string) (any, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func pop(p Params, key string) (any, bool) {
	v, ok := present(p, key)
	delete(p, key)
	return v, ok
}

func popString(p Params, key string) string {
	v, ok := pop(p, key)
	if !ok {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s)
	}
	return ""
}

// toInt accepts JSON numbers and numeric strings.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	}
	return false, false
}

// normalizeID turns whole JSON numbers into int64 so they bind as integer
// parameters.
func normalizeID(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) {
		return int64(f)
	}
	return v
}

// intParam reads the first present key among names.
func intParam(p Params, def int, names ...string) int {
	for _, n := range names {
		if v, ok := present(p, n); ok {
			if i, ok := toInt(v); ok {
				return i
			}
		}
	}
	return def
}
