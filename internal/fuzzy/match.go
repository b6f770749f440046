package fuzzy

// Candidate is a stored value together with the column it was read from.
type Candidate struct {
	Value  string
	Column string
}

// Result is the best accepted candidate and its score in [0,1].
type Result struct {
	Value  string  `json:"valor"`
	Score  float64 `json:"similitud"`
	Column string  `json:"columna"`
}

// FromStrings wraps plain values read from a single column.
func FromStrings(column string, values []string) []Candidate {
	out := make([]Candidate, len(values))
	for i, v := range values {
		out[i] = Candidate{Value: v, Column: column}
	}
	return out
}

// BestMatch scores target against every candidate after normalizing both
// sides with mode and returns the highest scoring one. Ties keep the earliest
// candidate. The result is accepted only when its score is at least
// threshold; the returned value keeps the candidate's original spelling.
func BestMatch(target string, candidates []Candidate, threshold float64, mode Mode) (Result, bool) {
	if len(candidates) == 0 {
		return Result{}, false
	}

	want := Normalize(target, mode)
	best := Result{Score: -1}
	for _, c := range candidates {
		score := Similarity(want, Normalize(c.Value, mode))
		if score > best.Score {
			best = Result{Value: c.Value, Score: score, Column: c.Column}
		}
	}

	if best.Score < threshold {
		return best, false
	}
	return best, true
}
