package fuzzy_test

import (
	"testing"

	"github.com/lrsystem/lrsystem/internal/fuzzy"
)

// ─── Similarity ───────────────────────────────────────────────────────────────

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Lima", "Lima", 1},
		{"abc", "xyz", 0},
		{"abc", "abd", 0.5},
		{"abcdef", "abcdeg", 0.8},
		{"a", "b", 0},
		{"", "", 1},
		{"San Isidro", "SanIsidro", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := fuzzy.Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarityRepeatedBigrams(t *testing.T) {
	// "aaaa" has three "aa" bigrams, "aa" only one
	got := fuzzy.Similarity("aaaa", "aa")
	want := 2.0 * 1 / 4
	if got != want {
		t.Errorf("Similarity(aaaa, aa) = %v, want %v", got, want)
	}
}

// ─── Normalize ────────────────────────────────────────────────────────────────

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		mode fuzzy.Mode
		want string
	}{
		{"Línea Ñandú", fuzzy.FoldCase, "línea ñandú"},
		{"Línea Ñandú", fuzzy.FoldCase | fuzzy.FoldDiacritics, "linea nandu"},
		{"José", fuzzy.FoldDiacritics, "Jose"},
		{"MiXed", 0, "MiXed"},
	}
	for _, tt := range tests {
		if got := fuzzy.Normalize(tt.in, tt.mode); got != tt.want {
			t.Errorf("Normalize(%q, %d) = %q, want %q", tt.in, tt.mode, got, tt.want)
		}
	}
}

// ─── BestMatch ────────────────────────────────────────────────────────────────

func TestBestMatchThresholdBoundary(t *testing.T) {
	cands := fuzzy.FromStrings("nombre", []string{"abd"})

	res, ok := fuzzy.BestMatch("abc", cands, 0.5, fuzzy.FoldCase)
	if !ok {
		t.Fatalf("score exactly at threshold should be accepted, got %v", res.Score)
	}
	if res.Value != "abd" || res.Column != "nombre" {
		t.Errorf("unexpected result %+v", res)
	}

	if _, ok := fuzzy.BestMatch("abc", cands, 0.5000001, fuzzy.FoldCase); ok {
		t.Error("score strictly below threshold should be rejected")
	}

	cands = fuzzy.FromStrings("nombre", []string{"abcdeg"})
	if _, ok := fuzzy.BestMatch("abcdef", cands, fuzzy.CorrectionThreshold, fuzzy.FoldCase); !ok {
		t.Error("0.8 similarity should pass the correction threshold")
	}
}

func TestBestMatchIdentityAndDisjoint(t *testing.T) {
	cands := fuzzy.FromStrings("c", []string{"qwerty"})
	if _, ok := fuzzy.BestMatch("zxcvb", cands, 0.01, fuzzy.FoldCase); ok {
		t.Error("disjoint strings should never match")
	}
	res, ok := fuzzy.BestMatch("QWERTY", cands, 1, fuzzy.FoldCase)
	if !ok || res.Score != 1 {
		t.Errorf("case-folded identical strings should score 1, got %+v ok=%v", res, ok)
	}
}

func TestBestMatchTieBreakFirst(t *testing.T) {
	cands := []fuzzy.Candidate{
		{Value: "abd", Column: "first"},
		{Value: "abe", Column: "second"},
	}
	res, ok := fuzzy.BestMatch("abc", cands, 0.5, fuzzy.FoldCase)
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Column != "first" {
		t.Errorf("tie should keep the earliest candidate, got %q", res.Column)
	}
}

func TestBestMatchKeepsOriginalSpelling(t *testing.T) {
	cands := fuzzy.FromStrings("nombre", []string{"Compañía Minera Ándes"})
	res, ok := fuzzy.BestMatch("compania minera andes", cands, fuzzy.RelationThreshold, fuzzy.FoldCase|fuzzy.FoldDiacritics)
	if !ok {
		t.Fatalf("expected diacritic-insensitive match, score %v", res.Score)
	}
	if res.Value != "Compañía Minera Ándes" {
		t.Errorf("matched value should keep stored spelling, got %q", res.Value)
	}
}

func TestBestMatchIdempotent(t *testing.T) {
	values := []string{"Acme SAC", "Acme Peru", "Minera Sur"}
	cands := fuzzy.FromStrings("nombre", values)

	first, ok1 := fuzzy.BestMatch("acme peru sac", cands, 0.5, fuzzy.FoldCase)
	for i := 0; i < 10; i++ {
		got, ok := fuzzy.BestMatch("acme peru sac", cands, 0.5, fuzzy.FoldCase)
		if got != first || ok != ok1 {
			t.Fatalf("call %d returned %+v/%v, want %+v/%v", i, got, ok, first, ok1)
		}
	}
	if values[0] != "Acme SAC" || cands[0].Value != "Acme SAC" {
		t.Error("inputs must not be mutated")
	}
}

func TestBestMatchEmpty(t *testing.T) {
	if _, ok := fuzzy.BestMatch("x", nil, 0, fuzzy.FoldCase); ok {
		t.Error("no candidates should never match")
	}
}
