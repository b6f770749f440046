package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/metrics"
	"github.com/lrsystem/lrsystem/internal/resolver"
	"github.com/lrsystem/lrsystem/internal/retry"
	"github.com/lrsystem/lrsystem/internal/store"
)

// Join is the optional join hint a model may return with a plan.
type Join struct {
	Table     string `json:"tabla"`
	Condition string `json:"condicion"`
}

// Plan is a single-table query with loose filters.
type Plan struct {
	Table   string         `json:"tabla"`
	Join    *Join          `json:"union,omitempty"`
	Filters map[string]any `json:"filtros"`
}

// Interpreter turns free text into a Plan through a Generator.
type Interpreter struct {
	gen Generator
}

func NewInterpreter(gen Generator) *Interpreter {
	return &Interpreter{gen: gen}
}

// Interpret makes a single attempt.
func (i *Interpreter) Interpret(ctx context.Context, query string) (Plan, string, error) {
	provider := i.gen.Name()
	var raw string
	if chain, ok := i.gen.(*FallbackChain); ok {
		g := chain.Run(ctx, catalog.InterpreterPrompt(query))
		raw, provider = g.Text, g.Provider
	} else {
		var err error
		raw, err = i.gen.Generate(ctx, catalog.InterpreterPrompt(query))
		if err != nil {
			return Plan{}, provider, err
		}
	}

	plan, err := ParsePlan(raw)
	return plan, provider, err
}

// ParsePlan decodes a plan and checks that its table exists.
func ParsePlan(raw string) (Plan, error) {
	var p Plan
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &p); err != nil {
		return Plan{}, &ClassificationError{Raw: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if p.Table == "" {
		return Plan{}, &ClassificationError{Raw: raw, Err: fmt.Errorf("missing tabla")}
	}
	if _, ok := catalog.LookupTable(p.Table); !ok {
		return Plan{}, &ClassificationError{Raw: raw, Err: fmt.Errorf("unknown table %q", p.Table)}
	}
	if p.Filters == nil {
		p.Filters = map[string]any{}
	}
	return p, nil
}

// Answer is the result of an interpreted query.
type Answer struct {
	Query    string                 `json:"queryUser"`
	Data     map[string][]store.Row `json:"data"`
	Filters  []store.Predicate      `json:"filtros_aplicados"`
	Provider string                 `json:"provider"`
	Attempts int                    `json:"intentos"`
}

// QueryAgent runs interpret-then-resolve under the retry policy.
type QueryAgent struct {
	interpreter *Interpreter
	resolver    *resolver.Resolver
	retry       retry.Config
}

func NewQueryAgent(in *Interpreter, r *resolver.Resolver, cfg retry.Config) *QueryAgent {
	cfg.Name = "interpret"
	return &QueryAgent{interpreter: in, resolver: r, retry: cfg}
}

func (a *QueryAgent) Run(ctx context.Context, query string) (*Answer, error) {
	var ans *Answer
	var used int
	err := retry.Do(ctx, a.retry, func(ctx context.Context, attempt int) error {
		used = attempt
		plan, provider, err := a.interpreter.Interpret(ctx, query)
		if err != nil {
			return err
		}
		res, err := a.resolver.Resolve(ctx, plan.Table, plan.Filters)
		if err != nil {
			return err
		}
		ans = &Answer{
			Query:    query,
			Data:     map[string][]store.Row{res.Table: res.Rows},
			Filters:  res.AppliedFilters,
			Provider: provider,
			Attempts: attempt,
		}
		return nil
	})
	metrics.ObserveRetry("interpret", used, err)
	if err != nil {
		log.Error().Err(err).Str("query", truncate(query, 120)).Msg("interpreted query failed")
		return nil, err
	}
	return ans, nil
}
