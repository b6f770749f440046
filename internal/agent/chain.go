package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/metrics"
)

const (
	// CannedProvider names the static last stage in Generation.Provider.
	CannedProvider = "fallback"

	cannedQueryPlan = `{"tabla":"Usuarios","filtros":{}}`
	cannedApology   = "Lo siento, no puedo procesar tu solicitud en este momento debido a limitaciones de la API. Por favor, intenta más tarde."
)

// Canned returns the static response used when every provider failed.
// Prompts that look like query requests get a minimal query plan, anything
// else an apology.
func Canned(prompt string) string {
	lower := strings.ToLower(prompt)
	if strings.Contains(lower, "sql") || strings.Contains(lower, "tabla") {
		return cannedQueryPlan
	}
	return cannedApology
}

// ProviderFailure records one swallowed provider error.
type ProviderFailure struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// Generation is the outcome of a chain run.
type Generation struct {
	Text     string            `json:"text"`
	Provider string            `json:"provider"`
	Failures []ProviderFailure `json:"failures,omitempty"`
}

// FallbackChain tries providers in order and returns the first success. It
// never fails: when every provider errors the canned response is returned.
type FallbackChain struct {
	providers []Generator
}

// NewFallbackChain skips nil providers so unconfigured stages can be passed
// straight through.
func NewFallbackChain(providers ...Generator) *FallbackChain {
	c := &FallbackChain{}
	for _, p := range providers {
		if p != nil && !isNilProvider(p) {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// isNilProvider catches typed nil pointers wrapped in the interface.
func isNilProvider(g Generator) bool {
	switch p := g.(type) {
	case *OpenAIProvider:
		return p == nil
	case *OllamaProvider:
		return p == nil
	case *AnthropicProvider:
		return p == nil
	}
	return false
}

// Providers lists the configured stage names, canned stage excluded.
func (c *FallbackChain) Providers() []string {
	out := make([]string, len(c.providers))
	for i, p := range c.providers {
		out[i] = p.Name()
	}
	return out
}

func (c *FallbackChain) Run(ctx context.Context, prompt string) Generation {
	var failures []ProviderFailure
	var last error
	for _, p := range c.providers {
		start := time.Now()
		text, err := p.Generate(ctx, prompt)
		metrics.ObserveProviderCall(p.Name(), err, time.Since(start))
		if err == nil {
			return Generation{Text: text, Provider: p.Name(), Failures: failures}
		}
		log.Warn().Err(err).Str("provider", p.Name()).Msg("generation provider failed, trying next")
		failures = append(failures, ProviderFailure{Provider: p.Name(), Error: err.Error()})
		last = err
	}

	ev := log.Warn().Int("failed_providers", len(failures))
	if last != nil {
		ev = ev.Err(last)
	}
	ev.Msg("all generation providers failed, using canned response")
	return Generation{Text: Canned(prompt), Provider: CannedProvider, Failures: failures}
}

func (c *FallbackChain) Name() string { return "chain" }

// Generate lets the chain stand in for a single Generator. It never
// returns an error.
func (c *FallbackChain) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Run(ctx, prompt).Text, nil
}

// ChainCompleter adapts a Generator into a JSONCompleter by inlining the
// system instruction into the prompt.
type ChainCompleter struct {
	Gen Generator
}

func (c ChainCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	if c.Gen == nil {
		return "", fmt.Errorf("no generator configured")
	}
	return c.Gen.Generate(ctx, system+"\n\nConsulta del usuario: "+user)
}
