package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/agent"
	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/metrics"
	"github.com/lrsystem/lrsystem/internal/resolver"
	"github.com/lrsystem/lrsystem/internal/retry"
	"github.com/lrsystem/lrsystem/internal/security"
	"github.com/lrsystem/lrsystem/internal/store"
)

const (
	deferredMessage  = "Consulta identificada. Proporciona parámetros adicionales si es necesario."
	noResultsMessage = "No se encontraron resultados para tu consulta."
)

// Classifier maps free text onto the catalog.
type Classifier interface {
	Classify(ctx context.Context, query string) (agent.Intent, error)
}

// RejectedError is returned when a request is refused before any model call.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

// Identification echoes how a request was read.
type Identification struct {
	Category        catalog.Category `json:"categoria"`
	Actions         []catalog.Action `json:"acciones"`
	Explanation     string           `json:"explicacion"`
	UsedParams      Params           `json:"parametros_utilizados,omitempty"`
	SuggestedParams Params           `json:"parametros_sugeridos,omitempty"`
}

// ConsultaResponse is the outcome of a natural-language request.
type ConsultaResponse struct {
	Behavior       BehaviorKind    `json:"comportamiento,omitempty"`
	Message        string          `json:"mensaje,omitempty"`
	Identification *Identification `json:"identificacion,omitempty"`
	Executed       bool            `json:"ejecutado"`
	Data           []any           `json:"datos"`
	Results        []Result        `json:"resultados,omitempty"`
	Attempts       int             `json:"intentos,omitempty"`
}

// OrchestratorConfig sets the retry budget of a consulta. Every attempt
// gets the full budget; slow providers are bounded per call instead.
type OrchestratorConfig struct {
	Retry retry.Config
}

// Orchestrator runs the consulta pipeline: screening, behavior detection,
// classification, the auto-execution gate and dispatch. Classification and
// dispatch are retried together.
type Orchestrator struct {
	classifier  Classifier
	dispatcher  *Dispatcher
	behavior    *BehaviorDetector
	piiDetector *security.PIIDetector
	promptVal   *security.PromptValidator
	auditLogger *security.AuditLogger
	retry       retry.Config
}

// NewOrchestrator wires the pipeline. Security components may be nil.
func NewOrchestrator(
	classifier Classifier,
	dispatcher *Dispatcher,
	behavior *BehaviorDetector,
	piiDetector *security.PIIDetector,
	promptVal *security.PromptValidator,
	auditLogger *security.AuditLogger,
	cfg OrchestratorConfig,
) *Orchestrator {
	if cfg.Retry.Name == "" {
		cfg.Retry.Name = "consulta"
	}
	return &Orchestrator{
		classifier:  classifier,
		dispatcher:  dispatcher,
		behavior:    behavior,
		piiDetector: piiDetector,
		promptVal:   promptVal,
		auditLogger: auditLogger,
		retry:       cfg.Retry,
	}
}

// Consulta answers a natural-language request. Caller params override the
// classifier's suggestions. After the retry budget is spent the last error
// is returned wrapped in a *retry.ExhaustedError.
func (o *Orchestrator) Consulta(ctx context.Context, query string, params Params, apiKey string) (*ConsultaResponse, error) {
	start := time.Now()

	if err := o.screen(query); err != nil {
		return nil, err
	}

	if o.behavior != nil {
		if b := o.behavior.Detect(query); b.Kind != BehaviorQuery {
			log.Debug().Str("behavior", string(b.Kind)).Float64("confidence", b.Confidence).Msg("conversational input")
			return &ConsultaResponse{Behavior: b.Kind, Message: b.Reply, Data: []any{}}, nil
		}
	}

	var (
		resp     *ConsultaResponse
		attempts int
	)
	err := retry.Do(ctx, o.retry, func(ctx context.Context, attempt int) error {
		attempts = attempt
		r, err := o.attempt(ctx, query, params)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	metrics.ObserveRetry(o.retry.Name, attempts, err)

	if o.auditLogger != nil {
		var (
			category string
			actions  []string
			executed bool
		)
		if resp != nil && resp.Identification != nil {
			category = string(resp.Identification.Category)
			for _, a := range resp.Identification.Actions {
				actions = append(actions, string(a))
			}
			executed = resp.Executed
		}
		o.auditLogger.LogConsulta(query, apiKey, category, actions, executed, err == nil, time.Since(start).Milliseconds())
	}

	if err != nil {
		return nil, err
	}
	resp.Attempts = attempts
	return resp, nil
}

func (o *Orchestrator) screen(query string) error {
	if o.piiDetector != nil {
		if found, kw := o.piiDetector.Detect(query); found {
			return &RejectedError{Reason: "PII detected in prompt: " + kw}
		}
	}
	if o.promptVal != nil {
		if vr := o.promptVal.Validate(query); !vr.Valid {
			return &RejectedError{Reason: "prompt validation failed: " + vr.Message}
		}
	}
	return nil
}

func (o *Orchestrator) attempt(ctx context.Context, query string, params Params) (*ConsultaResponse, error) {
	intent, err := o.classifier.Classify(ctx, query)
	if err != nil {
		return nil, err
	}
	ident := &Identification{
		Category:    intent.Category,
		Actions:     intent.Actions,
		Explanation: intent.Explanation,
	}
	merged := MergeParams(intent.SuggestedParams, params)

	if !CanAutoExecute(intent.Actions) {
		ident.SuggestedParams = intent.SuggestedParams
		return &ConsultaResponse{Identification: ident, Message: deferredMessage, Data: []any{}}, nil
	}

	results := o.dispatcher.Execute(ctx, intent.Category, intent.Actions, merged)
	for _, r := range results {
		if retryable(r.Err) {
			return nil, fmt.Errorf("%s: %w", r.Action, r.Err)
		}
	}
	ident.UsedParams = merged
	resp := &ConsultaResponse{
		Identification: ident,
		Executed:       true,
		Data:           collect(results),
		Results:        results,
	}
	if len(resp.Data) == 0 {
		resp.Message = noResultsMessage
	}
	return resp, nil
}

// Direct runs one named action without classification.
func (o *Orchestrator) Direct(ctx context.Context, c catalog.Category, a catalog.Action, params Params, apiKey string) (Result, error) {
	if !o.dispatcher.Supports(c, a) {
		return Result{}, &StatusError{
			Code:    http.StatusBadRequest,
			Message: fmt.Sprintf("Servicio '%s' o acción '%s' no válidos", c, a),
		}
	}
	res := o.dispatcher.Execute(ctx, c, []catalog.Action{a}, params)[0]
	if o.auditLogger != nil {
		o.auditLogger.LogAction(string(c), string(a), apiKey, res.Status)
	}
	return res, nil
}

// retryable reports whether a per-action failure came from filter
// resolution, which a fresh classification may avoid.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	var qe *resolver.QueryError
	return errors.Is(err, resolver.ErrNoMatch) || errors.As(err, &qe)
}

// collect flattens the data of successful actions. Row sets contribute
// their rows; any other payload is kept as one item.
func collect(results []Result) []any {
	out := []any{}
	for _, r := range results {
		if !r.OK() {
			continue
		}
		switch d := r.Data.(type) {
		case []store.Row:
			for _, row := range d {
				out = append(out, row)
			}
		case nil:
		default:
			out = append(out, d)
		}
	}
	return out
}
