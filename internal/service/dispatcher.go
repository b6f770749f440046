package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/metrics"
	"github.com/lrsystem/lrsystem/internal/resolver"
	"github.com/lrsystem/lrsystem/internal/security"
	"github.com/lrsystem/lrsystem/internal/store"
)

// Outcome is what a handler produced. A zero Status means 200.
type Outcome struct {
	Status int
	Data   any
}

func succeed(data any) Outcome {
	return Outcome{Status: http.StatusOK, Data: data}
}

// Handler executes one action.
type Handler interface {
	Execute(ctx context.Context, p Params) (Outcome, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, p Params) (Outcome, error)

func (f HandlerFunc) Execute(ctx context.Context, p Params) (Outcome, error) {
	return f(ctx, p)
}

// StatusError is a handler failure with a client-facing status and message.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

func badRequest(msg string) error {
	return &StatusError{Code: http.StatusBadRequest, Message: msg}
}

func notFound(msg string) error {
	return &StatusError{Code: http.StatusNotFound, Message: msg}
}

// Result is the per-action entry of a dispatch.
type Result struct {
	Action   catalog.Action   `json:"accion"`
	Category catalog.Category `json:"categoria"`
	Status   int              `json:"status"`
	Data     any              `json:"data"`
	// Err is the failure behind a non-2xx Status, if any.
	Err error `json:"-"`
}

// OK reports whether the action succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Status >= 200 && r.Status < 300
}

func errorBody(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// Dispatcher maps (category, action) to handlers. The registry is built once
// and read-only afterwards.
type Dispatcher struct {
	registry map[catalog.Category]map[catalog.Action]Handler
}

// NewDispatcher registers an EntityService handler for every action in the
// catalog. It fails if any action has no implementation.
func NewDispatcher(s store.Store, r *resolver.Resolver, m *security.DataMasker) (*Dispatcher, error) {
	d := &Dispatcher{registry: make(map[catalog.Category]map[catalog.Action]Handler)}
	for _, e := range catalog.Entities() {
		svc := NewEntityService(e, s, r, m)
		for _, spec := range e.Actions {
			h, err := svc.Handler(spec)
			if err != nil {
				return nil, fmt.Errorf("register %s: %w", e.Category, err)
			}
			d.Register(e.Category, spec.Name, h)
		}
	}
	return d, nil
}

// Register installs or replaces the handler for (c, a).
func (d *Dispatcher) Register(c catalog.Category, a catalog.Action, h Handler) {
	if d.registry[c] == nil {
		d.registry[c] = make(map[catalog.Action]Handler)
	}
	d.registry[c][a] = h
}

// Supports reports whether (c, a) has a handler.
func (d *Dispatcher) Supports(c catalog.Category, a catalog.Action) bool {
	_, ok := d.registry[c][a]
	return ok
}

// CanAutoExecute reports whether every action in a non-empty list may run
// without confirmation.
func CanAutoExecute(actions []catalog.Action) bool {
	if len(actions) == 0 {
		return false
	}
	for _, a := range actions {
		if !catalog.AutoExecutable(a) {
			return false
		}
	}
	return true
}

// Execute runs actions in order. A failing action is reported in its own
// Result and never prevents the remaining ones from running.
func (d *Dispatcher) Execute(ctx context.Context, c catalog.Category, actions []catalog.Action, p Params) []Result {
	handlers, ok := d.registry[c]
	if !ok {
		return []Result{{
			Action:   "unknown",
			Category: c,
			Status:   http.StatusBadRequest,
			Data:     errorBody(fmt.Sprintf("Servicio '%s' no disponible", c)),
			Err:      fmt.Errorf("unknown category %q", c),
		}}
	}
	results := make([]Result, 0, len(actions))
	for _, a := range actions {
		results = append(results, d.run(ctx, c, a, handlers[a], p))
	}
	return results
}

func (d *Dispatcher) run(ctx context.Context, c catalog.Category, a catalog.Action, h Handler, p Params) (res Result) {
	res = Result{Action: a, Category: c}
	defer func() {
		metrics.ObserveAction(string(c), string(a), res.Status)
	}()

	if h == nil {
		res.Status = http.StatusBadRequest
		res.Data = errorBody(fmt.Sprintf("Acción '%s' no disponible en servicio '%s'", a, c))
		res.Err = fmt.Errorf("unknown action %q for %q", a, c)
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("category", string(c)).Str("action", string(a)).Msg("action panicked")
			res.Status = http.StatusInternalServerError
			res.Data = errorBody(fmt.Sprintf("Error ejecutando %s: %v", a, r))
			res.Err = fmt.Errorf("panic in %s: %v", a, r)
		}
	}()

	// Each action gets its own copy so handlers cannot leak edits to siblings.
	out, err := h.Execute(ctx, maps.Clone(p))
	var se *StatusError
	switch {
	case err == nil:
		res.Status = out.Status
		if res.Status == 0 {
			res.Status = http.StatusOK
		}
		res.Data = out.Data
	case errors.As(err, &se):
		res.Status = se.Code
		res.Data = errorBody(se.Message)
		res.Err = err
	default:
		log.Warn().Err(err).Str("category", string(c)).Str("action", string(a)).Msg("action failed")
		res.Status = http.StatusInternalServerError
		res.Data = errorBody(fmt.Sprintf("Error ejecutando %s: %v", a, err))
		res.Err = err
	}
	return res
}
