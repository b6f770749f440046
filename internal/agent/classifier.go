package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/catalog"
)

// Intent is the structured reading of a free-text request.
type Intent struct {
	Category        catalog.Category `json:"categoria"`
	Actions         []catalog.Action `json:"acciones"`
	SuggestedParams map[string]any   `json:"parametros_sugeridos"`
	Explanation     string           `json:"explicacion"`
}

// ClassificationError reports model output that could not be read as a
// valid Intent. Raw is kept for diagnosis.
type ClassificationError struct {
	Raw string
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// IntentClassifier asks a model to map a request onto the catalog.
type IntentClassifier struct {
	completer JSONCompleter
	system    string
}

// NewIntentClassifier renders the catalog prompt once.
func NewIntentClassifier(c JSONCompleter) *IntentClassifier {
	return &IntentClassifier{completer: c, system: catalog.ClassifierPrompt()}
}

// Classify makes a single attempt. Provider errors are returned unchanged;
// unreadable output yields a *ClassificationError.
func (c *IntentClassifier) Classify(ctx context.Context, query string) (Intent, error) {
	raw, err := c.completer.CompleteJSON(ctx, c.system, query)
	if err != nil {
		return Intent{}, err
	}
	intent, err := ParseIntent(raw)
	if err != nil {
		return Intent{}, err
	}
	log.Debug().
		Str("category", string(intent.Category)).
		Interface("actions", intent.Actions).
		Msg("intent classified")
	return intent, nil
}

// ParseIntent strips code fences, decodes and validates model output.
func ParseIntent(raw string) (Intent, error) {
	var in Intent
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &in); err != nil {
		return Intent{}, &ClassificationError{Raw: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if in.Category == "" {
		return Intent{}, &ClassificationError{Raw: raw, Err: fmt.Errorf("missing categoria")}
	}
	if err := catalog.Validate(in.Category, in.Actions); err != nil {
		return Intent{}, &ClassificationError{Raw: raw, Err: err}
	}
	if in.SuggestedParams == nil {
		in.SuggestedParams = map[string]any{}
	}
	return in, nil
}
