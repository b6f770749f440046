package security

import (
	"fmt"
	"regexp"
	"strings"
)

const MaxPromptLength = 2000

// injectionPatterns flags attempts to steer the model away from the
// catalog or to smuggle executable content through it.
var injectionPatterns = []*regexp.Regexp{
	// English prompt injection
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)new\s+context\s*:`),
	regexp.MustCompile(`(?i)system\s+prompt`),

	// Spanish prompt injection
	regexp.MustCompile(`(?i)ignora\s+(todas\s+)?(las\s+)?instrucciones\s+(anteriores|previas)`),
	regexp.MustCompile(`(?i)olvida\s+(todas\s+)?(las\s+)?instrucciones\s+(anteriores|previas)`),
	regexp.MustCompile(`(?i)nuevo\s+contexto\s*:`),
	regexp.MustCompile(`(?i)prompt\s+del\s+sistema`),

	// Raw SQL against the store
	regexp.MustCompile(`(?i)\bdrop\s+table\b`),
	regexp.MustCompile(`(?i)\btruncate\s+table\b`),
	regexp.MustCompile(`(?i);\s*(delete|update|insert|alter)\b`),

	// Code execution
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)__import__\s*\(`),
	regexp.MustCompile(`(?i)os\.system`),
	regexp.MustCompile(`(?i)<\s*script\b`),
}

// PromptValidator screens free-text requests before they reach a model.
type PromptValidator struct {
	maxLength int
}

func NewPromptValidator() *PromptValidator {
	return &PromptValidator{maxLength: MaxPromptLength}
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

func (v *PromptValidator) Validate(prompt string) ValidationResult {
	if n := len([]rune(prompt)); n > v.maxLength {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("prompt too long: %d chars (max %d)", n, v.maxLength),
		}
	}
	if strings.TrimSpace(prompt) == "" {
		return ValidationResult{Valid: false, Message: "prompt cannot be empty"}
	}
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(prompt) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("disallowed pattern detected: %s", pattern.String()),
			}
		}
	}
	return ValidationResult{Valid: true, Message: "ok"}
}
