// Package agent holds the language-model side of the system: text
// generation providers, the fallback chain that orders them, the intent
// classifier and the query interpreter.
package agent

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Generator produces text for a prompt. Implementations are process-lifetime
// handles and hold no per-request state.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// JSONCompleter answers a user message under a system instruction with a
// JSON document.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// StripCodeFence removes a surrounding Markdown code fence, with or without
// a language tag, and trims whitespace. Text without a fence is only trimmed.
// A json tag is dropped even when the body follows it on the same line.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := strings.TrimPrefix(s, "```")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	} else if nl := strings.IndexByte(body, '\n'); nl != -1 {
		// other language tags only count on their own line, e.g. ```js
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{[\"") {
			body = body[nl+1:]
		}
	}
	if end := strings.LastIndex(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
