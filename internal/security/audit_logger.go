package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogConsulta records one natural-language request and how it was handled.
func (a *AuditLogger) LogConsulta(
	query, apiKey, category string,
	actions []string,
	executed, success bool,
	executionTimeMs int64,
) {
	if !a.enabled {
		return
	}
	log.Info().
		Str("event", "consulta_audit").
		Str("query_hash", hashStr(query)[:16]).
		Str("api_key_hash", hashStr(apiKey)[:16]).
		Str("category", category).
		Strs("actions", actions).
		Bool("executed", executed).
		Bool("success", success).
		Int64("execution_time_ms", executionTimeMs).
		Msg("audit")
}

// LogAction records a directly invoked action. Write actions are the ones
// worth tracing since they bypass the confirmation gate.
func (a *AuditLogger) LogAction(category, action, apiKey string, status int) {
	if !a.enabled {
		return
	}
	log.Info().
		Str("event", "action_audit").
		Str("category", category).
		Str("action", action).
		Str("api_key_hash", hashStr(apiKey)[:16]).
		Int("status", status).
		Msg("audit")
}

func hashStr(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
