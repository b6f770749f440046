package models

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Code   int    `json:"code,omitempty"`
	// Details carries context such as raw model output.
	Details any `json:"details,omitempty"`
}

// Envelope wraps every successful payload.
type Envelope struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Falta el campo '%s'", e.Field)
}

func missing(field string) error {
	return &ValidationError{Field: field}
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteErrorDetails(w, code, message, nil)
}

func WriteErrorDetails(w http.ResponseWriter, code int, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Status:  "error",
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// WriteEnvelope writes data inside an Envelope. Status is "success" for 2xx
// codes and "error" otherwise.
func WriteEnvelope(w http.ResponseWriter, code int, data any) {
	status := "success"
	if code < 200 || code > 299 {
		status = "error"
	}
	WriteJSON(w, code, Envelope{Status: status, Timestamp: time.Now().UTC(), Data: data})
}
