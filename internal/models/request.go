package models

import "strings"

// ConsultaService is the service name that routes a request through the
// natural-language pipeline.
const ConsultaService = "consultaAI"

// ServiceRequest for POST /api/v1/services
type ServiceRequest struct {
	Service string          `json:"service"`
	Content *ServiceContent `json:"content"`
}

type ServiceContent struct {
	Action string         `json:"action,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Query  string         `json:"query,omitempty"`
}

// IsConsulta reports whether the request goes through classification.
func (r *ServiceRequest) IsConsulta() bool {
	return r.Service == ConsultaService
}

func (r *ServiceRequest) SetDefaults() {
	r.Service = strings.TrimSpace(r.Service)
	if r.Content == nil {
		return
	}
	r.Content.Action = strings.TrimSpace(r.Content.Action)
	r.Content.Query = strings.TrimSpace(r.Content.Query)
	if r.Content.Params == nil {
		r.Content.Params = map[string]any{}
	}
}

func (r *ServiceRequest) Validate() error {
	if r.Service == "" {
		return missing("service")
	}
	if r.Content == nil {
		return missing("content")
	}
	if r.IsConsulta() {
		if r.Content.Query == "" {
			return missing("content.query")
		}
		return nil
	}
	if r.Content.Action == "" {
		return missing("content.action")
	}
	return nil
}

// InterpretRequest for POST /api/v1/interpret
type InterpretRequest struct {
	Query string `json:"queryUser"`
}

func (r *InterpretRequest) SetDefaults() {
	r.Query = strings.TrimSpace(r.Query)
}

func (r *InterpretRequest) Validate() error {
	if r.Query == "" {
		return missing("queryUser")
	}
	return nil
}

// GenerateRequest for POST /api/v1/generate
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

func (r *GenerateRequest) SetDefaults() {
	r.Prompt = strings.TrimSpace(r.Prompt)
}

func (r *GenerateRequest) Validate() error {
	if r.Prompt == "" {
		return missing("prompt")
	}
	return nil
}

// WhatsAppRequest for POST /api/v1/whatsapp/send
type WhatsAppRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (r *WhatsAppRequest) SetDefaults() {
	r.Phone = strings.ReplaceAll(strings.TrimSpace(r.Phone), " ", "")
}

func (r *WhatsAppRequest) Validate() error {
	if r.Phone == "" {
		return missing("phone")
	}
	if strings.TrimSpace(r.Message) == "" {
		return missing("message")
	}
	return nil
}
