package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultStoreDriver     = "memory"
	DefaultDBMaxOpenConns  = 10
	DefaultDBMaxIdleConns  = 5
	DefaultDBConnMaxLife   = 30 * time.Minute
	DefaultDBSchema        = "public"
	DefaultRequestTimeout  = 60 // seconds
	DefaultRetryAttempts   = 5
	DefaultRetryDelayMs    = 1000
	DefaultRelationMatch   = 0.5
	DefaultCorrectionMatch = 0.8

	DefaultOpenAIModel           = "gpt-3.5-turbo"
	DefaultOpenAIClassifierModel = "gpt-4o-mini"
	DefaultOllamaURL             = "http://localhost:11434/api/generate"
	DefaultOllamaModel           = "mistral"
	DefaultOllamaTimeout         = 60 // seconds
	DefaultAnthropicModel        = "claude-sonnet-4-6"

	DefaultSMTPPort = 587

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

var DefaultSMTPHosts = []string{
	"smtp-relay.sendinblue.com",
	"smtp-relay.brevo.com",
}

var DefaultSensitiveColumns = []string{
	"email", "correo", "celular", "telefono", "dni",
}

var DefaultPIIKeywords = []string{
	"contraseña", "password", "tarjeta de crédito", "credit card",
	"cuenta bancaria", "bank account", "clave privada", "private key",
	"token de acceso", "access token", "api key",
}
