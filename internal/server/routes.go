package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/agent"
	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/config"
	"github.com/lrsystem/lrsystem/internal/filter"
	"github.com/lrsystem/lrsystem/internal/handler"
	"github.com/lrsystem/lrsystem/internal/metrics"
	"github.com/lrsystem/lrsystem/internal/middleware"
	"github.com/lrsystem/lrsystem/internal/notify"
	"github.com/lrsystem/lrsystem/internal/resolver"
	"github.com/lrsystem/lrsystem/internal/retry"
	"github.com/lrsystem/lrsystem/internal/schema"
	"github.com/lrsystem/lrsystem/internal/security"
	"github.com/lrsystem/lrsystem/internal/service"
	"github.com/lrsystem/lrsystem/internal/store"
)

// openStore returns the configured store and, for SQL backends, the handle
// to close on shutdown.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.StoreDriver {
	case "postgres":
		pg, err := store.OpenPostgres(ctx, store.PostgresConfig{
			DSN:             cfg.DatabaseURL,
			Schema:          cfg.DBSchema,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: config.DefaultDBConnMaxLife,
		})
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "memory", "":
		seed := make(map[string][]store.Row)
		if cfg.SeedFile != "" {
			loaded, err := store.LoadSeed(cfg.SeedFile)
			if err != nil {
				return nil, nil, err
			}
			seed = loaded
		}
		// Every catalog table exists, even when the seed leaves it empty.
		for _, e := range catalog.Entities() {
			if _, ok := seed[e.Table]; !ok {
				seed[e.Table] = nil
			}
		}
		log.Info().Int("tables", len(seed)).Str("seed", cfg.SeedFile).Msg("memory store ready")
		return store.NewMemory(seed), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (s *Server) setupRoutes(ctx context.Context) (http.Handler, error) {
	cfg := s.cfg

	// ─── Store ──────────────────────────────────────────────────────────────────
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.closeStore = closeStore

	// ─── Security ───────────────────────────────────────────────────────────────
	var piiDetector *security.PIIDetector
	if cfg.EnablePIIDetection {
		piiDetector = security.NewPIIDetector(cfg.PIIKeywords)
	}
	promptVal := security.NewPromptValidator()
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)
	// Credentials are masked even when column masking is off.
	dataMasker := security.NewDataMasker(nil)
	if cfg.EnableDataMasking {
		dataMasker = security.NewDataMasker(cfg.SensitiveColumns)
	}

	// ─── Generation providers ───────────────────────────────────────────────────
	var (
		openaiP    *agent.OpenAIProvider
		ollamaP    *agent.OllamaProvider
		anthropicP *agent.AnthropicProvider
	)
	if cfg.OpenAIAPIKey != "" {
		openaiP = agent.NewOpenAIProvider(agent.OpenAIConfig{
			APIKey:          cfg.OpenAIAPIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			Model:           cfg.OpenAIModel,
			ClassifierModel: cfg.OpenAIClassifierModel,
			Timeout:         time.Duration(cfg.RequestTimeout) * time.Second,
		})
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set - primary provider disabled")
	}
	if cfg.OllamaEnabled {
		ollamaP = agent.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, time.Duration(cfg.OllamaTimeout)*time.Second)
	}
	if cfg.AnthropicAPIKey != "" {
		anthropicP = agent.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL)
	}
	chain := agent.NewFallbackChain(openaiP, ollamaP, anthropicP)

	// JSON mode is only available on the hosted providers.
	var completer agent.JSONCompleter = agent.ChainCompleter{Gen: chain}
	switch {
	case openaiP != nil:
		completer = openaiP
	case anthropicP != nil:
		completer = anthropicP
	}

	// ─── Query pipeline ─────────────────────────────────────────────────────────
	opts := resolver.DefaultOptions()
	opts.RelationThreshold = cfg.RelationMatchThreshold
	opts.CorrectionThreshold = cfg.CorrectionMatchThreshold
	res := resolver.New(st, schema.NewIntrospector(st), filter.NewNormalizer(nil), opts)

	dispatcher, err := service.NewDispatcher(st, res, dataMasker)
	if err != nil {
		return nil, err
	}
	retryCfg := retry.Config{MaxAttempts: cfg.RetryMaxAttempts, Delay: cfg.RetryDelay()}
	orch := service.NewOrchestrator(
		agent.NewIntentClassifier(completer),
		dispatcher,
		service.NewBehaviorDetector(),
		piiDetector,
		promptVal,
		auditLogger,
		service.OrchestratorConfig{Retry: retryCfg},
	)
	retryCfg.Name = "interpret"
	queryAgent := agent.NewQueryAgent(agent.NewInterpreter(chain), res, retryCfg)

	// ─── Notifications ──────────────────────────────────────────────────────────
	var mailer *notify.Mailer
	if cfg.SMTPUser != "" {
		mailer = notify.NewMailer(notify.SMTPConfig{
			Hosts:    cfg.SMTPHosts,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		})
	} else {
		log.Warn().Msg("SMTP credentials not set - mail endpoint disabled")
	}
	whatsapp := notify.NewWhatsAppSession(cfg.WhatsAppEnabled, nil)

	log.Info().
		Str("store", cfg.StoreDriver).
		Strs("providers", chain.Providers()).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("data_masking", cfg.EnableDataMasking).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Bool("mail_enabled", mailer != nil).
		Bool("whatsapp_enabled", cfg.WhatsAppEnabled).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(map[string]handler.HealthChecker{"store": st})
	servicesH := handler.NewServicesHandler(orch, cfg.APIKeyHeader)
	interpretH := handler.NewInterpretHandler(queryAgent, dataMasker)
	generateH := handler.NewGenerateHandler(chain, promptVal)
	notifyH := handler.NewNotifyHandler(mailer, whatsapp)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)
	r.Handle("/metrics", metrics.Handler())

	// Auth + rate limiting for API routes
	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/services", servicesH.Handle)
			r.Post("/interpret", interpretH.Interpret)
			r.Post("/generate", generateH.Generate)

			r.Post("/mail/send", notifyH.SendMail)
			r.Post("/whatsapp/send", notifyH.SendWhatsApp)
			r.Get("/whatsapp/status", notifyH.WhatsAppStatus)
		})
	})

	return r, nil
}
