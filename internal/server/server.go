package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lrsystem/lrsystem/internal/config"
)

type Server struct {
	cfg        *config.Config
	http       *http.Server
	closeStore func() error // nil for the memory store
}

func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	router, err := s.setupRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg),
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// writeTimeout leaves room for every retry attempt to spend a full provider
// call plus the delay before the next one.
func writeTimeout(cfg *config.Config) time.Duration {
	attempts := max(cfg.RetryMaxAttempts, 1)
	perAttempt := time.Duration(cfg.RequestTimeout)*time.Second + cfg.RetryDelay()
	return time.Duration(attempts)*perAttempt + 10*time.Second
}

// Handler exposes the router for in-process use.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		s.close()
		return err
	case err := <-errCh:
		s.close()
		return err
	}
}

func (s *Server) close() {
	if s.closeStore == nil {
		return
	}
	if err := s.closeStore(); err != nil {
		log.Warn().Err(err).Msg("error closing store")
	} else {
		log.Info().Msg("store closed")
	}
}
