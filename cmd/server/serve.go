package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RichardoC/caonline/internal/api"
	"github.com/RichardoC/caonline/internal/chat"
	"github.com/RichardoC/caonline/internal/config"
	"github.com/RichardoC/caonline/internal/db"
	"github.com/RichardoC/caonline/internal/llm"
	"github.com/RichardoC/caonline/internal/metrics"
	"github.com/RichardoC/caonline/internal/render"
	"github.com/RichardoC/caonline/internal/web"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterIdleTTL  = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat UI and completion relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address, overrides server.addr")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var audit api.AuditLog
	if cfg.Audit.Path != "" {
		database, err := db.New(cfg.Audit.Path)
		if err != nil {
			logger.Error("failed to initialize audit database",
				zap.Error(err),
				zap.String("dbPath", cfg.Audit.Path))
			return err
		}
		defer database.Close()
		audit = database
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	llmService := llm.New(cfg.LLM.BaseURL, cfg.LLM.Model, apiKey)
	handler := api.NewHandler(llmService, audit, metrics.NewRelay(reg), logger)

	var limiter *api.RateLimiter
	if cfg.Server.RateLimit.RPS > 0 {
		limiter = api.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
		go limiter.Run(ctx, time.Minute, limiterIdleTTL)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/gpt", api.RateLimit(limiter, logger)(http.HandlerFunc(handler.HandleCompletion)))
	mux.HandleFunc("/api/audit", handler.HandleAudit)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	renderer := render.New()
	relay := chat.NewHTTPRelay(cfg.RelayURL(), nil)
	sessions := web.NewSessions(cfg.Server.SessionTTL, func() *chat.Session {
		return chat.NewSession(relay, renderer, logger)
	}, logger)
	go sessions.Run(ctx, min(cfg.Server.SessionTTL, 5*time.Minute))

	ui, err := web.New(sessions, logger)
	if err != nil {
		return err
	}
	ui.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Chain(api.Recovery(logger), api.Logging(logger))(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("model", llmService.Model()),
			zap.String("relay", cfg.RelayURL()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
