// Command monitor wires the batch-monitoring process: configuration,
// storage, metrics source, LLM gateway, notifiers, the per-tenant worker
// scheduler, the retention janitor, the chat-session cache janitor, and a
// minimal HTTP health/metrics surface.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/api"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/chatcache"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/config"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/llmgateway"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/notify"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/promsource"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/retention"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/scheduler"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/tracing"
	"github.com/nervesparksdev05/aidevops-monitor/pkg/worker"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	httpPort := getEnv("HTTP_PORT", "8080")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	st, err := store.NewStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to connect to store: %v", err)
	}
	defer st.DB().Close()

	tracerProvider, err := tracing.NewProvider(ctx, cfg.Tracing, "aidevops-monitor")
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	tracer := tracing.New("aidevops-monitor")

	metricsClient := promsource.NewClient(cfg.Metrics.BaseURL, cfg.Metrics.Timeout)
	llm := llmgateway.New(cfg.LLM, tracer)

	webhook := notify.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Username, cfg.Webhook.Icon)
	email := notify.NewEmailNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, cfg.SMTP.Recipients)

	chatCache := chatcache.New()
	go chatcache.RunJanitor(ctx, chatCache, time.Hour, time.Now)

	janitor := retention.NewJanitor(st, cfg.Retention.Caps, cfg.Retention.SweepInterval)
	janitor.Start(ctx)

	newWorker := func(userID string) scheduler.TenantWorker {
		return worker.New(
			worker.Config{
				UserID:             userID,
				IntervalMinutes:    cfg.Batch.IntervalMinutes,
				MaxMetricsPerBatch: cfg.Batch.MaxMetricsPerBatch,
				Model:              cfg.LLM.Primary.Model,
				Location:           cfg.Timezone,
			},
			metricsClient, llm, st, tracer, webhook, email,
		)
	}
	sched := scheduler.New(st, newWorker)
	sched.Start(ctx)

	srv := api.New(st, sched)
	httpServer := &http.Server{
		Addr:    ":" + httpPort,
		Handler: srv.Router(),
	}

	go func() {
		slog.Info("http server listening", "port", httpPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, stopping services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}

	sched.Stop()
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		slog.Error("tracer shutdown failed", "error", err)
	}
	janitor.Stop()
	slog.Info("shutdown complete")
}
