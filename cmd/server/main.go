// Command server starts the Flooky Tools HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flookyhq/flooky-tools/internal/adapter/ai/anthropic"
	"github.com/flookyhq/flooky-tools/internal/adapter/ai/langdetect"
	"github.com/flookyhq/flooky-tools/internal/adapter/convstore/memory"
	convpg "github.com/flookyhq/flooky-tools/internal/adapter/convstore/postgres"
	"github.com/flookyhq/flooky-tools/internal/adapter/convstore/redisstore"
	httpserver "github.com/flookyhq/flooky-tools/internal/adapter/httpserver"
	"github.com/flookyhq/flooky-tools/internal/adapter/mediadl"
	"github.com/flookyhq/flooky-tools/internal/adapter/observability"
	tikaext "github.com/flookyhq/flooky-tools/internal/adapter/textextractor/tika"
	"github.com/flookyhq/flooky-tools/internal/adapter/transcribe"
	"github.com/flookyhq/flooky-tools/internal/app"
	"github.com/flookyhq/flooky-tools/internal/config"
	"github.com/flookyhq/flooky-tools/internal/domain"
	"github.com/flookyhq/flooky-tools/internal/retry"
	"github.com/flookyhq/flooky-tools/internal/schema"
	"github.com/flookyhq/flooky-tools/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so /metrics exposes
	// HTTP, model, and task instrumentation.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()

	// Conversation store per configured driver. Readiness probes are only
	// wired for the backends actually in use.
	var (
		store      domain.ConversationStore
		dbCheck    func(context.Context) error
		redisCheck func(context.Context) error
	)
	switch cfg.ConvStoreDriver {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis url", slog.Any("error", err))
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("redis connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()
		store = redisstore.New(rdb, cfg.MaxConversationHistory)
		redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	case "postgres":
		pool, err := convpg.NewPool(ctx, cfg.DBURL)
		if err != nil {
			slog.Error("db connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := convpg.Migrate(ctx, pool); err != nil {
			slog.Error("db migrate failed", slog.Any("error", err))
			os.Exit(1)
		}
		store = convpg.New(pool, cfg.MaxConversationHistory)
		dbCheck = func(ctx context.Context) error { return pool.Ping(ctx) }
	default:
		store = memory.New(cfg.MaxConversationHistory)
	}

	// Model client and per-task schemas
	aicl := anthropic.New(cfg)
	schemas := schema.MustLoad()

	// Retry policy for the document analysis calls
	maxAttempts, baseDelay, multiplier := cfg.GetRetryConfig()
	policy := retry.Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, Multiplier: multiplier}

	// Adapters
	extractor := tikaext.New(cfg.TikaURL)
	detector := langdetect.New(aicl)
	downloader := mediadl.New(cfg.YTDLPPath)
	transcriber := transcribe.New(cfg.WhisperURL)

	srv := &httpserver.Server{
		Cfg:         cfg,
		Bill:        usecase.NewBillService(aicl, extractor, detector, schemas[domain.TaskBill], cfg.MaxTokens),
		Contract:    usecase.NewContractService(aicl, extractor, schemas[domain.TaskContract], policy, cfg.MaxTokens),
		Financial:   usecase.NewFinancialService(aicl, extractor, schemas[domain.TaskFinancial], policy, cfg.MaxTokens),
		CV:          usecase.NewCVService(aicl, extractor, schemas[domain.TaskCV], cfg.MaxTokens),
		Video:       usecase.NewVideoService(aicl, downloader, transcriber, schemas[domain.TaskVideo], cfg.MaxTokens),
		Chat:        usecase.NewChatService(aicl, store, cfg.ChatMaxTokens),
		Transcriber: transcriber,
		Detector:    detector,
		DBCheck:     dbCheck,
		RedisCheck:  redisCheck,
		TikaCheck:   buildTikaCheck(cfg.TikaURL),
	}

	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}

// buildTikaCheck probes the Tika version endpoint.
func buildTikaCheck(baseURL string) func(context.Context) error {
	client := &http.Client{Timeout: 2 * time.Second}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/version", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("tika status %d", resp.StatusCode)
		}
		return nil
	}
}
