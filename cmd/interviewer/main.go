package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"interview-assistant/config"
	"interview-assistant/internal/application"
	"interview-assistant/internal/console"
	"interview-assistant/internal/infra"
	"interview-assistant/internal/infra/anthropic"
	"interview-assistant/internal/infra/audio"
	"interview-assistant/internal/infra/csvlog"
	"interview-assistant/internal/infra/gemini"
	"interview-assistant/internal/infra/openai"
	"interview-assistant/internal/infra/pushover"
	"interview-assistant/internal/infra/sqlitestore"
	"interview-assistant/internal/metrics"
	"interview-assistant/internal/web"
)

const defaultConfigPath = "config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to config file")
	mock := flag.Bool("mock", false, "use canned services instead of hosted APIs")
	frontend := flag.String("frontend", "", "front end to run: web or console")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("loading .env", "error", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *mock {
		cfg.Mock = true
	}
	if *frontend != "" {
		cfg.Frontend = *frontend
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	if err := run(cfg, logger); err != nil {
		logger.Error("interview assistant stopped", "error", err)
		os.Exit(1)
	}
}

// loadConfig falls back to defaults when the default config file is absent.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var recorder *metrics.Recorder
	var m application.Metrics = application.NoopMetrics{}
	if cfg.Metrics.Enabled {
		r, err := metrics.New("interview-assistant")
		if err != nil {
			return fmt.Errorf("setting up metrics: %w", err)
		}
		defer r.Shutdown(context.Background())
		recorder = r
		m = r
	}

	store := audio.NewFileStore(cfg.Interview.AudioDir)

	csvLog, err := csvlog.New(cfg.Interview.ResultsFile)
	if err != nil {
		return fmt.Errorf("opening results log: %w", err)
	}

	var results application.ResultLogger = csvLog
	var history application.History
	if cfg.Interview.ArchiveDB != "" {
		archive, err := sqlitestore.New(cfg.Interview.ArchiveDB)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer archive.Close()
		results = application.TeeLogger{csvLog, archive}
		history = archive
	}

	var services application.Services
	var notifier application.Notifier = &application.NoopNotifier{}
	if cfg.Mock {
		services = application.NewMockServices()
	} else {
		services, err = buildServices(cfg, store, m)
		if err != nil {
			return err
		}
		if cfg.Pushover.Enabled {
			p := pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
			p.SetRetry(retryConfig(cfg.Retry))
			notifier = p
		}
	}

	controller := application.NewController(services, store, results, notifier, m, logger, application.ControllerConfig{
		QuestionCount:  cfg.Interview.QuestionCount,
		ServiceTimeout: cfg.Interview.ServiceTimeout,
	})

	logger.Info("starting interview assistant",
		"frontend", cfg.Frontend,
		"mock", cfg.Mock,
		"llm", cfg.LLM.Provider,
		"stt", cfg.STT.Provider,
		"results", csvLog.Path(),
		"archive", cfg.Interview.ArchiveDB,
	)

	if cfg.Frontend == "console" {
		return runConsole(ctx, cfg, controller, recorder, logger)
	}
	return runWeb(ctx, cfg, controller, history, recorder, logger)
}

func buildServices(cfg *config.Config, store application.AudioStore, m application.Metrics) (application.Services, error) {
	retry := retryConfig(cfg.Retry)

	llm, err := createLLM(cfg.LLM, retry)
	if err != nil {
		return application.Services{}, err
	}
	stt, err := createSTT(cfg.STT, retry)
	if err != nil {
		return application.Services{}, err
	}

	return application.NewHostedServices(llm, stt, store, m), nil
}

func retryConfig(cfg config.RetryConfig) infra.RetryConfig {
	return infra.RetryConfig{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   cfg.Multiplier,
	}
}

func createLLM(cfg config.LLMConfig, retry infra.RetryConfig) (application.TextGenerator, error) {
	switch cfg.Provider {
	case "groq":
		model := orDefault(cfg.Model, openai.GroqChatModel)
		c := openai.NewChatClientWithURL(cfg.APIKey, model, orDefault(cfg.BaseURL, openai.GroqBaseURL))
		c.SetRetry(retry)
		return c, nil
	case "openai":
		c := openai.NewChatClientWithURL(cfg.APIKey, orDefault(cfg.Model, openai.DefaultChatModel), orDefault(cfg.BaseURL, openai.OpenAIBaseURL))
		c.SetRetry(retry)
		return c, nil
	case "anthropic":
		var c *anthropic.ClaudeClient
		if cfg.BaseURL != "" {
			c = anthropic.NewClaudeClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL)
		} else {
			c = anthropic.NewClaudeClient(cfg.APIKey, cfg.Model)
		}
		c.SetRetry(retry)
		return c, nil
	case "gemini":
		var c *gemini.Client
		if cfg.BaseURL != "" {
			c = gemini.NewClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL)
		} else {
			c = gemini.NewClient(cfg.APIKey, cfg.Model)
		}
		c.SetRetry(retry)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func createSTT(cfg config.STTConfig, retry infra.RetryConfig) (application.SpeechToText, error) {
	var c *openai.WhisperClient
	switch cfg.Provider {
	case "groq":
		c = openai.NewWhisperClientWithURL(cfg.APIKey, orDefault(cfg.Model, openai.GroqWhisperModel), cfg.Language, orDefault(cfg.BaseURL, openai.GroqBaseURL))
	case "openai":
		c = openai.NewWhisperClientWithURL(cfg.APIKey, orDefault(cfg.Model, openai.DefaultWhisperModel), cfg.Language, orDefault(cfg.BaseURL, openai.OpenAIBaseURL))
	default:
		return nil, fmt.Errorf("unknown stt provider %q", cfg.Provider)
	}
	c.SetRetry(retry)
	return c, nil
}

func runWeb(ctx context.Context, cfg *config.Config, controller *application.Controller, history application.History, recorder *metrics.Recorder, logger *slog.Logger) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	registry := web.NewRegistry(cfg.Interview.SessionTTL)
	registry.StartJanitor(ctx, time.Minute, logger)

	opts := web.Options{
		Controller: controller,
		Registry:   registry,
		Logger:     logger,
		History:    history,
		RateLimit:  cfg.HTTP.RateLimit,
		Mock:       cfg.Mock,
		OnFatal:    func(err error) { cancel(err) },
	}
	if recorder != nil {
		opts.MetricsPath = cfg.Metrics.Path
		opts.Metrics = recorder.Handler()
	}

	srv, err := web.New(opts)
	if err != nil {
		return fmt.Errorf("building web server: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web front end listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

func runConsole(ctx context.Context, cfg *config.Config, controller *application.Controller, recorder *metrics.Recorder, logger *slog.Logger) error {
	if recorder != nil {
		r := chi.NewRouter()
		r.Handle(cfg.Metrics.Path, recorder.Handler())
		server := &http.Server{Addr: cfg.HTTP.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "error", err)
			}
		}()
		defer server.Close()
	}

	source := createAudioSource(cfg.Capture, cfg.HTTP.RateLimit, logger)
	err := console.New(controller, source, os.Stdin, os.Stdout, logger).Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, console.ErrAbandoned) {
		logger.Info("interview ended early", "reason", err)
		return nil
	}
	return err
}

func createAudioSource(cfg config.CaptureConfig, rateLimit int, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case "http":
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, rateLimit, logger)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, cfg.MaxLength, logger)
	default:
		return audio.NewFileSource(cfg.FileDir)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
