package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mlbdata/pipeline/internal/client"
	"mlbdata/pipeline/internal/config"
	"mlbdata/pipeline/internal/extractor"
	"mlbdata/pipeline/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		startFlag  = flag.String("start", "", "start date (YYYY-MM-DD), defaults to yesterday")
		endFlag    = flag.String("end", "", "end date (YYYY-MM-DD), defaults to start")
		outFlag    = flag.String("out", "", "output directory (defaults to RAW_DATA_DIR)")
		daemonFlag = flag.Bool("daemon", false, "run on the nightly cron schedule instead of once")
	)
	flag.Parse()

	// Setup logger
	setupLogger()

	log.Info().Msg("Starting MLB data extractor")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize MLB Stats API client
	apiClient := client.NewClient(
		cfg.MLBAPIBaseURL,
		cfg.MLBAPITimeout,
		cfg.APIRateLimit,
		cfg.APIBurstLimit,
	)

	outDir := *outFlag
	if outDir == "" {
		outDir = cfg.RawDataDir
	}
	ext := extractor.New(apiClient, outDir)

	if !*daemonFlag {
		start := *startFlag
		if start == "" {
			start = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
		}
		end := *endFlag
		if end == "" {
			end = start
		}

		if _, err := ext.ExtractRange(ctx, start, end); err != nil {
			log.Fatal().Err(err).Msg("Extraction failed")
		}
		log.Info().Msg("Extractor finished")
		return
	}

	// Daemon mode: extract yesterday's slate on the configured cron schedule
	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort)
	}

	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	c := cron.New()
	_, err := c.AddFunc(cfg.NightlyExtractCron, func() {
		date := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
		log.Info().Str("date", date).Msg("Nightly extraction starting")
		if _, err := ext.ExtractDate(ctx, date); err != nil {
			log.Error().Err(err).Str("date", date).Msg("Nightly extraction failed")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("cron", cfg.NightlyExtractCron).Msg("Invalid cron expression")
	}

	c.Start()
	log.Info().Str("cron", cfg.NightlyExtractCron).Msg("Nightly extraction scheduled")

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	log.Info().Msg("Extractor shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int) {
	http.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
