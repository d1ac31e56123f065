package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"mlbdata/pipeline/internal/cache"
	"mlbdata/pipeline/internal/client"
	"mlbdata/pipeline/internal/config"
	"mlbdata/pipeline/internal/enrich"
	"mlbdata/pipeline/internal/jsonio"
	"mlbdata/pipeline/internal/loader"
	"mlbdata/pipeline/internal/metrics"
	"mlbdata/pipeline/internal/repository"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		fileFlag      = flag.String("file", "", "load a single payload file")
		dirFlag       = flag.String("dir", "", "load every .json file in a directory")
		scheduleStart = flag.String("schedule-start", "", "fetch and load the schedule from this date (YYYY-MM-DD)")
		scheduleEnd   = flag.String("schedule-end", "", "end of the schedule range (defaults to schedule-start)")
		initSchema    = flag.Bool("init-schema", false, "create the database tables before loading")
	)
	flag.Parse()

	// Setup logger
	setupLogger()

	log.Info().Msg("Starting MLB data loader")

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

	// Initialize database connection
	dbConfig := repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}

	db, err := repository.NewDatabase(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *initSchema {
		if err := db.CreateSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create schema")
		}
	}

	// Initialize MLB Stats API client
	apiClient := client.NewClient(
		cfg.MLBAPIBaseURL,
		cfg.MLBAPITimeout,
		cfg.APIRateLimit,
		cfg.APIBurstLimit,
	)

	// Initialize the enricher, with Redis in front when available
	var enricher loader.Enricher
	if cfg.EnrichmentEnabled {
		var metaCache enrich.MetadataCache
		redisCache, err := cache.NewRedisCache(
			ctx,
			cfg.RedisAddr(),
			cfg.RedisPassword,
			cfg.RedisDB,
			time.Duration(cfg.CacheTTLMetadata)*time.Second,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			defer redisCache.Close()
			metaCache = redisCache
		}
		enricher = enrich.New(apiClient, metaCache)
	}

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort)
	}

	ld := loader.New(&store{db: db}, enricher)

	if err := run(ctx, ld, apiClient, *fileFlag, *dirFlag, *scheduleStart, *scheduleEnd); err != nil {
		log.Fatal().Err(err).Msg("Load run failed")
	}

	updateIngestionGauges(ctx, db)
	log.Info().Msg("Loader finished")
}

// run dispatches to the selected load mode. Exactly one of file, dir or
// schedule range must be given.
func run(ctx context.Context, ld *loader.Loader, apiClient *client.Client, file, dir, scheduleStart, scheduleEnd string) error {
	switch {
	case file != "":
		return loadFile(ctx, ld, file)

	case dir != "":
		return loadDir(ctx, ld, dir)

	case scheduleStart != "":
		if scheduleEnd == "" {
			scheduleEnd = scheduleStart
		}
		schedule, err := apiClient.FetchSchedule(ctx, scheduleStart, scheduleEnd)
		if err != nil {
			return err
		}
		_, err = ld.LoadSchedule(ctx, schedule)
		return err

	default:
		return fmt.Errorf("one of -file, -dir or -schedule-start is required")
	}
}

func loadFile(ctx context.Context, ld *loader.Loader, path string) error {
	raw, err := jsonio.ReadJSON(path)
	if err != nil {
		return err
	}
	return ld.Load(ctx, filepath.Base(path), raw)
}

// loadDir loads every .json file in a directory. A failed file is logged and
// skipped; the batch keeps going.
func loadDir(ctx context.Context, ld *loader.Loader, dir string) error {
	files, err := jsonio.ListJSONFiles(dir)
	if err != nil {
		return err
	}

	loaded, failed := 0, 0
	for _, path := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := loadFile(ctx, ld, path); err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to load file")
			failed++
			continue
		}
		loaded++
	}

	log.Info().
		Str("dir", dir).
		Int("loaded", loaded).
		Int("failed", failed).
		Msg("Directory load complete")

	if loaded == 0 && failed > 0 {
		return fmt.Errorf("all %d files in %s failed to load", failed, dir)
	}
	return nil
}

// store adapts the repository's unit of work to the loader's Store interface
type store struct {
	db *repository.Database
}

func (s *store) InTx(ctx context.Context, fn func(sess loader.Session) error) error {
	return s.db.InTx(ctx, func(sess *repository.Session) error {
		return fn(sess)
	})
}

// updateIngestionGauges refreshes the table-count gauges after a run
func updateIngestionGauges(ctx context.Context, db *repository.Database) {
	teams, err := db.Teams.Count(ctx, db.Pool)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count teams")
		return
	}
	players, err := db.Players.Count(ctx, db.Pool)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count players")
		return
	}
	games, err := db.Games.Count(ctx, db.Pool)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count games")
		return
	}

	metrics.UpdateIngestionStats(int64(teams), int64(players), int64(games))
	log.Info().
		Int("teams", teams).
		Int("players", players).
		Int("games", games).
		Msg("Ingestion totals")
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
