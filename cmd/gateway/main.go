package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pronounce-gateway/internal/cache"
	"pronounce-gateway/internal/config"
	"pronounce-gateway/internal/dictionary"
	"pronounce-gateway/internal/handlers"
	"pronounce-gateway/internal/httpserver"
	"pronounce-gateway/internal/markup"
	"pronounce-gateway/internal/metrics"
	"pronounce-gateway/internal/ratelimit"
	"pronounce-gateway/internal/synth"
	"pronounce-gateway/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("gateway exited with error: %v", err)
	}
}

func run() error {
	// ----- Config -----
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// ----- Logger -----
	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("cache_dir", cfg.CacheDir),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("cache_memory_entries", cfg.CacheMemoryEntries),
		zap.String("marks_backend", cfg.MarksBackend),
		zap.String("voice", cfg.VoiceName),
		zap.Int("markup_version", markup.Version),
	)

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.MarksBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer redisClient.Close()

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Cache (memory LRU + filesystem, suppression marks) -----
	cacheCfg := cache.Config{
		Dir:              cfg.CacheDir,
		TTL:              cfg.CacheTTL,
		MemoryEntries:    cfg.CacheMemoryEntries,
		CompressionLevel: cfg.CacheCompressionLevel,
		Version:          markup.Version,
		MarksBackend:     cfg.MarksBackend,
		Prefix:           cfg.MarksPrefix,
	}
	tiered, err := cache.NewAudioCache(cacheCfg, cache.NewMarks(cacheCfg, redisClient))
	if err != nil {
		return err
	}
	defer tiered.Close()
	audioCache := cache.NewLoggingAudioCache(tiered)

	// ----- Rate limiters (one per action) -----
	synthLimiter := ratelimit.New(cfg.SynthesisPerMinute, time.Minute)
	reportLimiter := ratelimit.New(cfg.ReportPerMinute, time.Minute)
	synthLimiter.StartSweeper(cfg.RateSweepInterval)
	reportLimiter.StartSweeper(cfg.RateSweepInterval)
	defer synthLimiter.Close()
	defer reportLimiter.Close()

	// ----- Synthesis backend -----
	synthClient, err := synth.NewClient(synth.Config{
		BaseURL:           cfg.GoogleBaseURL,
		APIKey:            cfg.GoogleAPIKey,
		LanguageCode:      cfg.LanguageCode,
		VoiceName:         cfg.VoiceName,
		SpeakingRate:      cfg.SpeakingRate,
		UpstreamTimeout:   cfg.SynthTimeout,
		MaxRetries:        cfg.SynthMaxRetries,
		RequestsPerMinute: cfg.SynthPerMinute,
	}, logger)
	if err != nil {
		return err
	}
	if closer, ok := synthClient.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	dict := dictionary.NewClient(dictionary.Config{BaseURL: cfg.DictionaryBaseURL}, logger)

	// ----- Handlers -----
	h := httpserver.Handlers{
		TTS:            handlers.NewTTSHandler(audioCache, synthClient, synthLimiter, markup.Version),
		Report:         handlers.NewReportHandler(audioCache, reportLimiter, markup.Version),
		Pronunciations: handlers.NewPronunciationsHandler(dict, markup.Version),
	}
	if cfg.DebugEndpoints {
		h.Debug = handlers.NewDebugHandler(tiered)
	}

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, h, httpserver.Options{RequestTimeout: cfg.RequestTimeout})

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ----- Periodic prune (optional) -----
	pruneDone := make(chan struct{})
	go func() {
		defer close(pruneDone)
		runPruneLoop(ctx, tiered, cfg.CachePruneInterval, logger)
	}()

	logger.Info("starting gateway",
		zap.String("addr", srv.Addr),
		zap.String("marks_backend", cfg.MarksBackend),
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ----- Graceful shutdown -----
	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
			<-pruneDone
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}
	<-pruneDone

	logger.Info("server shutdown complete")
	return nil
}

// runPruneLoop sweeps expired and stale-version entries every interval.
// interval <= 0 leaves expiry to lookups.
func runPruneLoop(ctx context.Context, c *cache.TieredCache, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := c.Prune(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("cache prune failed", zap.Error(err))
				continue
			}
			logger.Info("cache pruned",
				zap.Int("expired", res.Expired),
				zap.Int("stale", res.Stale),
				zap.Int("memory", res.Memory),
			)
		}
	}
}
