package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"pronounce-gateway/internal/handlers"
	"pronounce-gateway/internal/metrics"
	"pronounce-gateway/internal/middleware"
)

// Handlers groups everything the router mounts. Debug may be nil.
type Handlers struct {
	TTS            *handlers.TTSHandler
	Report         *handlers.ReportHandler
	Pronunciations *handlers.PronunciationsHandler
	Debug          *handlers.DebugHandler
}

type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, h Handlers, opts Options) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 20 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 16 * 1024
	}

	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())
	r.Use(middleware.Timeout(opts.RequestTimeout))
	// request bodies are small JSON objects
	r.Use(middleware.MaxBodySize(opts.MaxBodyBytes))

	// routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/tts", h.TTS.Synthesize)
		r.Post("/tts/report", h.Report.Report)
		r.Get("/words/{word}/pronunciations", h.Pronunciations.List)
	})

	if h.Debug != nil {
		r.Route("/debug/cache", func(r chi.Router) {
			r.Get("/", h.Debug.Stats)
			r.Delete("/", h.Debug.Clear)
			r.Post("/prune", h.Debug.Prune)
		})
	}

	// health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}
