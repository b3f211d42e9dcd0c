package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"pronounce-gateway/internal/cache"
	"pronounce-gateway/internal/metrics"
	"pronounce-gateway/internal/ratelimit"
	"pronounce-gateway/pkg/logging"
)

// ReportHandler holds dependencies for POST /v1/tts/report.
type ReportHandler struct {
	Cache   cache.AudioCache
	Limiter *ratelimit.Limiter
	Version int
}

func NewReportHandler(c cache.AudioCache, limiter *ratelimit.Limiter, version int) *ReportHandler {
	return &ReportHandler{Cache: c, Limiter: limiter, Version: version}
}

type reportResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	EvictKey string `json:"evictKey"`
}

// Report suppresses the reported clip and removes its durable copy, so the
// next request for the same key is synthesized again. EvictKey names the
// client store entry to drop.
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)

	identity := clientIdentity(r)
	if d := h.Limiter.Allow(identity); !d.Allowed {
		metrics.RateLimitedTotal.WithLabelValues("report").Inc()
		logger.Warn("rate_limited", zap.String("action", "report"), zap.String("identity", identity))
		writeRateLimited(w, d.RetryAfter(time.Now()))
		return
	}

	var req reportRequest
	if status, body, err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid request", zap.Error(err))
		writeError(w, status, body)
		return
	}
	if ferr := req.validate(); ferr != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   codeInvalidRequest,
			Message: ferr.Error(),
			Field:   ferr.Field,
		})
		return
	}

	key := cache.DeriveKey(req.Word, req.IPA, req.Phoneme, h.Version)
	if err := cache.Invalidate(ctx, h.Cache, key); err != nil {
		metrics.ReportsTotal.WithLabelValues("error").Inc()
		logger.Error("report not recorded", zap.String("cache_key", key.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorResponse{
			Error:     codeReportNotStored,
			Message:   "report not recorded, try again",
			Retryable: boolPtr(true),
		})
		return
	}

	metrics.ReportsTotal.WithLabelValues("ok").Inc()
	logger.Info("pronunciation_reported",
		zap.String("cache_key", key.String()),
		zap.String("word", key.Word),
		zap.String("ipa", key.IPA),
		zap.String("phoneme", key.Phoneme),
		zap.String("identity", identity),
	)

	writeJSON(w, http.StatusOK, reportResponse{
		Success:  true,
		Message:  "report recorded; the next playback regenerates the audio",
		EvictKey: key.String(),
	})
}
