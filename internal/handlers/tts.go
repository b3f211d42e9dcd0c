package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pronounce-gateway/internal/cache"
	"pronounce-gateway/internal/markup"
	"pronounce-gateway/internal/metrics"
	"pronounce-gateway/internal/ratelimit"
	"pronounce-gateway/internal/synth"
	"pronounce-gateway/pkg/logging"
)

// TTSHandler holds dependencies for POST /v1/tts.
type TTSHandler struct {
	Cache   cache.AudioCache
	Synth   synth.Synthesizer
	Limiter *ratelimit.Limiter
	Version int
}

func NewTTSHandler(c cache.AudioCache, s synth.Synthesizer, limiter *ratelimit.Limiter, version int) *TTSHandler {
	return &TTSHandler{
		Cache:   c,
		Synth:   s,
		Limiter: limiter,
		Version: version,
	}
}

// Synthesize handles POST /v1/tts. The rate limit is checked before the body
// is read, validation before any cache or backend work.
func (h *TTSHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	identity := clientIdentity(r)
	if d := h.Limiter.Allow(identity); !d.Allowed {
		metrics.RateLimitedTotal.WithLabelValues("synthesis").Inc()
		logger.Warn("rate_limited", zap.String("action", "synthesis"), zap.String("identity", identity))
		writeRateLimited(w, d.RetryAfter(time.Now()))
		return
	}

	var req ttsRequest
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
	logger = logger.With(
		zap.String("cache_key", key.String()),
		zap.String("word", key.Word),
		zap.String("part_of_speech", req.PartOfSpeech),
	)

	// ---- cache lookup ----
	if !req.SkipCache {
		lookupStart := time.Now()
		hit, ok := h.Cache.Get(ctx, key)
		if ok {
			logger.Info("cache_decision",
				zap.Bool("cache_hit", true),
				zap.String("cache_tier", string(hit.Tier)),
				zap.Duration("cache_lookup_latency", time.Since(lookupStart)),
				zap.Duration("total_latency", time.Since(start)),
			)
			writeAudio(w, key, hit.Audio, "HIT", hit.Tier)
			return
		}
	}

	// ---- miss: build markup and synthesize ----
	ssml := markup.Build(req.Word, req.IPA, req.Phoneme)
	synthStart := time.Now()
	audio, err := h.Synth.Synthesize(ctx, ssml)
	synthLatency := time.Since(synthStart)
	if err != nil {
		if ctx.Err() != nil {
			// client gone or request timed out; the timeout middleware answers
			logger.Warn("synthesis abandoned", zap.Error(err))
			return
		}
		logger.Error("synthesis failed", zap.Error(err), zap.Duration("synth_latency", synthLatency))
		writeSynthError(w, err)
		return
	}

	stored := true
	if err := h.Cache.Set(ctx, key, audio); err != nil {
		// the clip is still good to return; it just is not cached
		stored = false
		logger.Error("cache store failed", zap.Error(err))
	}

	logger.Info("cache_decision",
		zap.Bool("cache_hit", false),
		zap.Bool("skip_cache", req.SkipCache),
		zap.Bool("stored", stored),
		zap.Duration("synth_latency", synthLatency),
		zap.Duration("total_latency", time.Since(start)),
	)

	if !stored {
		w.Header().Set("X-Cache-Stored", "false")
	}
	writeAudio(w, key, audio, "MISS", "")
}

func writeAudio(w http.ResponseWriter, key cache.Key, audio []byte, status string, tier cache.Tier) {
	hdr := w.Header()
	hdr.Set("Content-Type", "audio/mpeg")
	hdr.Set("Content-Length", strconv.Itoa(len(audio)))
	hdr.Set("Cache-Control", "public, max-age=86400")
	hdr.Set("X-Cache", status)
	hdr.Set("X-Cache-Key", key.String())
	hdr.Set("X-Markup-Version", strconv.Itoa(key.Version))
	if tier != "" {
		hdr.Set("X-Cache-Tier", string(tier))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// writeSynthError tells the caller whether retrying can help.
func writeSynthError(w http.ResponseWriter, err error) {
	kind := synth.KindOf(err)
	body := errorResponse{
		Error:   codeUnavailable,
		Message: "pronunciation unavailable, try again",
		Reason:  string(kind),
	}

	status := http.StatusServiceUnavailable
	switch kind {
	case synth.KindUnavailable:
		body.Retryable = boolPtr(true)
		w.Header().Set("Retry-After", "5")
	case synth.KindQuota:
		body.Retryable = boolPtr(true)
		w.Header().Set("Retry-After", "60")
	case synth.KindAuth:
		status = http.StatusBadGateway
		body.Message = "pronunciation unavailable: synthesis backend is misconfigured"
		body.Retryable = boolPtr(false)
	case synth.KindInvalidInput:
		status = http.StatusUnprocessableEntity
		body.Message = "pronunciation unavailable: the backend rejected this transcription"
		body.Retryable = boolPtr(false)
	}

	writeError(w, status, body)
}
