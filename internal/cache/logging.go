package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pronounce-gateway/internal/metrics"
	"pronounce-gateway/pkg/logging"
)

// LoggingAudioCache wraps an AudioCache with logging + metrics.
type LoggingAudioCache struct {
	inner AudioCache
}

// NewLoggingAudioCache returns a cache that logs and records metrics.
func NewLoggingAudioCache(inner AudioCache) AudioCache {
	return &LoggingAudioCache{inner: inner}
}

func (c *LoggingAudioCache) Get(ctx context.Context, key Key) (Hit, bool) {
	start := time.Now()
	hit, ok := c.inner.Get(ctx, key)

	tier, result := "none", "miss"
	if ok {
		tier, result = string(hit.Tier), "hit"
	}
	metrics.CacheLookupsTotal.WithLabelValues(tier, result).Inc()

	logging.L(ctx).Info("audio_cache_get", append(keyFields(key, start),
		zap.String("cache_tier", tier),
		zap.String("cache_result", result), // hit | miss
	)...)
	return hit, ok
}

func (c *LoggingAudioCache) Set(ctx context.Context, key Key, audio []byte) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, audio)

	fields := append(keyFields(key, start), zap.Int("bytes", len(audio)))
	if err != nil {
		metrics.CacheWritesTotal.WithLabelValues("error").Inc()
		logging.L(ctx).Error("audio_cache_set", append(fields, zap.Error(err))...)
		return err
	}
	metrics.CacheWritesTotal.WithLabelValues("ok").Inc()
	logging.L(ctx).Info("audio_cache_set", fields...)
	return nil
}

func (c *LoggingAudioCache) Report(ctx context.Context, key Key) error {
	start := time.Now()
	err := c.inner.Report(ctx, key)
	logResult(ctx, "audio_cache_report", keyFields(key, start), err)
	return err
}

func (c *LoggingAudioCache) Delete(ctx context.Context, key Key) error {
	start := time.Now()
	err := c.inner.Delete(ctx, key)
	logResult(ctx, "audio_cache_delete", keyFields(key, start), err)
	return err
}

func keyFields(key Key, start time.Time) []zap.Field {
	return []zap.Field{
		zap.String("cache_key", key.String()),
		zap.String("word", key.Word),
		zap.String("ipa", key.IPA),
		zap.String("phoneme", key.Phoneme),
		zap.Int("markup_version", key.Version),
		zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0),
	}
}

func logResult(ctx context.Context, msg string, fields []zap.Field, err error) {
	if err != nil {
		logging.L(ctx).Error(msg, append(fields, zap.Error(err))...)
		return
	}
	logging.L(ctx).Info(msg, fields...)
}
