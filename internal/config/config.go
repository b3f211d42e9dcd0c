// Package config loads gateway settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     string `env:"PORT"      envDefault:"8080"`
	Env      string `env:"ENV"       envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server cache
	CacheDir              string        `env:"TTS_CACHE_DIR"               envDefault:"./data/tts-cache"`
	CacheTTL              time.Duration `env:"TTS_CACHE_TTL"               envDefault:"4320h"`
	CacheMemoryEntries    int           `env:"TTS_CACHE_MEMORY_ENTRIES"    envDefault:"100"`
	CacheCompressionLevel int           `env:"TTS_CACHE_COMPRESSION_LEVEL" envDefault:"0"`
	CachePruneInterval    time.Duration `env:"TTS_CACHE_PRUNE_INTERVAL"    envDefault:"0"`

	// Suppression marks
	MarksBackend string `env:"REPORT_MARKS_BACKEND" envDefault:"memory"` // "memory" or "redis"
	MarksPrefix  string `env:"REPORT_MARKS_PREFIX"  envDefault:"pronounce"`
	RedisAddr    string `env:"REDIS_ADDR"           envDefault:"127.0.0.1:6379"`

	// Per-client rate limits, per minute
	SynthesisPerMinute int           `env:"RATE_LIMIT_TTS_PER_MINUTE"    envDefault:"30"`
	ReportPerMinute    int           `env:"RATE_LIMIT_REPORT_PER_MINUTE" envDefault:"5"`
	RateSweepInterval  time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL"    envDefault:"5m"`

	// Google Cloud Text-to-Speech
	GoogleAPIKey      string        `env:"GOOGLE_TTS_API_KEY"`
	GoogleBaseURL     string        `env:"GOOGLE_TTS_BASE_URL"     envDefault:"https://texttospeech.googleapis.com"`
	VoiceName         string        `env:"GOOGLE_TTS_VOICE_NAME"   envDefault:"en-US-Wavenet-D"`
	LanguageCode      string        `env:"GOOGLE_TTS_LANGUAGE"     envDefault:"en-US"`
	SpeakingRate      float64       `env:"GOOGLE_TTS_SPEAKING_RATE" envDefault:"0.9"`
	SynthTimeout      time.Duration `env:"SYNTH_TIMEOUT"            envDefault:"15s"`
	SynthMaxRetries   int           `env:"SYNTH_MAX_RETRIES"        envDefault:"2"`
	SynthPerMinute    int           `env:"SYNTH_REQUESTS_PER_MINUTE" envDefault:"300"`
	DictionaryBaseURL string        `env:"DICTIONARY_BASE_URL"      envDefault:"https://api.dictionaryapi.dev/api/v2/entries/en"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"20s"`
	DebugEndpoints bool          `env:"DEBUG_ENDPOINTS" envDefault:"false"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required and cross-field settings.
func (c Config) Validate() error {
	var errs []error
	if c.GoogleAPIKey == "" {
		errs = append(errs, errors.New("GOOGLE_TTS_API_KEY is required"))
	}
	if c.CacheDir == "" {
		errs = append(errs, errors.New("TTS_CACHE_DIR must not be empty"))
	}
	switch c.MarksBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis marks backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("REPORT_MARKS_BACKEND %q: want memory or redis", c.MarksBackend))
	}
	if c.CacheCompressionLevel < 0 || c.CacheCompressionLevel > 22 {
		errs = append(errs, fmt.Errorf("TTS_CACHE_COMPRESSION_LEVEL %d out of range [0, 22]", c.CacheCompressionLevel))
	}
	if c.SynthesisPerMinute < 1 || c.ReportPerMinute < 1 {
		errs = append(errs, errors.New("rate limits must be at least 1 per minute"))
	}
	if c.CacheTTL < 0 || c.CachePruneInterval < 0 {
		errs = append(errs, errors.New("cache durations must not be negative"))
	}
	return errors.Join(errs...)
}
