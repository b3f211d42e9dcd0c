// Package ttsclient is the consumer side of the pronunciation gateway: a
// local audio store in front of POST /v1/tts, the report round trip, and
// single-slot playback.
package ttsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"pronounce-gateway/internal/cache"
	"pronounce-gateway/internal/markup"
)

var (
	ErrRateLimited       = errors.New("gateway rate limit exceeded")
	ErrInvalidRequest    = errors.New("gateway rejected the request")
	ErrUnavailable       = errors.New("pronunciation unavailable")
	ErrReportNotRecorded = errors.New("report not recorded")
)

// APIError is a non-2xx gateway response. errors.Is matches it against one
// of the package sentinels.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
	Reason     string
	Retryable  bool
	RetryAfter time.Duration

	sentinel error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	return fmt.Sprintf("gateway %d %s: %s", e.StatusCode, e.Code, msg)
}

func (e *APIError) Unwrap() error { return e.sentinel }

// Params names one clip.
type Params struct {
	Word         string
	IPA          string
	Phoneme      string
	PartOfSpeech string
	SkipCache    bool
}

// key is the local store key for p; it matches the gateway's X-Cache-Key.
func (p Params) key() cache.Key {
	return cache.DeriveKey(p.Word, p.IPA, p.Phoneme, markup.Version)
}

// Source says where fetched audio came from.
type Source string

const (
	SourceLocal       Source = "local"
	SourceMemory      Source = "memory"
	SourceFilesystem  Source = "filesystem"
	SourceSynthesized Source = "synthesized"
)

type Result struct {
	Audio  []byte
	Key    string
	Source Source
}

type Config struct {
	BaseURL string
	Timeout time.Duration // default: 20s

	HTTPClient *http.Client
}

// Client fetches clips through the local store. Store may be nil, in which
// case every fetch goes to the gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *Store
	logger     *zap.Logger
}

func NewClient(cfg Config, store *Store, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("ttsclient: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("ttsclient: invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		store:      store,
		logger:     logger.Named("ttsclient"),
	}, nil
}

type ttsBody struct {
	Word         string `json:"word"`
	IPA          string `json:"ipa"`
	Phoneme      string `json:"phoneme,omitempty"`
	PartOfSpeech string `json:"partOfSpeech,omitempty"`
	SkipCache    bool   `json:"skipCache,omitempty"`
}

// Fetch returns audio for p: from the local store unless p.SkipCache, else
// from the gateway, storing the result locally before returning it.
func (c *Client) Fetch(ctx context.Context, p Params) (Result, error) {
	key := p.key().String()

	if c.store != nil && !p.SkipCache {
		audio, ok, err := c.store.Get(key)
		if err != nil {
			c.logger.Warn("local store read failed", zap.String("cache_key", key), zap.Error(err))
		}
		if ok {
			c.logger.Debug("local_cache_hit", zap.String("cache_key", key))
			return Result{Audio: audio, Key: key, Source: SourceLocal}, nil
		}
	}

	resp, err := c.post(ctx, "/v1/tts", ttsBody(p))
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, decodeAPIError(resp)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("ttsclient: read audio: %w", err)
	}
	if len(audio) == 0 {
		return Result{}, fmt.Errorf("ttsclient: empty audio: %w", ErrUnavailable)
	}

	if remote := resp.Header.Get("X-Cache-Key"); remote != "" && remote != key {
		c.logger.Warn("gateway key differs from local key",
			zap.String("cache_key", key),
			zap.String("remote_key", remote),
		)
	}

	source := SourceSynthesized
	if resp.Header.Get("X-Cache") == "HIT" {
		source = SourceFilesystem
		if resp.Header.Get("X-Cache-Tier") == string(cache.TierMemory) {
			source = SourceMemory
		}
	}

	if c.store != nil {
		if err := c.store.Put(key, audio); err != nil {
			c.logger.Warn("local store write failed", zap.String("cache_key", key), zap.Error(err))
		}
	}
	return Result{Audio: audio, Key: key, Source: source}, nil
}

type reportBody struct {
	Word    string `json:"word"`
	IPA     string `json:"ipa"`
	Phoneme string `json:"phoneme,omitempty"`
}

type reportResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	EvictKey string `json:"evictKey"`
}

// Report flags the clip for p as wrong and drops the local copy the gateway
// names. The local copy is kept when the gateway did not record the report.
func (c *Client) Report(ctx context.Context, p Params) (string, error) {
	resp, err := c.post(ctx, "/v1/tts/report", reportBody{Word: p.Word, IPA: p.IPA, Phoneme: p.Phoneme})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}
	var out reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ttsclient: decode report response: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("ttsclient: %s: %w", out.Message, ErrReportNotRecorded)
	}

	evict := out.EvictKey
	if evict == "" {
		evict = p.key().String()
	}
	if c.store != nil {
		if err := c.store.Delete(evict); err != nil {
			return evict, fmt.Errorf("ttsclient: drop local copy: %w", err)
		}
	}
	return evict, nil
}

// Group is one pronunciation of a word.
type Group struct {
	PartOfSpeech string `json:"partOfSpeech"`
	IPA          string `json:"ipa"`
	Audio        string `json:"audio,omitempty"`
	CacheKey     string `json:"cacheKey,omitempty"`
}

type Pronunciations struct {
	Word       string  `json:"word"`
	Heteronym  bool    `json:"heteronym"`
	Unresolved bool    `json:"unresolved"`
	Partial    bool    `json:"partial,omitempty"`
	Groups     []Group `json:"groups"`
}

// Pronunciations lists the distinct pronunciations the gateway knows for word.
func (c *Client) Pronunciations(ctx context.Context, word string) (Pronunciations, error) {
	u := c.baseURL + "/v1/words/" + url.PathEscape(strings.TrimSpace(word)) + "/pronunciations"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Pronunciations{}, fmt.Errorf("ttsclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Pronunciations{}, fmt.Errorf("ttsclient: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Pronunciations{}, decodeAPIError(resp)
	}
	var out Pronunciations
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Pronunciations{}, fmt.Errorf("ttsclient: decode pronunciations: %w", err)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ttsclient: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ttsclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ttsclient: %w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

type errorBody struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	Field             string `json:"field"`
	Reason            string `json:"reason"`
	Retryable         *bool  `json:"retryable"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
}

func decodeAPIError(resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Message = strings.TrimSpace(string(raw))
	}

	e := &APIError{
		StatusCode: resp.StatusCode,
		Code:       body.Error,
		Message:    body.Message,
		Field:      body.Field,
		Reason:     body.Reason,
	}
	if body.Retryable != nil {
		e.Retryable = *body.Retryable
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		e.RetryAfter = time.Duration(secs) * time.Second
	} else if body.RetryAfterSeconds > 0 {
		e.RetryAfter = time.Duration(body.RetryAfterSeconds) * time.Second
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		e.sentinel = ErrRateLimited
		e.Retryable = true
	case body.Error == "report_not_recorded":
		e.sentinel = ErrReportNotRecorded
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusUnprocessableEntity:
		e.sentinel = ErrInvalidRequest
	default:
		e.sentinel = ErrUnavailable
	}
	return e
}
