package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"pronounce-gateway/internal/metrics"
)

const (
	maxSSMLSize     = 5000             // Google's input limit in bytes
	maxResponseSize = 10 * 1024 * 1024 // 10MB of base64 audio
)

func (c *client) Synthesize(parentCtx context.Context, ssml string) ([]byte, error) {
	start := time.Now()
	audio, err := c.synthesize(parentCtx, ssml)

	metrics.SynthesisLatencySeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SynthesisRequestsTotal.WithLabelValues(string(KindOf(err))).Inc()
		c.logger.Error("synth request failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, err
	}
	metrics.SynthesisRequestsTotal.WithLabelValues("ok").Inc()
	c.logger.Info("synth request completed",
		zap.Int("audio_bytes", len(audio)),
		zap.String("voice", c.cfg.VoiceName),
		zap.Duration("duration", time.Since(start)),
	)
	return audio, nil
}

func (c *client) synthesize(parentCtx context.Context, ssml string) ([]byte, error) {
	if ssml == "" {
		return nil, &Error{Kind: KindInvalidInput, Message: "empty markup"}
	}
	if len(ssml) > maxSSMLSize {
		return nil, &Error{
			Kind:    KindInvalidInput,
			Message: fmt.Sprintf("markup too large (%d bytes, max %d)", len(ssml), maxSSMLSize),
		}
	}

	ctx, cancel := context.WithTimeout(parentCtx, c.cfg.UpstreamTimeout)
	defer cancel()

	body, err := json.Marshal(synthesizeRequest{
		Input: synthesisInput{SSML: ssml},
		Voice: voiceSelection{
			LanguageCode: c.cfg.LanguageCode,
			Name:         c.cfg.VoiceName,
		},
		AudioConfig: audioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  c.cfg.SpeakingRate,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synth: marshal request: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/v1/text:synthesize?key=" + url.QueryEscape(c.cfg.APIKey)

	// doOnce builds a fresh *http.Request for each attempt
	doOnce := func(ctx context.Context) (*http.Response, error) {
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build HTTP request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
		return c.httpClient.Do(httpReq)
	}

	resp, err := c.doWithRetry(ctx, doOnce)
	if err != nil {
		if parentCtx.Err() != nil {
			// caller went away
			return nil, err
		}
		return nil, &Error{Kind: KindUnavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.upstreamError(resp)
	}

	var out synthesizeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return nil, &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Message: "decode upstream response", Err: err}
	}
	if out.AudioContent == "" {
		return nil, &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Message: "upstream returned no audio"}
	}

	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Message: "decode audio content", Err: err}
	}
	if len(audio) == 0 {
		return nil, &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Message: "upstream returned no audio"}
	}
	return audio, nil
}

func (c *client) upstreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var perr providerErrorResponse
	if err := json.Unmarshal(raw, &perr); err == nil && perr.Error.Message != "" {
		c.logger.Error("synth provider error",
			zap.Int("status", resp.StatusCode),
			zap.String("error_status", perr.Error.Status),
			zap.String("error_message", perr.Error.Message),
		)
		return &Error{
			Kind:       classify(resp.StatusCode, perr.Error.Status),
			StatusCode: resp.StatusCode,
			Status:     perr.Error.Status,
			Message:    perr.Error.Message,
		}
	}

	c.logger.Error("synth upstream error",
		zap.Int("status", resp.StatusCode),
		zap.String("body", truncate(string(raw), 200)),
	)
	return &Error{
		Kind:       classify(resp.StatusCode, ""),
		StatusCode: resp.StatusCode,
		Message:    truncate(string(raw), 200),
	}
}

// truncate limits string length for logging
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
