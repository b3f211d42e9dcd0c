package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap/zaptest"

	"pronounce-gateway/internal/cache"
	"pronounce-gateway/internal/handlers"
	"pronounce-gateway/internal/heteronym"
	"pronounce-gateway/internal/markup"
	"pronounce-gateway/internal/ratelimit"
)

type stubSynth struct{}

func (stubSynth) Synthesize(context.Context, string) ([]byte, error) {
	return []byte("mp3"), nil
}

type stubDictionary struct{}

func (stubDictionary) Lookup(context.Context, string) ([]heteronym.Phonetic, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, synthLimit int) http.Handler {
	t.Helper()
	c, err := cache.NewAudioCache(cache.Config{Dir: t.TempDir(), Version: markup.Version}, cache.NewMemoryMarks())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })

	audio := cache.NewLoggingAudioCache(c)
	r := chi.NewRouter()
	SetupRouter(r, zaptest.NewLogger(t), Handlers{
		TTS:            handlers.NewTTSHandler(audio, stubSynth{}, ratelimit.New(synthLimit, time.Minute), markup.Version),
		Report:         handlers.NewReportHandler(audio, ratelimit.New(5, time.Minute), markup.Version),
		Pronunciations: handlers.NewPronunciationsHandler(stubDictionary{}, markup.Version),
		Debug:          handlers.NewDebugHandler(c),
	}, Options{})
	return r
}

func TestRouterRoutes(t *testing.T) {
	r := newTestRouter(t, 30)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodPost, "/v1/tts", `{"word":"gift","ipa":"ɡɪft"}`, http.StatusOK},
		{http.MethodPost, "/v1/tts/report", `{"word":"gift","ipa":"ɡɪft"}`, http.StatusOK},
		{http.MethodGet, "/v1/words/record/pronunciations", "", http.StatusOK},
		{http.MethodGet, "/debug/cache", "", http.StatusOK},
		{http.MethodDelete, "/debug/cache", "", http.StatusOK},
		{http.MethodPost, "/debug/cache/prune", "", http.StatusOK},
		{http.MethodGet, "/v1/tts", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
		if rr.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d (%s)", tt.method, tt.path, tt.want, rr.Code, rr.Body.String())
		}
	}
}

func TestRouterRateLimitsByRealIP(t *testing.T) {
	r := newTestRouter(t, 1)
	body := `{"word":"gift","ipa":"ɡɪft"}`

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/tts", strings.NewReader(body))
		req.Header.Set("X-Real-IP", ip)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("203.0.113.7"); code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}
	if code := send("203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", code)
	}
	if code := send("203.0.113.8"); code != http.StatusOK {
		t.Fatalf("other client: expected 200, got %d", code)
	}
}

func TestRouterRejectsLargeBody(t *testing.T) {
	r := newTestRouter(t, 30)

	big := `{"word":"` + strings.Repeat("a", 20*1024) + `","ipa":"a"}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/tts", strings.NewReader(big)))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}
