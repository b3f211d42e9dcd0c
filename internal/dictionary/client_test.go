package dictionary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

const recordResponse = `[
  {"word":"record","phonetics":[{"text":"/ˈɹɛk.ɚd/","audio":"https://x/record-noun.mp3"}],
   "meanings":[{"partOfSpeech":"noun"}]},
  {"word":"record","phonetics":[{"text":""},{"text":"/ɹɪˈkɔɹd/"}],
   "meanings":[{"partOfSpeech":"verb"}]},
  {"word":"record","phonetic":"/ˈrɛkərd/","phonetics":[],
   "meanings":[{"partOfSpeech":"noun"},{"partOfSpeech":"adjective"}]}
]`

func TestLookup(t *testing.T) {
	t.Parallel()

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, recordResponse)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"}, zaptest.NewLogger(t))
	got, err := c.Lookup(context.Background(), " Record ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if gotPath != "/record" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 phonetics, got %d: %+v", len(got), got)
	}
	if got[0].PartOfSpeech != "noun" || got[0].Audio == "" {
		t.Fatalf("unexpected first phonetic %+v", got[0])
	}
	if got[1].Text != "/ɹɪˈkɔɹd/" || got[1].PartOfSpeech != "verb" {
		t.Fatalf("unexpected second phonetic %+v", got[1])
	}
	if got[2].PartOfSpeech != "" || got[2].Text != "/ˈrɛkərd/" {
		t.Fatalf("multi-meaning entry must not guess a part of speech: %+v", got[2])
	}
}

func TestLookupNotFoundIsEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title":"No Definitions Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	got, err := NewClient(Config{BaseURL: srv.URL}, zaptest.NewLogger(t)).Lookup(context.Background(), "qwzx")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %+v, %v", got, err)
	}
}

func TestLookupUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(Config{BaseURL: srv.URL}, nil).Lookup(context.Background(), "record"); err == nil {
		t.Fatal("expected error for 502")
	}
}
