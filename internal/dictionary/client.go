package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"pronounce-gateway/internal/heteronym"
)

const defaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

// Client looks words up in the Free Dictionary API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Config struct {
	BaseURL string        // default: Free Dictionary English entries
	Timeout time.Duration // default: 5s

	HTTPClient *http.Client
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
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
		logger:     logger.Named("dictionary"),
	}
}

type entry struct {
	Word      string `json:"word"`
	Phonetic  string `json:"phonetic"`
	Phonetics []struct {
		Text  string `json:"text"`
		Audio string `json:"audio"`
	} `json:"phonetics"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
	} `json:"meanings"`
}

// Lookup returns every phonetic entry for word. An unknown word is an empty
// result, not an error.
func (c *Client) Lookup(ctx context.Context, word string) ([]heteronym.Phonetic, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(word), nil)
	if err != nil {
		return nil, fmt.Errorf("dictionary: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dictionary: lookup %q: %w", word, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("dictionary word not found", zap.String("word", word))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("dictionary: upstream %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var entries []entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("dictionary: decode response: %w", err)
	}
	return flatten(entries), nil
}

// flatten only attaches a part of speech when the entry has a single meaning;
// with several it is not known which pronunciation goes with which.
func flatten(entries []entry) []heteronym.Phonetic {
	var out []heteronym.Phonetic
	for _, e := range entries {
		pos := ""
		if len(e.Meanings) == 1 {
			pos = e.Meanings[0].PartOfSpeech
		}

		added := false
		for _, p := range e.Phonetics {
			if strings.TrimSpace(p.Text) == "" {
				continue
			}
			out = append(out, heteronym.Phonetic{Text: p.Text, PartOfSpeech: pos, Audio: p.Audio})
			added = true
		}
		if !added && strings.TrimSpace(e.Phonetic) != "" {
			out = append(out, heteronym.Phonetic{Text: e.Phonetic, PartOfSpeech: pos})
		}
	}
	return out
}
