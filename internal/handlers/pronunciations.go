package handlers

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pronounce-gateway/internal/cache"
	"pronounce-gateway/internal/heteronym"
	"pronounce-gateway/pkg/logging"
)

// Dictionary supplies phonetic entries for a word.
type Dictionary interface {
	Lookup(ctx context.Context, word string) ([]heteronym.Phonetic, error)
}

// PronunciationsHandler serves GET /v1/words/{word}/pronunciations.
type PronunciationsHandler struct {
	Dictionary Dictionary
	Version    int
}

func NewPronunciationsHandler(d Dictionary, version int) *PronunciationsHandler {
	return &PronunciationsHandler{Dictionary: d, Version: version}
}

type pronunciationGroup struct {
	heteronym.Group
	CacheKey string `json:"cacheKey,omitempty"`
}

type pronunciationsResponse struct {
	Word       string               `json:"word"`
	Heteronym  bool                 `json:"heteronym"`
	Unresolved bool                 `json:"unresolved"`
	Partial    bool                 `json:"partial,omitempty"`
	Groups     []pronunciationGroup `json:"groups"`
}

// List reports whether word needs one clip per part of speech. Known
// heteronyms without dictionary evidence come back unresolved, with empty
// transcriptions; no default pronunciation is picked on the caller's behalf.
func (h *PronunciationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)

	word := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "word")))
	if n := utf8.RuneCountInString(word); n == 0 || n > maxWordRunes {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   codeInvalidRequest,
			Message: "word must be 1 to 100 characters",
			Field:   "word",
		})
		return
	}

	resp := pronunciationsResponse{Word: word, Groups: []pronunciationGroup{}}

	phonetics, err := h.Dictionary.Lookup(ctx, word)
	if err != nil {
		// the static heteronym list still answers
		logger.Warn("dictionary lookup failed", zap.String("word", word), zap.Error(err))
		resp.Partial = true
	}

	groups := heteronym.Detect(word, phonetics)
	resp.Heteronym = heteronym.IsHeteronym(groups)
	resp.Unresolved = heteronym.Unresolved(groups)
	for _, g := range groups {
		pg := pronunciationGroup{Group: g}
		if g.Transcription != "" {
			pg.CacheKey = cache.DeriveKey(word, g.Transcription, "", h.Version).String()
		}
		resp.Groups = append(resp.Groups, pg)
	}

	logger.Info("pronunciations_listed",
		zap.String("word", word),
		zap.Int("phonetics", len(phonetics)),
		zap.Int("groups", len(groups)),
		zap.Bool("unresolved", resp.Unresolved),
	)
	writeJSON(w, http.StatusOK, resp)
}
