package handlers

import (
	"strings"
	"unicode/utf8"

	"pronounce-gateway/internal/ipa"
)

const (
	maxWordRunes         = 100
	maxIPARunes          = 200
	maxPhonemeRunes      = 50
	maxPartOfSpeechRunes = 32
)

// ttsRequest is the body of POST /v1/tts.
type ttsRequest struct {
	Word         string `json:"word"`
	IPA          string `json:"ipa"`
	Phoneme      string `json:"phoneme,omitempty"`
	PartOfSpeech string `json:"partOfSpeech,omitempty"`
	SkipCache    bool   `json:"skipCache,omitempty"`
}

// reportRequest is the body of POST /v1/tts/report.
type reportRequest struct {
	Word    string `json:"word"`
	IPA     string `json:"ipa"`
	Phoneme string `json:"phoneme,omitempty"`
}

type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string { return e.Field + ": " + e.Message }

// validateTarget checks the fields shared by synthesis and report requests
// and trims them in place.
func validateTarget(word, transcription, phoneme *string) *fieldError {
	*word = strings.TrimSpace(*word)
	*transcription = strings.TrimSpace(*transcription)
	*phoneme = strings.TrimSpace(*phoneme)

	switch n := utf8.RuneCountInString(*word); {
	case n == 0:
		return &fieldError{"word", "is required"}
	case n > maxWordRunes:
		return &fieldError{"word", "must be at most 100 characters"}
	}

	if ipa.Clean(*transcription) == "" {
		return &fieldError{"ipa", "is required"}
	}
	if utf8.RuneCountInString(*transcription) > maxIPARunes {
		return &fieldError{"ipa", "must be at most 200 characters"}
	}

	if utf8.RuneCountInString(*phoneme) > maxPhonemeRunes {
		return &fieldError{"phoneme", "must be at most 50 characters"}
	}
	return nil
}

func (r *ttsRequest) validate() *fieldError {
	if err := validateTarget(&r.Word, &r.IPA, &r.Phoneme); err != nil {
		return err
	}
	r.PartOfSpeech = strings.TrimSpace(r.PartOfSpeech)
	if utf8.RuneCountInString(r.PartOfSpeech) > maxPartOfSpeechRunes {
		return &fieldError{"partOfSpeech", "must be at most 32 characters"}
	}
	return nil
}

func (r *reportRequest) validate() *fieldError {
	return validateTarget(&r.Word, &r.IPA, &r.Phoneme)
}
