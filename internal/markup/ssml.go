// Package markup builds the SSML sent to the synthesis backend.
package markup

import (
	"encoding/xml"
	"strings"
	"unicode/utf8"

	"pronounce-gateway/internal/ipa"
)

// Version identifies the markup construction logic. Bump it whenever the
// output of Build changes for an existing input; every cache key embeds it.
//
//	v1: example sentence as synthesis input
//	v2: part-of-speech carrier sentences
//	v3: SSML <phoneme> with IPA, plosive schwa in single-phoneme mode
const Version = 3

// neutralVowel is appended to isolated plosives so the backend can voice them.
const neutralVowel = "ə"

// placeholderText is the visible text for multi-character phonemes.
const placeholderText = "sound"

// Build returns SSML that pins the pronunciation of word to its IPA
// transcription. When phoneme is non-empty only that phoneme is voiced.
// Build never fails; odd input produces best-effort markup.
func Build(word, transcription, phoneme string) string {
	if p := strings.TrimSpace(ipa.StripStress(phoneme)); p != "" {
		return buildPhoneme(p)
	}
	return render(ipa.Clean(transcription), strings.TrimSpace(word))
}

// Pronunciation returns the ph attribute Build would emit.
func Pronunciation(transcription, phoneme string) string {
	if p := strings.TrimSpace(ipa.StripStress(phoneme)); p != "" {
		ph, _ := phonemeParts(p)
		return ph
	}
	return ipa.Clean(transcription)
}

func buildPhoneme(phoneme string) string {
	ph, text := phonemeParts(phoneme)
	return render(ph, text)
}

func phonemeParts(phoneme string) (ph, text string) {
	ph = phoneme
	if ipa.IsPlosive(phoneme) {
		ph = phoneme + neutralVowel
	}

	text = placeholderText
	if utf8.RuneCountInString(phoneme) == 1 {
		text = phoneme
	}
	return ph, text
}

func render(ph, text string) string {
	var b strings.Builder
	b.WriteString(`<speak><phoneme alphabet="ipa" ph="`)
	escape(&b, ph)
	b.WriteString(`">`)
	escape(&b, text)
	b.WriteString(`</phoneme></speak>`)
	return b.String()
}

func escape(b *strings.Builder, s string) {
	// strings.Builder never returns a write error
	_ = xml.EscapeText(b, []byte(s))
}
