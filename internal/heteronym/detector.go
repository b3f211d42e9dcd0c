// Package heteronym decides whether a spelling needs more than one
// pronunciation, keyed by part of speech.
package heteronym

import (
	"strings"
)

// Phonetic is one transcription supplied by the dictionary.
type Phonetic struct {
	Text         string
	PartOfSpeech string
	Audio        string
}

// Group is one pronunciation of a heteronym.
type Group struct {
	PartOfSpeech  string `json:"partOfSpeech"`
	Transcription string `json:"ipa"`
	AudioURL      string `json:"audio,omitempty"`
}

// commonly mispronounced spellings the dictionary rarely splits by part of speech
var known = map[string]struct{}{
	"permit": {}, "record": {}, "present": {}, "object": {}, "subject": {},
	"project": {}, "contract": {}, "produce": {}, "desert": {}, "refuse": {},
	"content": {}, "contest": {}, "convict": {}, "conduct": {}, "conflict": {},
	"console": {}, "excuse": {}, "export": {}, "import": {}, "increase": {},
	"insult": {}, "protest": {}, "rebel": {}, "reject": {}, "suspect": {},
	"transport": {}, "read": {}, "live": {}, "bow": {}, "close": {},
}

const unknownPartOfSpeech = "unknown"

// IsKnown reports whether word is on the static heteronym list.
func IsKnown(word string) bool {
	_, ok := known[strings.ToLower(strings.TrimSpace(word))]
	return ok
}

// Detect returns two or more groups when the phonetics disambiguate word by
// part of speech. When they do not and word is a known heteronym it returns
// noun and verb placeholders with empty transcriptions, leaving resolution to
// the caller, but only when at most one usable transcription was seen.
// Several entries that normalize to one transcription yield nil.
func Detect(word string, phonetics []Phonetic) []Group {
	var groups []Group
	seen := make(map[string]bool)
	distinct := make(map[string]bool)
	usable := 0

	for _, p := range phonetics {
		norm := Normalize(p.Text)
		if norm == "" {
			continue
		}
		usable++
		pos := strings.ToLower(strings.TrimSpace(p.PartOfSpeech))
		if pos == "" {
			pos = unknownPartOfSpeech
		}
		if seen[pos] {
			continue
		}
		seen[pos] = true
		distinct[norm] = true
		groups = append(groups, Group{
			PartOfSpeech:  pos,
			Transcription: strings.TrimSpace(p.Text),
			AudioURL:      strings.TrimSpace(p.Audio),
		})
	}

	if len(distinct) >= 2 {
		return groups
	}
	if usable <= 1 && IsKnown(word) {
		return Placeholders()
	}
	return nil
}

// Placeholders signals an unresolved known heteronym.
func Placeholders() []Group {
	return []Group{
		{PartOfSpeech: "noun"},
		{PartOfSpeech: "verb"},
	}
}

// Unresolved reports whether groups carry no usable transcription.
func Unresolved(groups []Group) bool {
	if len(groups) == 0 {
		return false
	}
	for _, g := range groups {
		if g.Transcription != "" {
			return false
		}
	}
	return true
}

// IsHeteronym reports whether groups describe more than one pronunciation.
func IsHeteronym(groups []Group) bool {
	return len(groups) >= 2
}

// ForPartOfSpeech returns the transcription recorded for pos.
func ForPartOfSpeech(groups []Group, pos string) (string, bool) {
	for _, g := range groups {
		if strings.EqualFold(g.PartOfSpeech, pos) && g.Transcription != "" {
			return g.Transcription, true
		}
	}
	return "", false
}

// Normalize reduces a transcription to a comparison form: no delimiters,
// parentheses, whitespace or stress marks, lowercased.
func Normalize(transcription string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		switch r {
		case '/', '[', ']', '(', ')', 'ˈ', 'ˌ', '\'':
			return -1
		}
		if r == ' ' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, transcription))
}
