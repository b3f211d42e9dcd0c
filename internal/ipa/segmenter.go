// Package ipa splits IPA transcriptions into phoneme tokens and classifies them.
package ipa

import "strings"

const (
	PrimaryStress   = 'ˈ'
	SecondaryStress = 'ˌ'
)

// Token is one phoneme of a transcription.
type Token struct {
	// Raw is the token as it appeared in the input, stress mark included.
	Raw string
	// Stripped is Raw without stress marks.
	Stripped string
	Class    Class
}

// delimiters wrap a transcription and carry no phonetic content.
const delimiters = "/[]"

// separators split syllables or words and never become tokens.
const separators = " \t\n.‿"

// modifiers attach to the preceding base character.
var modifiers = map[rune]bool{
	'ː':      true, // length
	'ˑ':      true, // half-length
	'\u0303': true, // nasalization
	'˞':      true, // rhoticity
	'ʰ':      true, // aspiration
	'ʷ':      true, // labialization
	'ʲ':      true, // palatalization
	'ˠ':      true, // velarization
	'\u0329': true, // syllabic
}

// tieBar joins two base characters into one affricate or diphthong.
const tieBar = '\u0361'

// rColorable are the vowels that merge with a following "r".
const rColorable = "əɜɑɔɪʊɛ"

// Clean removes delimiters and surrounding whitespace.
func Clean(transcription string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if strings.ContainsRune(delimiters, r) {
			return -1
		}
		return r
	}, transcription))
}

// StripStress removes primary and secondary stress marks.
func StripStress(s string) string {
	return strings.Map(func(r rune) rune {
		if r == PrimaryStress || r == SecondaryStress {
			return -1
		}
		return r
	}, s)
}

// Segment splits a transcription into phoneme tokens, left to right.
// A stress mark is attached to the base character that follows it. Length,
// nasalization, aspiration and similar modifiers are absorbed into the
// preceding token, a tie bar pulls in the next base character, and an "r"
// after an r-colorable vowel is merged into that vowel.
// Empty input or input made only of delimiters yields no tokens.
func Segment(transcription string) []Token {
	raws := split(Clean(transcription))
	if len(raws) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(raws))
	for _, raw := range raws {
		stripped := StripStress(raw)
		tokens = append(tokens, Token{
			Raw:      raw,
			Stripped: stripped,
			Class:    Classify(stripped),
		})
	}
	return tokens
}

// Phonemes returns only the raw text of each token.
func Phonemes(transcription string) []string {
	tokens := Segment(transcription)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Raw
	}
	return out
}

func split(cleaned string) []string {
	runes := []rune(cleaned)
	var out []string

	i := 0
	for i < len(runes) {
		if strings.ContainsRune(separators, runes[i]) {
			i++
			continue
		}

		var b strings.Builder
		if runes[i] == PrimaryStress || runes[i] == SecondaryStress {
			b.WriteRune(runes[i])
			i++
			// a stress mark followed by a separator or another stress mark stands alone
			if i < len(runes) && !strings.ContainsRune(separators, runes[i]) &&
				runes[i] != PrimaryStress && runes[i] != SecondaryStress {
				b.WriteRune(runes[i])
				i++
			}
		} else {
			b.WriteRune(runes[i])
			i++
		}

		for i < len(runes) {
			next := runes[i]
			if modifiers[next] {
				b.WriteRune(next)
				i++
				continue
			}
			if next == tieBar {
				b.WriteRune(next)
				i++
				if i < len(runes) && !strings.ContainsRune(separators, runes[i]) {
					b.WriteRune(runes[i])
					i++
				}
				continue
			}
			if next == 'r' && canTakeR(b.String()) {
				b.WriteRune(next)
				i++
			}
			break
		}

		out = append(out, b.String())
	}
	return out
}

// canTakeR reports whether token is a single r-colorable vowel, optionally long.
func canTakeR(token string) bool {
	base := []rune(strings.TrimSuffix(StripStress(token), "ː"))
	return len(base) == 1 && strings.ContainsRune(rColorable, base[0])
}
