package ipa

import "strings"

// Class is the advisory phoneme category used for labeling.
type Class int

const (
	Unmatched Class = iota
	Consonant
	Vowel
)

func (c Class) String() string {
	switch c {
	case Consonant:
		return "consonant"
	case Vowel:
		return "vowel"
	default:
		return "unmatched"
	}
}

// Tables are ordered so that a longer entry always precedes any entry that is
// a prefix of it.
var (
	consonants = []string{
		"t\u0361ʃ", "d\u0361ʒ",
		"tʃ", "dʒ",
		"p", "b", "t", "d", "k", "g", "ɡ", "ʔ",
		"f", "v", "θ", "ð", "s", "z", "ʃ", "ʒ", "h", "x",
		"m", "n", "ŋ",
		"l", "r", "ɹ", "ɾ",
		"j", "w",
	}

	vowels = []string{
		"ɜːr", "ɑːr", "ɔːr", "iːr", "uːr",
		"aɪr", "aʊr",
		"iː", "ɑː", "ɔː", "uː", "ɜː", "eː",
		"aɪ", "aʊ", "eɪ", "oɪ", "ɔɪ", "oʊ", "əʊ",
		"ɪə", "eə", "ʊə",
		"ər", "ɜr", "ɑr", "ɔr", "ɪr", "ʊr", "ɛr",
		"ɚ", "ɝ",
		"i", "ɪ", "e", "ɛ", "æ", "a", "ɑ", "ɒ", "ɔ", "o",
		"ʊ", "u", "ʌ", "ə", "ɜ",
	}
)

// classModifiers are removed before a second lookup, so "pʰ" classifies like "p".
const classModifiers = "ʰʷʲˠˑ\u0303\u0329"

// Classify labels a phoneme with stress marks already stripped. Vowel entries
// are checked first, then consonants. A token ending in "r" whose remainder is
// a vowel is an r-colored vowel. Anything else is Unmatched.
func Classify(phoneme string) Class {
	if phoneme == "" {
		return Unmatched
	}
	if c := lookup(phoneme); c != Unmatched {
		return c
	}
	if base, ok := strings.CutSuffix(phoneme, "r"); ok && base != "" {
		if lookupTable(vowels, base) {
			return Vowel
		}
	}

	bare := strings.Map(func(r rune) rune {
		if strings.ContainsRune(classModifiers, r) {
			return -1
		}
		return r
	}, phoneme)
	if bare != phoneme && bare != "" {
		return lookup(bare)
	}
	return Unmatched
}

func lookup(phoneme string) Class {
	if lookupTable(vowels, phoneme) {
		return Vowel
	}
	if lookupTable(consonants, phoneme) {
		return Consonant
	}
	return Unmatched
}

func lookupTable(table []string, phoneme string) bool {
	for _, entry := range table {
		if entry == phoneme {
			return true
		}
	}
	return false
}

// IsPlosive reports whether phoneme is a stop that needs a vowel to be
// audible on its own.
func IsPlosive(phoneme string) bool {
	switch phoneme {
	case "p", "t", "k", "b", "d", "g", "ɡ":
		return true
	}
	return false
}
