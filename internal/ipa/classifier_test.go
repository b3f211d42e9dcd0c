package ipa

import (
	"strings"
	"testing"
)

func TestClassifyTables(t *testing.T) {
	for _, c := range consonants {
		if got := Classify(c); got != Consonant {
			t.Errorf("Classify(%q) = %s, want consonant", c, got)
		}
	}
	for _, v := range vowels {
		if got := Classify(v); got != Vowel {
			t.Errorf("Classify(%q) = %s, want vowel", v, got)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Class
	}{
		{"tʃ", Consonant},
		{"t͡ʃ", Consonant},
		{"dʒ", Consonant},
		{"t", Consonant},
		{"pʰ", Consonant},
		{"ər", Vowel},
		{"ɜːr", Vowel},
		{"oʊr", Vowel}, // r-colored via the suffix rule
		{"eɪr", Vowel},
		{"ɑ̃", Vowel},
		{"ʁ", Unmatched},
		{"ˈ", Unmatched},
		{"", Unmatched},
		{"xyz", Unmatched},
		{"r", Consonant},
	}
	for _, tt := range tests {
		if got := Classify(tt.in); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTablesLongestFirst(t *testing.T) {
	for name, table := range map[string][]string{"consonants": consonants, "vowels": vowels} {
		for i, entry := range table {
			for _, earlier := range table[:i] {
				if len(earlier) < len(entry) && strings.HasPrefix(entry, earlier) {
					t.Errorf("%s: %q listed after its prefix %q", name, entry, earlier)
				}
			}
		}
	}
}

func TestSegmentClassifies(t *testing.T) {
	tokens := Segment("/ˈpɜːrmɪt/")
	want := []Class{Consonant, Vowel, Consonant, Vowel, Consonant}
	for i, tok := range tokens {
		if tok.Class != want[i] {
			t.Errorf("token %q class = %s, want %s", tok.Raw, tok.Class, want[i])
		}
	}
}

func TestIsPlosive(t *testing.T) {
	for _, p := range []string{"p", "t", "k", "b", "d", "g", "ɡ"} {
		if !IsPlosive(p) {
			t.Errorf("IsPlosive(%q) = false", p)
		}
	}
	for _, p := range []string{"s", "m", "tʃ", "ə", ""} {
		if IsPlosive(p) {
			t.Errorf("IsPlosive(%q) = true", p)
		}
	}
}
