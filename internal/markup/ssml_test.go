package markup

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestBuildFullWord(t *testing.T) {
	got := Build("record", "/ˈrɛkərd/", "")
	want := `<speak><phoneme alphabet="ipa" ph="ˈrɛkərd">record</phoneme></speak>`
	if got != want {
		t.Fatalf("Build = %q, want %q", got, want)
	}
}

func TestBuildHeteronymsDiffer(t *testing.T) {
	noun := Build("record", "/ˈrɛkərd/", "")
	verb := Build("record", "/rɪˈkɔrd/", "")
	if noun == verb {
		t.Fatalf("noun and verb markup should differ: %q", noun)
	}
}

func TestBuildPhoneme(t *testing.T) {
	tests := []struct {
		phoneme string
		want    string
	}{
		{"p", `<speak><phoneme alphabet="ipa" ph="pə">p</phoneme></speak>`},
		{"ˈk", `<speak><phoneme alphabet="ipa" ph="kə">k</phoneme></speak>`},
		{"s", `<speak><phoneme alphabet="ipa" ph="s">s</phoneme></speak>`},
		{"m", `<speak><phoneme alphabet="ipa" ph="m">m</phoneme></speak>`},
		{"tʃ", `<speak><phoneme alphabet="ipa" ph="tʃ">sound</phoneme></speak>`},
		{"ˈɜːr", `<speak><phoneme alphabet="ipa" ph="ɜːr">sound</phoneme></speak>`},
	}
	for _, tt := range tests {
		if got := Build("pit", "/pɪt/", tt.phoneme); got != tt.want {
			t.Errorf("Build(phoneme=%q) = %q, want %q", tt.phoneme, got, tt.want)
		}
	}
}

func TestPronunciationPlosiveAppendage(t *testing.T) {
	if got := Pronunciation("/pɪt/", "p"); got == "p" {
		t.Fatalf("plosive pronunciation should not be the bare phoneme")
	}
	if got := Pronunciation("/sɪt/", "s"); got != "s" {
		t.Fatalf("Pronunciation(s) = %q, want s", got)
	}
	if got := Pronunciation("/pɪt/", ""); got != "pɪt" {
		t.Fatalf("Pronunciation(full) = %q", got)
	}
}

func TestBuildStressOnlyPhonemeFallsBackToWord(t *testing.T) {
	got := Build("pit", "/pɪt/", "ˈ")
	if !strings.Contains(got, `ph="pɪt">pit<`) {
		t.Fatalf("expected full-word markup, got %q", got)
	}
}

func TestBuildWellFormed(t *testing.T) {
	inputs := [][3]string{
		{`rock & roll`, `/ˈrɑk "ən" roʊl/`, ""},
		{`<script>`, `</x>`, ""},
		{"it's", "/ɪts/", "'"},
		{"", "", ""},
		{"a", "/ə/", `"`},
	}
	for _, in := range inputs {
		out := Build(in[0], in[1], in[2])
		dec := xml.NewDecoder(strings.NewReader(out))
		for {
			_, err := dec.Token()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Fatalf("Build(%q) produced malformed markup %q: %v", in, out, err)
			}
		}
	}
}
