package heteronym

import (
	"reflect"
	"testing"
)

func TestDetectDistinctPronunciations(t *testing.T) {
	groups := Detect("record", []Phonetic{
		{Text: "/ˈrɛkərd/", PartOfSpeech: "noun"},
		{Text: "/rɪˈkɔrd/", PartOfSpeech: "verb", Audio: "https://example.test/record-verb.mp3"},
	})

	want := []Group{
		{PartOfSpeech: "noun", Transcription: "/ˈrɛkərd/"},
		{PartOfSpeech: "verb", Transcription: "/rɪˈkɔrd/", AudioURL: "https://example.test/record-verb.mp3"},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Fatalf("Detect = %#v, want %#v", groups, want)
	}
	if !IsHeteronym(groups) {
		t.Fatalf("expected heteronym")
	}
}

func TestDetectSamePronunciationFormatting(t *testing.T) {
	groups := Detect("tomato", []Phonetic{
		{Text: "/təˈmeɪtoʊ/", PartOfSpeech: "noun"},
		{Text: "təmeɪˈtoʊ", PartOfSpeech: "adjective"},
	})
	if len(groups) > 1 {
		t.Fatalf("expected at most one group, got %#v", groups)
	}
}

func TestDetectKeepsFirstPerPartOfSpeech(t *testing.T) {
	groups := Detect("permit", []Phonetic{
		{Text: "/ˈpɜrmɪt/", PartOfSpeech: "noun"},
		{Text: "/ˈpɜːmɪt/", PartOfSpeech: "noun"},
		{Text: "/pərˈmɪt/", PartOfSpeech: "verb"},
	})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %#v", groups)
	}
	if got, _ := ForPartOfSpeech(groups, "noun"); got != "/ˈpɜrmɪt/" {
		t.Fatalf("noun transcription = %q", got)
	}
	if got, _ := ForPartOfSpeech(groups, "VERB"); got != "/pərˈmɪt/" {
		t.Fatalf("verb transcription = %q", got)
	}
}

func TestDetectKnownWithoutEvidence(t *testing.T) {
	for _, phonetics := range [][]Phonetic{
		nil,
		{{Text: "/ˈprɛzənt/"}},
		{{Text: ""}, {Text: "  "}},
		{{Text: ""}, {Text: "/rid/", PartOfSpeech: "verb"}},
	} {
		groups := Detect("Read", phonetics)
		if !reflect.DeepEqual(groups, Placeholders()) {
			t.Fatalf("Detect(%v) = %#v, want placeholders", phonetics, groups)
		}
		if !Unresolved(groups) {
			t.Fatalf("placeholders should be unresolved")
		}
	}
}

func TestDetectKnownWithIdenticalTranscriptions(t *testing.T) {
	for _, phonetics := range [][]Phonetic{
		{{Text: "/ˈrɛkərd/", PartOfSpeech: "noun"}, {Text: "rɛkˈərd", PartOfSpeech: "verb"}},
		{{Text: "/rɛd/", PartOfSpeech: "verb"}, {Text: "/ˈrɛd/", PartOfSpeech: "adjective"}},
		{{Text: "/rid/"}, {Text: "[rid]"}, {Text: "rid"}},
	} {
		groups := Detect("record", phonetics)
		if len(groups) > 1 {
			t.Fatalf("Detect(%v) = %#v, want at most one group", phonetics, groups)
		}
		if groups != nil {
			t.Fatalf("Detect(%v) = %#v, want nil", phonetics, groups)
		}
	}
}

func TestDetectUnknownWord(t *testing.T) {
	if groups := Detect("cat", []Phonetic{{Text: "/kæt/", PartOfSpeech: "noun"}}); groups != nil {
		t.Fatalf("expected nil, got %#v", groups)
	}
	if groups := Detect("cat", nil); groups != nil {
		t.Fatalf("expected nil, got %#v", groups)
	}
}

func TestDetectMissingPartOfSpeech(t *testing.T) {
	groups := Detect("live", []Phonetic{
		{Text: "/lɪv/"},
		{Text: "/laɪv/", PartOfSpeech: "adjective"},
	})
	if len(groups) != 2 || groups[0].PartOfSpeech != "unknown" {
		t.Fatalf("unexpected groups: %#v", groups)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" /ˈRɛk(ə)rd/ "); got != "rɛkərd" {
		t.Fatalf("Normalize = %q", got)
	}
}
