package cache

import (
	"strings"
	"testing"
)

func TestDeriveKey_Stable(t *testing.T) {
	a := DeriveKey("Record", "/ˈrɛkərd/", "", 3)
	b := DeriveKey("  record ", "ˈrɛkərd", "", 3)
	if a.String() != b.String() {
		t.Fatalf("expected equal keys, got %s and %s", a, b)
	}
	if !strings.HasPrefix(a.String(), "v3:") {
		t.Fatalf("expected v3 prefix, got %s", a)
	}
	if len(a.Digest) != 64 {
		t.Fatalf("expected sha256 hex digest, got %d chars", len(a.Digest))
	}
}

func TestDeriveKey_Distinct(t *testing.T) {
	noun := DeriveKey("record", "ˈrɛkərd", "", 3)
	verb := DeriveKey("record", "rɪˈkɔːrd", "", 3)
	if noun == verb {
		t.Fatal("noun and verb transcriptions must not share a key")
	}

	p := DeriveKey("permit", "pərˈmɪt", "p", 3)
	s := DeriveKey("permit", "pərˈmɪt", "s", 3)
	whole := DeriveKey("permit", "pərˈmɪt", "", 3)
	if p == s || p == whole {
		t.Fatal("phoneme requests must not share a key with each other or the word")
	}

	if DeriveKey("record", "ˈrɛkərd", "", 2) == noun {
		t.Fatal("version bump must change the key")
	}
}

func TestDeriveKey_SeparatorInFields(t *testing.T) {
	pairs := [][2]Key{
		{DeriveKey("a:b", "c", "", 3), DeriveKey("a", "b:c", "", 3)},
		{DeriveKey("a", "b:phoneme:c", "", 3), DeriveKey("a", "b", "c", 3)},
		{DeriveKey("a", "b", "c:d", 3), DeriveKey("a", "b:phoneme:c", "d", 3)},
	}
	for _, p := range pairs {
		if p[0].Digest == p[1].Digest {
			t.Errorf("keys collide: %+v and %+v", p[0], p[1])
		}
	}
}

func TestParseKey(t *testing.T) {
	k := DeriveKey("gift", "ɡɪft", "", 3)

	v, d, ok := ParseKey(k.String())
	if !ok || v != 3 || d != k.Digest {
		t.Fatalf("ParseKey(%s) = %d, %s, %v", k, v, d, ok)
	}

	for _, bad := range []string{"", "3:abc", "v:abc", "vx:abc", "v3:"} {
		if _, _, ok := ParseKey(bad); ok {
			t.Errorf("ParseKey(%q) should fail", bad)
		}
	}

	if !strings.HasPrefix(k.String(), VersionPrefix(3)) {
		t.Fatalf("expected %s to carry prefix %s", k, VersionPrefix(3))
	}
}
