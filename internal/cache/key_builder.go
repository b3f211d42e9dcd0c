package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"pronounce-gateway/internal/ipa"
)

// Key identifies one synthesized clip. Requests that normalize to the same
// fields share a Key; Version separates markup generations.
type Key struct {
	Version int
	Word    string
	IPA     string
	Phoneme string
	Digest  string
}

// DeriveKey normalizes the request fields and hashes them together with the
// markup version. The word is lowercased, delimiters around the IPA are
// dropped (the markup drops them too) and every field is trimmed.
func DeriveKey(word, transcription, phoneme string, version int) Key {
	k := Key{
		Version: version,
		Word:    strings.ToLower(strings.TrimSpace(word)),
		IPA:     ipa.Clean(transcription),
		Phoneme: strings.TrimSpace(phoneme),
	}

	// fields are length-prefixed so a ':' inside one cannot shift another
	parts := []string{"v" + strconv.Itoa(version), field(k.Word), field(k.IPA)}
	if k.Phoneme != "" {
		parts = append(parts, "phoneme:"+field(k.Phoneme))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	k.Digest = hex.EncodeToString(sum[:])
	return k
}

func field(s string) string {
	return strconv.Itoa(len(s)) + ":" + s
}

// String is the form shared by the suppression set and the client store:
// v<version>:<digest>.
func (k Key) String() string {
	return fmt.Sprintf("v%d:%s", k.Version, k.Digest)
}

// VersionPrefix is the String prefix of every key derived with version.
func VersionPrefix(version int) string {
	return "v" + strconv.Itoa(version) + ":"
}

// ParseKey splits a String form back into version and digest.
func ParseKey(s string) (version int, digest string, ok bool) {
	v, d, found := strings.Cut(s, ":")
	if !found || !strings.HasPrefix(v, "v") || d == "" {
		return 0, "", false
	}
	n, err := strconv.Atoi(v[1:])
	if err != nil {
		return 0, "", false
	}
	return n, d, true
}
