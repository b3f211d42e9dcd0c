package cache

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFilesystemTier(t *testing.T, level int) *FilesystemTier {
	t.Helper()
	tier, err := NewFilesystemTier(t.TempDir(), level)
	if err != nil {
		t.Fatalf("NewFilesystemTier failed: %v", err)
	}
	t.Cleanup(func() { tier.Close() })
	return tier
}

func TestFilesystemTier_RoundTrip(t *testing.T) {
	for _, level := range []int{0, 3} {
		tier := newTestFilesystemTier(t, level)
		key := DeriveKey("record", "ˈrɛkərd", "", 3)
		audio := bytes.Repeat([]byte("ID3-fake-mp3"), 64)
		stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		if err := tier.Write(key, audio, stamp); err != nil {
			t.Fatalf("level %d: Write failed: %v", level, err)
		}
		got, storedAt, err := tier.Read(key)
		if err != nil {
			t.Fatalf("level %d: Read failed: %v", level, err)
		}
		if !bytes.Equal(got, audio) {
			t.Fatalf("level %d: audio mismatch", level)
		}
		if !storedAt.Equal(stamp) {
			t.Fatalf("level %d: expected mtime %v, got %v", level, stamp, storedAt)
		}

		files, _, err := tier.Usage()
		if err != nil || files != 1 {
			t.Fatalf("level %d: Usage = %d, %v", level, files, err)
		}
	}
}

func TestFilesystemTier_ReadsOtherEncoding(t *testing.T) {
	dir := t.TempDir()
	plain, err := NewFilesystemTier(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer plain.Close()
	key := DeriveKey("gift", "ɡɪft", "", 3)
	if err := plain.Write(key, []byte("clip"), time.Now()); err != nil {
		t.Fatal(err)
	}

	compressed, err := NewFilesystemTier(dir, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer compressed.Close()

	got, _, err := compressed.Read(key)
	if err != nil || string(got) != "clip" {
		t.Fatalf("expected plain file readable by compressing tier, got %q, %v", got, err)
	}

	// rewriting in the new encoding leaves a single file
	if err := compressed.Write(key, []byte("clip2"), time.Now()); err != nil {
		t.Fatal(err)
	}
	if files, _, _ := compressed.Usage(); files != 1 {
		t.Fatalf("expected one file after re-encode, got %d", files)
	}
}

func TestFilesystemTier_MissingAndRemove(t *testing.T) {
	tier := newTestFilesystemTier(t, 0)
	key := DeriveKey("lead", "liːd", "", 3)

	if _, _, err := tier.Read(key); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if err := tier.Remove(key); err != nil {
		t.Fatalf("Remove of missing key should succeed, got %v", err)
	}

	if err := tier.Write(key, []byte("x"), time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := tier.Remove(key); err != nil {
		t.Fatal(err)
	}
	if _, _, err := tier.Read(key); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist after Remove, got %v", err)
	}
}

func TestFilesystemTier_Prune(t *testing.T) {
	tier := newTestFilesystemTier(t, 0)
	now := time.Now()

	stale := DeriveKey("wind", "wɪnd", "", 2)
	expired := DeriveKey("wind", "waɪnd", "", 3)
	fresh := DeriveKey("tear", "tɪr", "", 3)

	_ = tier.Write(stale, []byte("s"), now)
	_ = tier.Write(expired, []byte("e"), now.Add(-48*time.Hour))
	_ = tier.Write(fresh, []byte("f"), now)

	// unrelated files are left alone
	other := filepath.Join(tier.Dir(), "README")
	if err := os.WriteFile(other, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := tier.Prune(context.Background(), 3, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if res.Stale != 1 || res.Expired != 1 {
		t.Fatalf("expected 1 stale and 1 expired, got %+v", res)
	}
	if _, _, err := tier.Read(fresh); err != nil {
		t.Fatalf("fresh entry should survive: %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}
