package ttsclient

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.db")
	s, err := OpenStore(path, ttl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStorePutGetDelete(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	if _, ok, err := s.Get("v3:abc"); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := s.Put("v3:abc", []byte("mp3")); err != nil {
		t.Fatal(err)
	}
	audio, ok, err := s.Get("v3:abc")
	if err != nil || !ok || string(audio) != "mp3" {
		t.Fatalf("Get = %q, %v, %v", audio, ok, err)
	}
	if err := s.Delete("v3:abc"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("v3:abc"); err != nil {
		t.Fatalf("deleting a missing key: %v", err)
	}
	if _, ok, _ := s.Get("v3:abc"); ok {
		t.Fatal("expected miss after delete")
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Hits != 1 || st.Misses != 2 {
		t.Errorf("hits=%d misses=%d, want 1 and 2", st.Hits, st.Misses)
	}
}

func TestStoreExpiry(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	if err := s.Put("v3:old", []byte("a")); err != nil {
		t.Fatal(err)
	}
	now = now.Add(30 * time.Minute)
	if err := s.Put("v3:new", []byte("b")); err != nil {
		t.Fatal(err)
	}
	now = now.Add(45 * time.Minute)

	n, err := s.Prune()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("Prune removed %d, want 1", n)
	}
	if _, ok, _ := s.Get("v3:new"); !ok {
		t.Fatal("fresh entry should survive prune")
	}

	now = now.Add(time.Hour)
	if _, ok, _ := s.Get("v3:new"); ok {
		t.Fatal("expired entry should be a miss")
	}
	st, _ := s.Stats()
	if st.Entries != 0 {
		t.Errorf("expired entry not deleted on read, entries=%d", st.Entries)
	}
}

func TestStorePurgeStaleVersions(t *testing.T) {
	s, _ := newTestStore(t, 0)
	for _, k := range []string{"v1:a", "v2:b", "v3:c", "v3:d", "v30:e"} {
		if err := s.Put(k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.PurgeStaleVersions("v3:")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("purged %d, want 3", n)
	}
	for _, k := range []string{"v3:c", "v3:d"} {
		if _, ok, _ := s.Get(k); !ok {
			t.Errorf("%s should be kept", k)
		}
	}
}

func TestStoreSchemaMismatchWipes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	// an older layout: different key column, no version stamp
	if _, err := db.Exec(`CREATE TABLE audio_entries (id TEXT PRIMARY KEY, audio BLOB NOT NULL, stored_at INTEGER NOT NULL)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO audio_entries VALUES ('hello:hɛˈloʊ', x'00', 1)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := OpenStore(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Entries != 0 {
		t.Fatalf("entries=%d after upgrade, want 0", st.Entries)
	}
	if err := s.Put("v3:a", []byte("x")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// reopening at the same schema keeps data
	s, err = OpenStore(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok, _ := s.Get("v3:a"); !ok {
		t.Fatal("entry lost on reopen at current schema")
	}
}

func TestStoreClear(t *testing.T) {
	s, _ := newTestStore(t, 0)
	_ = s.Put("v3:a", []byte("12345"))
	_ = s.Put("v3:b", []byte("678"))

	st, _ := s.Stats()
	if st.Entries != 2 || st.Bytes != 8 {
		t.Fatalf("stats = %+v", st)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	st, _ = s.Stats()
	if st.Entries != 0 || !st.Oldest.IsZero() {
		t.Fatalf("after clear: %+v", st)
	}
}
