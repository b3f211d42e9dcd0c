package ttsclient

import (
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the layout of the local store. Opening a store written
// under a different layout wipes it; older key formats cannot be told apart
// from current ones.
const SchemaVersion = 2

const createAudioTable = `
CREATE TABLE IF NOT EXISTS audio_entries (
	key TEXT PRIMARY KEY,
	audio BLOB NOT NULL,
	stored_at INTEGER NOT NULL
);
`

// Store is the local persistent audio cache, keyed by cache.Key.String().
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

// StoreStats describes the local store.
type StoreStats struct {
	Entries int64
	Bytes   int64
	Oldest  time.Time
	Hits    int64
	Misses  int64
}

// OpenStore opens (or creates) the SQLite store at path. A ttl of zero
// disables expiry.
func OpenStore(path string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One writer keeps modernc from returning SQLITE_BUSY under concurrent Put.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version != SchemaVersion {
		if _, err := db.Exec(`DROP TABLE IF EXISTS audio_entries`); err != nil {
			return err
		}
	}
	if _, err := db.Exec(createAudioTable); err != nil {
		return err
	}
	if version != SchemaVersion {
		// PRAGMA does not take bound parameters.
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
			return err
		}
	}
	return nil
}

// SetClock replaces the time source. Tests only.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Get returns the stored audio for key. Expired entries are deleted and
// reported as a miss.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var audio []byte
	var storedAt int64
	err := s.db.QueryRow(
		`SELECT audio, stored_at FROM audio_entries WHERE key = ?`, key,
	).Scan(&audio, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		s.misses.Add(1)
		return nil, false, fmt.Errorf("store get: %w", err)
	}

	if s.expired(storedAt) {
		s.misses.Add(1)
		if err := s.Delete(key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	s.hits.Add(1)
	return audio, true, nil
}

// Put stores audio under key, replacing any previous entry.
func (s *Store) Put(key string, audio []byte) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO audio_entries (key, audio, stored_at) VALUES (?, ?, ?)`,
		key, audio, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store put: %w", err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM audio_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store delete: %w", err)
	}
	return nil
}

// Prune removes expired entries and returns how many were removed.
func (s *Store) Prune() (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UnixMilli()
	res, err := s.db.Exec(`DELETE FROM audio_entries WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store prune: %w", err)
	}
	return res.RowsAffected()
}

// PurgeStaleVersions removes entries whose key does not start with prefix,
// the key prefix of the current markup version.
func (s *Store) PurgeStaleVersions(prefix string) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM audio_entries WHERE substr(key, 1, ?) <> ?`, len(prefix), prefix,
	)
	if err != nil {
		return 0, fmt.Errorf("store purge: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every entry.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM audio_entries`); err != nil {
		return fmt.Errorf("store clear: %w", err)
	}
	return nil
}

// Stats returns entry counts and lookup counters for this process.
func (s *Store) Stats() (StoreStats, error) {
	var count, size int64
	var oldest sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(length(audio)), 0), MIN(stored_at) FROM audio_entries`,
	).Scan(&count, &size, &oldest)
	if err != nil {
		return StoreStats{}, fmt.Errorf("store stats: %w", err)
	}
	st := StoreStats{
		Entries: count,
		Bytes:   size,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
	if oldest.Valid {
		st.Oldest = time.UnixMilli(oldest.Int64)
	}
	return st, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) expired(storedAt int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(time.UnixMilli(storedAt)) > s.ttl
}
