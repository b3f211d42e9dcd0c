package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	audioExt      = ".mp3"
	compressedExt = ".mp3.zst"
	tempPattern   = ".tmp-*"
	// temp files older than this are leftovers from a crashed write
	staleTempAge = time.Hour
)

// FilesystemTier stores one file per key in a flat directory. It is the
// durable source of truth on the server.
type FilesystemTier struct {
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewFilesystemTier creates dir if needed. compressionLevel > 0 writes new
// files zstd-compressed at that level; existing files of either form stay readable.
func NewFilesystemTier(dir string, compressionLevel int) (*FilesystemTier, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	t := &FilesystemTier{dir: dir, decoder: decoder}
	if compressionLevel > 0 {
		t.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			decoder.Close()
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
	}
	return t, nil
}

// Dir returns the cache directory.
func (t *FilesystemTier) Dir() string { return t.dir }

// Compressed reports whether new files are compressed.
func (t *FilesystemTier) Compressed() bool { return t.encoder != nil }

func (t *FilesystemTier) path(key Key, ext string) string {
	return filepath.Join(t.dir, "v"+strconv.Itoa(key.Version)+"-"+key.Digest+ext)
}

func (t *FilesystemTier) exts() []string {
	if t.Compressed() {
		return []string{compressedExt, audioExt}
	}
	return []string{audioExt, compressedExt}
}

// Read returns the clip and its modification time. A missing entry returns
// an error matching fs.ErrNotExist.
func (t *FilesystemTier) Read(key Key) ([]byte, time.Time, error) {
	for _, ext := range t.exts() {
		p := t.path(key, ext)
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("stat cache file: %w", err)
		}
		if info.IsDir() {
			continue
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("read cache file: %w", err)
		}
		if ext == compressedExt {
			data, err = t.decoder.DecodeAll(data, nil)
			if err != nil {
				return nil, time.Time{}, fmt.Errorf("decompress cache file: %w", err)
			}
		}
		return data, info.ModTime(), nil
	}
	return nil, time.Time{}, fmt.Errorf("cache file for %s: %w", key, fs.ErrNotExist)
}

// Write stores audio atomically and stamps the file with storedAt.
func (t *FilesystemTier) Write(key Key, audio []byte, storedAt time.Time) error {
	ext := audioExt
	data := audio
	if t.Compressed() {
		ext = compressedExt
		data = t.encoder.EncodeAll(audio, nil)
	}

	tmp, err := os.CreateTemp(t.dir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Chtimes(tmpName, storedAt, storedAt); err != nil {
		return fmt.Errorf("stamp cache file: %w", err)
	}
	if err := os.Rename(tmpName, t.path(key, ext)); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}

	// drop a copy left in the other encoding
	for _, other := range t.exts() {
		if other != ext {
			_ = os.Remove(t.path(key, other))
		}
	}
	return nil
}

// Remove deletes every encoding of key. Missing files are not an error.
func (t *FilesystemTier) Remove(key Key) error {
	var errs []error
	for _, ext := range t.exts() {
		if err := os.Remove(t.path(key, ext)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Prune removes files older than cutoff, files written under a version
// other than version, and abandoned temp files.
func (t *FilesystemTier) Prune(ctx context.Context, version int, cutoff time.Time) (PruneResult, error) {
	var res PruneResult

	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return res, fmt.Errorf("list cache directory: %w", err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed concurrently
			continue
		}
		name := e.Name()
		full := filepath.Join(t.dir, name)

		if strings.HasPrefix(name, ".tmp-") {
			if time.Since(info.ModTime()) > staleTempAge {
				_ = os.Remove(full)
			}
			continue
		}

		v, ok := fileVersion(name)
		if !ok {
			continue
		}
		switch {
		case v != version:
			if os.Remove(full) == nil {
				res.Stale++
			}
		case !cutoff.IsZero() && info.ModTime().Before(cutoff):
			if os.Remove(full) == nil {
				res.Expired++
			}
		}
	}
	return res, nil
}

// Usage counts cache files and their size on disk.
func (t *FilesystemTier) Usage() (files int, bytes int64, err error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("list cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := fileVersion(e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files++
		bytes += info.Size()
	}
	return files, bytes, nil
}

// Close releases the zstd coders.
func (t *FilesystemTier) Close() error {
	t.decoder.Close()
	if t.encoder != nil {
		return t.encoder.Close()
	}
	return nil
}

// fileVersion parses v<version>-<digest>.mp3[.zst].
func fileVersion(name string) (int, bool) {
	base, ok := strings.CutSuffix(name, compressedExt)
	if !ok {
		base, ok = strings.CutSuffix(name, audioExt)
	}
	if !ok || !strings.HasPrefix(base, "v") {
		return 0, false
	}
	v, _, found := strings.Cut(base[1:], "-")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
