package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"pronounce-gateway/pkg/logging"
)

// TieredCache checks the suppression set, then memory, then the filesystem.
// Memory is refilled from filesystem hits.
type TieredCache struct {
	memory  *MemoryTier
	files   *FilesystemTier
	marks   Marks
	ttl     time.Duration
	version int
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewTieredCache wires the tiers. ttl <= 0 keeps entries forever.
func NewTieredCache(memory *MemoryTier, files *FilesystemTier, marks Marks, ttl time.Duration, version int) *TieredCache {
	return &TieredCache{
		memory:  memory,
		files:   files,
		marks:   marks,
		ttl:     ttl,
		version: version,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *TieredCache) SetClock(now func() time.Time) {
	c.now = now
}

func (c *TieredCache) expired(storedAt time.Time) bool {
	return c.ttl > 0 && c.now().Sub(storedAt) > c.ttl
}

func (c *TieredCache) Get(ctx context.Context, key Key) (Hit, bool) {
	logger := logging.L(ctx)
	id := key.String()

	marked, err := c.marks.IsMarked(ctx, id)
	if err != nil {
		logger.Warn("report_marks_check_failed", zap.String("cache_key", id), zap.Error(err))
		marked = true
	}
	if marked {
		c.misses.Add(1)
		return Hit{}, false
	}

	if audio, storedAt, ok := c.memory.Get(id); ok {
		if !c.expired(storedAt) {
			c.hits.Add(1)
			return Hit{Audio: audio, Tier: TierMemory, StoredAt: storedAt}, true
		}
		c.memory.Delete(id)
	}

	audio, storedAt, err := c.files.Read(key)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("filesystem_tier_read_failed", zap.String("cache_key", id), zap.Error(err))
		}
		c.misses.Add(1)
		return Hit{}, false
	}
	if c.expired(storedAt) {
		if err := c.files.Remove(key); err != nil {
			logger.Warn("filesystem_tier_expire_failed", zap.String("cache_key", id), zap.Error(err))
		}
		c.misses.Add(1)
		return Hit{}, false
	}

	c.memory.Put(id, audio, storedAt)
	c.hits.Add(1)
	return Hit{Audio: audio, Tier: TierFilesystem, StoredAt: storedAt}, true
}

// Set writes the file, clears the suppression mark, then refreshes memory.
// A failed write leaves any mark in place, so a reported file still on disk
// stays unreachable.
func (c *TieredCache) Set(ctx context.Context, key Key, audio []byte) error {
	id := key.String()
	storedAt := c.now()
	if err := c.files.Write(key, audio, storedAt); err != nil {
		return err
	}
	if err := c.marks.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear report mark: %w", err)
	}
	c.memory.Put(id, audio, storedAt)
	return nil
}

func (c *TieredCache) Report(ctx context.Context, key Key) error {
	id := key.String()
	if err := c.marks.Mark(ctx, id); err != nil {
		return fmt.Errorf("mark reported: %w", err)
	}
	c.memory.Delete(id)
	return nil
}

func (c *TieredCache) Delete(_ context.Context, key Key) error {
	c.memory.Delete(key.String())
	return c.files.Remove(key)
}

// Prune drops expired and stale-version entries from memory and disk.
func (c *TieredCache) Prune(ctx context.Context) (PruneResult, error) {
	var cutoff time.Time
	if c.ttl > 0 {
		cutoff = c.now().Add(-c.ttl)
	}
	res, err := c.files.Prune(ctx, c.version, cutoff)
	if !cutoff.IsZero() {
		res.Memory = c.memory.PurgeStoredBefore(cutoff)
	}
	return res, err
}

// ClearMemory empties the memory tier only.
func (c *TieredCache) ClearMemory() int {
	n := c.memory.Len()
	c.memory.Clear()
	return n
}

func (c *TieredCache) Stats(ctx context.Context) (Stats, error) {
	reported, err := c.marks.Len(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count report marks: %w", err)
	}
	files, bytes, err := c.files.Usage()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		MemoryEntries:   c.memory.Len(),
		MemoryCapacity:  c.memory.Capacity(),
		ReportedCount:   reported,
		FileCount:       files,
		FileBytes:       bytes,
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		Version:         c.version,
		Directory:       c.files.Dir(),
		TTLSeconds:      int64(c.ttl.Seconds()),
		CompressedFiles: c.files.Compressed(),
	}, nil
}

// Close releases the filesystem tier.
func (c *TieredCache) Close() error {
	return c.files.Close()
}
