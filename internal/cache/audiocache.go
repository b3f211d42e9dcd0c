package cache

import (
	"context"
	"fmt"
	"time"
)

type Tier string

const (
	TierMemory     Tier = "memory"
	TierFilesystem Tier = "filesystem"
)

// Hit is a successful lookup.
type Hit struct {
	Audio    []byte
	Tier     Tier
	StoredAt time.Time
}

// AudioCache is the server-side pronunciation cache used by the handlers.
// Get never fails: unreadable entries are misses. Set failures are returned
// so a failed write is never mistaken for a stored clip.
type AudioCache interface {
	Get(ctx context.Context, key Key) (Hit, bool)
	Set(ctx context.Context, key Key, audio []byte) error
	// Report suppresses key until the next Set and drops it from memory.
	Report(ctx context.Context, key Key) error
	// Delete removes key from every tier. Missing entries are not an error.
	Delete(ctx context.Context, key Key) error
}

// Invalidate applies a bad-pronunciation report: the key is suppressed and
// its durable copy removed, so the next Get misses even after a restart.
func Invalidate(ctx context.Context, c AudioCache, key Key) error {
	if err := c.Report(ctx, key); err != nil {
		return fmt.Errorf("report %s: %w", key, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Stats is a point-in-time view of the server cache.
type Stats struct {
	MemoryEntries   int    `json:"memoryEntries"`
	MemoryCapacity  int    `json:"memoryCapacity"`
	ReportedCount   int    `json:"reportedCount"`
	FileCount       int    `json:"fileCount"`
	FileBytes       int64  `json:"fileBytes"`
	Hits            int64  `json:"hits"`
	Misses          int64  `json:"misses"`
	Version         int    `json:"version"`
	Directory       string `json:"directory"`
	TTLSeconds      int64  `json:"ttlSeconds"`
	CompressedFiles bool   `json:"compressedFiles"`
}

// PruneResult counts files removed by Prune.
type PruneResult struct {
	Expired int `json:"expired"`
	Stale   int `json:"stale"`
	Memory  int `json:"memory"`
}
