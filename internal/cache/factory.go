package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Dir              string
	TTL              time.Duration
	MemoryEntries    int
	CompressionLevel int
	Version          int
	MarksBackend     string // "memory" or "redis"
	Prefix           string
}

// NewMarks picks the suppression-set backend.
func NewMarks(cfg Config, redisClient *redis.Client) Marks {
	switch cfg.MarksBackend {
	case "redis":
		return NewRedisMarks(redisClient, RedisConfig{Prefix: cfg.Prefix})
	default:
		return NewMemoryMarks()
	}
}

// NewAudioCache builds the memory and filesystem tiers around marks.
func NewAudioCache(cfg Config, marks Marks) (*TieredCache, error) {
	files, err := NewFilesystemTier(cfg.Dir, cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}
	return NewTieredCache(NewMemoryTier(cfg.MemoryEntries), files, marks, cfg.TTL, cfg.Version), nil
}
