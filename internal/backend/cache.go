package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"billbook/internal/cache"
	"billbook/internal/core"
)

const (
	reportCacheSize   = 1000
	reportCachePrefix = "billbook:"
	cleanupInterval   = time.Minute
)

// NewReportCache builds the profit/loss report cache selected by
// config.CacheBackend. A zero TTL disables caching and returns a nil cache.
func NewReportCache(ctx context.Context, config Config, logger *slog.Logger) (cache.Cache[core.ProfitLoss], CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ReportCacheTTL <= 0 {
		logger.InfoContext(ctx, "Report cache disabled")
		return nil, func() error { return nil }, nil
	}

	switch config.CacheBackend {
	case RedisCache:
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", config.RedisAddr, err)
		}
		logger.InfoContext(ctx, "Initialized redis report cache",
			"addr", config.RedisAddr,
			"ttl", config.ReportCacheTTL)
		c := cache.NewRedisCache[core.ProfitLoss](client, reportCachePrefix, config.ReportCacheTTL, logger)
		return c, client.Close, nil

	case MemoryCache, "":
		lru := cache.NewLRUCache[core.ProfitLoss](reportCacheSize, config.ReportCacheTTL)
		manager := cache.NewManager(logger)
		manager.Register(lru)
		manager.StartCleanup(cleanupInterval)
		logger.InfoContext(ctx, "Initialized in-process report cache",
			"size", reportCacheSize,
			"ttl", config.ReportCacheTTL)
		return lru, func() error {
			manager.Stop()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported cache backend: %s", config.CacheBackend)
	}
}
