// Package cacheinval signals that previously served pages referencing
// changed data are stale. Invalidation is fire-and-forget: an order must
// succeed even if downstream caches stay stale for a while.
package cacheinval

import (
	"context"
	"fmt"

	"orderflow/internal/entity"
	"orderflow/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	ProductListingPath    = "/products"
	ProductListingAPIPath = "/api/products"
)

type Notifier struct {
	client    *redis.Client
	keyPrefix string
	log       logger.Logger
}

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

func NewNotifier(cfg Config, log logger.Logger) (*Notifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("cacheinval.NewNotifier: ping: %w", err)
	}

	return &Notifier{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		log:       log,
	}, nil
}

func (n *Notifier) Close() error {
	if err := n.client.Close(); err != nil {
		return fmt.Errorf("cacheinval.Close: %w", err)
	}
	return nil
}

// Invalidate drops the page-cache keys for the given paths. Failures are
// logged and swallowed.
func (n *Notifier) Invalidate(ctx context.Context, paths []string) {
	const op = "cacheinval.Invalidate"

	if len(paths) == 0 {
		return
	}

	keys := make([]string, 0, len(paths))
	for _, path := range paths {
		keys = append(keys, n.keyPrefix+path)
	}

	if err := n.client.Del(ctx, keys...).Err(); err != nil {
		n.log.LogAttrs(ctx, logger.WarnLevel, "cache invalidation failed",
			logger.String("op", op),
			logger.Int("paths", len(paths)),
			logger.Any("error", err),
		)
		return
	}

	n.log.LogAttrs(ctx, logger.DebugLevel, "cache paths invalidated",
		logger.String("op", op),
		logger.Int("paths", len(paths)),
	)
}

// OrderPaths builds the stale-path set for a newly written order: the
// product listing pages plus the detail page of every ordered product.
func OrderPaths(items []*entity.OrderItem) []string {
	paths := []string{ProductListingPath, ProductListingAPIPath}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ProductID]; dup {
			continue
		}
		seen[item.ProductID] = struct{}{}
		paths = append(paths, ProductListingPath+"/"+item.ProductID)
	}
	return paths
}
