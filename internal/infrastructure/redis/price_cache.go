package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
)

// PriceCache keeps recent quotes in Redis for a short staleness window so a
// dashboard refresh does not burn provider quota. Entries expire on their
// own; nothing invalidates them early.
type PriceCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewPriceCache(client *redis.Client, ttl time.Duration) *PriceCache {
	return &PriceCache{Client: client, TTL: ttl}
}

var _ application.PriceCache = (*PriceCache)(nil)

func cacheKey(typ domain.AssetType, symbol string) string {
	return "price:" + string(typ) + ":" + strings.ToUpper(symbol)
}

func (c *PriceCache) Get(ctx context.Context, typ domain.AssetType, symbol string) (domain.AssetPrice, bool, error) {
	raw, err := c.Client.Get(ctx, cacheKey(typ, symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AssetPrice{}, false, nil
	}
	if err != nil {
		return domain.AssetPrice{}, false, err
	}
	var p domain.AssetPrice
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.AssetPrice{}, false, err
	}
	return p, true, nil
}

func (c *PriceCache) Set(ctx context.Context, typ domain.AssetType, symbol string, p domain.AssetPrice) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, cacheKey(typ, symbol), raw, c.TTL).Err()
}
