package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider wraps a Provider with a Redis read-through cache. Cache
// failures are swallowed: a broken Redis degrades to upstream calls, never
// to request failures.
type CachedProvider struct {
	Next Provider
	Rdb  *redis.Client
	TTL  time.Duration
}

func quoteKey(symbol string) string {
	return fmt.Sprintf("quote:%s", symbol)
}

func historyKey(symbol string, days int) string {
	return fmt.Sprintf("quote:%s:history:%d", symbol, days)
}

func (p *CachedProvider) GetCurrentPrice(ctx context.Context, symbol string) (*Quote, error) {
	if b, err := p.Rdb.Get(ctx, quoteKey(symbol)).Bytes(); err == nil {
		var q Quote
		if json.Unmarshal(b, &q) == nil {
			return &q, nil
		}
	}

	q, err := p.Next.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(q); err == nil {
		_ = p.Rdb.Set(ctx, quoteKey(symbol), b, p.TTL).Err()
	}
	return q, nil
}

func (p *CachedProvider) GetHistory(ctx context.Context, symbol string, days int) ([]Candle, error) {
	if b, err := p.Rdb.Get(ctx, historyKey(symbol, days)).Bytes(); err == nil {
		var candles []Candle
		if json.Unmarshal(b, &candles) == nil && len(candles) > 0 {
			return candles, nil
		}
	}

	candles, err := p.Next.GetHistory(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(candles); err == nil {
		_ = p.Rdb.Set(ctx, historyKey(symbol, days), b, p.TTL).Err()
	}
	return candles, nil
}

// Search is not cached; result sets are small and query-shaped.
func (p *CachedProvider) Search(ctx context.Context, keywords string) ([]SearchResult, error) {
	return p.Next.Search(ctx, keywords)
}
