package nexbit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// FetchCandles obtiene velas de GET /api/exchangePrice en el orden del wire.
// Implementa ports.QuoteProvider.
func (c *Client) FetchCandles(ctx context.Context, market string, interval domain.Interval, count int) ([]domain.Candle, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("nexbit.FetchCandles: invalid interval %q", interval)
	}
	if count <= 0 {
		count = interval.DefaultCount()
	}
	q := url.Values{}
	q.Set("interval", string(interval))
	q.Set("count", strconv.Itoa(count))
	q.Set("market", market)

	var raw []candleRaw
	if err := c.get(ctx, c.publicLimiter, "/api/exchangePrice", q, "", &raw); err != nil {
		return nil, fmt.Errorf("nexbit.FetchCandles: %w", err)
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, r := range raw {
		candle, err := toCandle(r, c.loc)
		if err != nil {
			return nil, fmt.Errorf("nexbit.FetchCandles: %w", err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}
