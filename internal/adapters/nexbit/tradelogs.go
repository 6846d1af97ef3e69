package nexbit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

const dateLayout = "2006-01-02"

// FetchTradeLogs obtiene el historial de GET /user/mytradelogs.
func (c *Client) FetchTradeLogs(ctx context.Context, token string, q domain.TradeLogQuery) ([]domain.TradeLog, error) {
	if token == "" {
		return nil, fmt.Errorf("nexbit.FetchTradeLogs: %w", domain.ErrNotAuthenticated)
	}

	var resp tradeLogsResponse
	if err := c.get(ctx, c.userLimiter, "/user/mytradelogs", tradeLogParams(q), token, &resp); err != nil {
		return nil, fmt.Errorf("nexbit.FetchTradeLogs: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("nexbit.FetchTradeLogs: unexpected response: %s", resp.Message)
	}

	logs := make([]domain.TradeLog, 0, len(resp.Data))
	for _, raw := range resp.Data {
		l, err := toTradeLog(raw, c.loc)
		if err != nil {
			return nil, fmt.Errorf("nexbit.FetchTradeLogs: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func tradeLogParams(q domain.TradeLogQuery) url.Values {
	v := url.Values{}
	if q.Side != "" {
		v.Set("side", q.Side)
	}
	if q.State != "" {
		v.Set("state", q.State)
	}
	if !q.Start.IsZero() {
		v.Set("start_date", q.Start.Format(dateLayout))
	}
	if !q.End.IsZero() {
		v.Set("end_date", q.End.Format(dateLayout))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.OrderBy != "" {
		v.Set("order_by", q.OrderBy)
	}
	return v
}
