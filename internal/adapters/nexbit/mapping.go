package nexbit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/nexbit/internal/domain"
)

// timeLayouts son los formatos de fecha que emite el backend. Los que no llevan
// offset se interpretan en la zona del Client.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func toCandle(raw candleRaw, loc *time.Location) (domain.Candle, error) {
	t, err := parseTime(raw.Datetime, loc)
	if err != nil {
		return domain.Candle{}, err
	}
	if t.IsZero() {
		return domain.Candle{}, fmt.Errorf("candle %d without datetime", raw.ID)
	}
	return domain.Candle{
		Time:   t,
		Open:   raw.Open,
		High:   raw.High,
		Low:    raw.Low,
		Close:  raw.Close,
		Volume: raw.Volume,
	}, nil
}

// splitMarket separa "KRW-BTC" en moneda de cotización y activo base.
// Acepta minúsculas: "krw-btc" equivale a "KRW-BTC".
func splitMarket(market string) (quote, base string) {
	quote, base, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(market)), "-")
	if !ok {
		return "KRW", quote
	}
	return quote, base
}

// toPosition reduce la lista de saldos a la posición en el activo base del
// mercado. Saldo bloqueado en órdenes abiertas cuenta como parte del saldo.
func toPosition(resp myAssetResponse, market string) (domain.Position, error) {
	quote, base := splitMarket(market)
	p := domain.Position{
		Market:       market,
		Currency:     base,
		CurrentPrice: float64(resp.BTCCurrentPrice),
	}
	for _, a := range resp.Assets {
		balance, err := parseAmount(a.Balance)
		if err != nil {
			return domain.Position{}, fmt.Errorf("asset %s balance: %w", a.Currency, err)
		}
		locked, err := parseAmount(a.Locked)
		if err != nil {
			return domain.Position{}, fmt.Errorf("asset %s locked: %w", a.Currency, err)
		}
		switch strings.ToUpper(a.Currency) {
		case base:
			avg, err := parseAmount(a.AvgBuyPrice)
			if err != nil {
				return domain.Position{}, fmt.Errorf("asset %s avg_buy_price: %w", a.Currency, err)
			}
			p.Balance = balance + locked
			p.AvgBuyPrice = avg
		case quote:
			p.CashBalance = balance + locked
		}
	}
	return p, nil
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func toTradeLog(raw tradeLogRaw, loc *time.Location) (domain.TradeLog, error) {
	created, err := parseTime(raw.CreatedAt, loc)
	if err != nil {
		return domain.TradeLog{}, fmt.Errorf("trade %s created_at: %w", raw.UUID, err)
	}
	executed, err := parseTime(raw.ExecutedAt, loc)
	if err != nil {
		return domain.TradeLog{}, fmt.Errorf("trade %s executed_at: %w", raw.UUID, err)
	}
	return domain.TradeLog{
		UUID:           raw.UUID,
		Market:         raw.Market,
		Side:           raw.Side,
		OrdType:        raw.OrdType,
		State:          raw.State,
		Price:          float64(raw.Price),
		Volume:         float64(raw.Volume),
		ExecutedVolume: float64(raw.ExecutedVolume),
		Funds:          float64(raw.Price) * float64(raw.Volume),
		PaidFee:        float64(raw.PaidFee),
		CreatedAt:      created,
		ExecutedAt:     executed,
	}, nil
}

// parseStatus interpreta el campo status de /user/ai/status.
func parseStatus(raw json.RawMessage) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n != 0, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "active", "running", "on", "1", "start", "started":
			return true, nil
		case "false", "inactive", "stopped", "off", "0", "stop", "":
			return false, nil
		}
	}
	return false, fmt.Errorf("unrecognized ai status %s", string(raw))
}
