package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultMinNotional is the smallest order amount accepted, in KRW.
const DefaultMinNotional = 5000

// Side is the direction of a user order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Wire returns the exchange side name: "bid" for buys, "ask" for sells.
func (s Side) Wire() string {
	if s == SideSell {
		return "ask"
	}
	return "bid"
}

// Valid reports whether s is buy or sell.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Local validation failures, checked before any network call.
var (
	ErrNotAuthenticated = errors.New("login required")
	ErrMissingInput     = errors.New("price and amount are both required")
	ErrInvalidInput     = errors.New("valid price and amount required")
	ErrInvalidSide      = errors.New("order side must be buy or sell")
	ErrBelowMinimum     = errors.New("order amount below minimum")
)

// BelowMinimumError is returned when the order amount is under the minimum notional.
type BelowMinimumError struct {
	Amount      float64
	MinNotional float64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum order amount is %s KRW", humanize.Comma(int64(e.MinNotional)))
}

// Is makes errors.Is(err, ErrBelowMinimum) match.
func (e *BelowMinimumError) Is(target error) bool {
	return target == ErrBelowMinimum
}

// RejectionError carries a server-side rejection message verbatim.
type RejectionError struct {
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// OrderForm is the raw user input for a limit order.
type OrderForm struct {
	Market string
	Side   Side
	Price  string // limit price in KRW
	Amount string // notional in KRW
}

// OrderRequest is a validated limit order. Never persisted.
type OrderRequest struct {
	Market   string
	Side     Side
	Price    float64
	Amount   float64
	Quantity float64 // Amount / Price
}

// OrderReceipt is the outcome of a submitted order.
type OrderReceipt struct {
	LocalID     string // UUID for local tracking
	ExchangeID  string // exchange order uuid, if acknowledged
	Request     OrderRequest
	State       string
	SubmittedAt time.Time
}

// ValidateOrder applies the order checks in order and stops at the first failure:
//  1. the user must be authenticated;
//  2. price and amount must be present and parse as finite numbers;
//  3. price > 0, amount > 0 and the price still > 0 once rounded to whole KRW;
//  4. amount >= minNotional.
func ValidateOrder(form OrderForm, authenticated bool, minNotional float64) (OrderRequest, error) {
	if !authenticated {
		return OrderRequest{}, ErrNotAuthenticated
	}
	if !form.Side.Valid() {
		return OrderRequest{}, ErrInvalidSide
	}

	priceStr := strings.TrimSpace(form.Price)
	amountStr := strings.TrimSpace(form.Amount)
	if priceStr == "" || amountStr == "" {
		return OrderRequest{}, ErrMissingInput
	}

	price, okPrice := parseFinite(priceStr)
	amount, okAmount := parseFinite(amountStr)
	if !okPrice || !okAmount {
		return OrderRequest{}, ErrInvalidInput
	}
	// the wire price has no decimals: 0.4 would be sent as "0"
	if price <= 0 || amount <= 0 || math.Round(price) <= 0 {
		return OrderRequest{}, ErrInvalidInput
	}
	if amount < minNotional {
		return OrderRequest{}, &BelowMinimumError{Amount: amount, MinNotional: minNotional}
	}

	return OrderRequest{
		Market:   form.Market,
		Side:     form.Side,
		Price:    price,
		Amount:   amount,
		Quantity: amount / price,
	}, nil
}

// Reason returns the human-readable failure reason for an order error.
// Server rejections are surfaced verbatim; unknown errors get a generic message.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var rej *RejectionError
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	var below *BelowMinimumError
	if errors.As(err, &below) {
		return below.Error()
	}
	for _, known := range []error{ErrNotAuthenticated, ErrMissingInput, ErrInvalidInput, ErrInvalidSide} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "order execution failed"
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// OrderStatus is the local outcome of an order attempt.
type OrderStatus string

const (
	OrderSubmitted OrderStatus = "SUBMITTED"
	OrderRejected  OrderStatus = "REJECTED" // server refused it (4xx)
	OrderFailed    OrderStatus = "FAILED"   // transport or unexpected error
)

// OrderJournalEntry is the persisted trace of an order attempt.
type OrderJournalEntry struct {
	LocalID    string
	ExchangeID string
	Market     string
	Side       Side
	Price      float64
	Quantity   float64
	Amount     float64
	Status     OrderStatus
	Reason     string
	At         time.Time
}
