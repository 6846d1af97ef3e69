package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_Basic(t *testing.T) {
	p := &Position{Balance: 0.01, AvgBuyPrice: 50_000_000, CashBalance: 100_000.7}
	v := Evaluate(p, 55_000_000)

	assert.Equal(t, 650_000.0, v.TotalAssets) // 100.000,7 + 550.000 → floor
	assert.Equal(t, 500_000.0, v.TotalInvestment)
	assert.Equal(t, 50_000.0, v.TotalProfit)
	assert.Equal(t, 10.0, v.ProfitRate)
}

func TestEvaluate_Loss(t *testing.T) {
	p := &Position{Balance: 0.003, AvgBuyPrice: 90_000_000}
	v := Evaluate(p, 87_654_321)

	// 0.003 × 87.654.321 = 262.962,963 ; invested 270.000 → profit −7.037,037
	assert.Equal(t, 262_962.0, v.TotalAssets)
	assert.Equal(t, -7_038.0, v.TotalProfit)
	assert.Equal(t, -2.61, v.ProfitRate)
}

func TestEvaluate_NilPosition(t *testing.T) {
	assert.Equal(t, Valuation{}, Evaluate(nil, 55_000_000))
}

func TestEvaluate_ZeroInvestmentRateIsZero(t *testing.T) {
	cases := []*Position{
		{Balance: 0, AvgBuyPrice: 50_000_000, CashBalance: 10_000},
		{Balance: 0.5, AvgBuyPrice: 0},
		{},
	}
	for _, p := range cases {
		v := Evaluate(p, 55_000_000)
		assert.Equal(t, 0.0, v.ProfitRate)
		assert.False(t, math.IsNaN(v.ProfitRate))
	}
}

func TestEvaluate_CashOnlyCountsInAssets(t *testing.T) {
	v := Evaluate(&Position{CashBalance: 12_345}, 60_000_000)
	assert.Equal(t, 12_345.0, v.TotalAssets)
	assert.Equal(t, 0.0, v.TotalInvestment)
	assert.Equal(t, 0.0, v.TotalProfit)
}

func TestAllocate(t *testing.T) {
	a := Allocate(&Position{Balance: 0.01, CashBalance: 450_000}, 55_000_000)
	assert.InDelta(t, 550_000, a.AssetValue, 1e-6)
	assert.Equal(t, 55.0, a.AssetPercent)
	assert.Equal(t, 45.0, a.CashPercent)
}

func TestAllocate_ZeroTotal(t *testing.T) {
	a := Allocate(&Position{}, 55_000_000)
	assert.Equal(t, 0.0, a.AssetPercent)
	assert.Equal(t, 0.0, a.CashPercent)
	assert.Equal(t, Allocation{}, Allocate(nil, 1))
}
