package domain

import "math"

// Position es la tenencia de un único activo más el saldo en moneda de cotización.
// Se reemplaza entera en cada fetch del portfolio; nunca se muta campo a campo.
type Position struct {
	Market       string  // "KRW-BTC"
	Currency     string  // activo mantenido, "BTC"
	Balance      float64 // cantidad del activo
	AvgBuyPrice  float64 // precio medio de compra en moneda de cotización
	CashBalance  float64 // saldo en moneda de cotización (KRW)
	CurrentPrice float64 // precio reportado por el portfolio, fallback si no hay quote en vivo
}

// InvestedCapital devuelve el coste base de la posición: balance × avgBuyPrice.
func (p Position) InvestedCapital() float64 {
	return p.Balance * p.AvgBuyPrice
}

// Valuation es el resumen de la cartera al precio actual.
type Valuation struct {
	TotalAssets     float64 // cash + valor del activo, truncado a unidades enteras
	TotalInvestment float64 // coste base, truncado
	TotalProfit     float64 // ganancia no realizada, truncada
	ProfitRate      float64 // % con dos decimales
}

// Evaluate valora la posición al precio dado.
//
//	totalAssets     = cash + balance × price
//	totalInvestment = balance × avgBuyPrice
//	totalProfit     = balance × price − totalInvestment
//	profitRate      = totalProfit / totalInvestment × 100   (0 si totalInvestment = 0)
//
// Una posición nil (sin sesión) devuelve la valoración cero: es un estado normal.
// El cash suma a totalAssets pero no a inversión ni ganancia.
func Evaluate(p *Position, price float64) Valuation {
	if p == nil {
		return Valuation{}
	}

	current := p.Balance * price
	investment := p.InvestedCapital()
	profit := current - investment

	return Valuation{
		TotalAssets:     math.Floor(p.CashBalance + current),
		TotalInvestment: math.Floor(investment),
		TotalProfit:     math.Floor(profit),
		ProfitRate:      percentOf(profit, investment),
	}
}

// Allocation es el reparto de la cartera entre el activo y el cash.
type Allocation struct {
	AssetValue   float64
	CashValue    float64
	AssetPercent float64 // un decimal
	CashPercent  float64 // un decimal
}

// Allocate calcula el peso del activo y del cash sobre el total.
// Con total 0 ambos porcentajes son 0.
func Allocate(p *Position, price float64) Allocation {
	if p == nil {
		return Allocation{}
	}
	asset := p.Balance * price
	total := asset + p.CashBalance
	a := Allocation{AssetValue: asset, CashValue: p.CashBalance}
	if total > 0 {
		a.AssetPercent = math.Round(asset/total*1000) / 10
		a.CashPercent = math.Round(p.CashBalance/total*1000) / 10
	}
	return a
}

// percentOf devuelve part / base × 100 redondeado a 2 decimales, o 0 si base <= 0.
// Nunca devuelve NaN ni Inf.
func percentOf(part, base float64) float64 {
	if base <= 0 {
		return 0
	}
	r := part / base * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return round2(r)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
