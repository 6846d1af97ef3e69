package notify

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// PortfolioReportInput agrupa los datos del informe de cartera.
type PortfolioReportInput struct {
	Position   domain.Position
	Price      float64
	Valuation  domain.Valuation
	Allocation domain.Allocation
	AIActive   *bool                      // nil si no se pudo consultar
	Prediction *domain.PredictionSnapshot // opcional
	Now        time.Time                  // para marcar la predicción vencida
}

// PrintPortfolio imprime la valoración y el reparto de la cartera.
func (c *Console) PrintPortfolio(in PortfolioReportInput) {
	p := in.Position
	v := in.Valuation

	fmt.Fprintf(c.out, "\n── PORTFOLIO %s ──\n", p.Market)
	fmt.Fprintf(c.out, "  Price:        %s KRW\n", krw(in.Price))
	fmt.Fprintf(c.out, "  Holding:      %.8f %s (avg %s KRW)\n", p.Balance, p.Currency, krw(p.AvgBuyPrice))
	fmt.Fprintf(c.out, "  Cash:         %s KRW\n", krw(p.CashBalance))
	fmt.Fprintf(c.out, "  Total assets: %s KRW\n", krw(v.TotalAssets))
	fmt.Fprintf(c.out, "  Investment:   %s KRW\n", krw(v.TotalInvestment))
	fmt.Fprintf(c.out, "  Profit:       %s KRW (%s)\n", krw(v.TotalProfit), signedRate(v.ProfitRate))
	fmt.Fprintf(c.out, "  Allocation:   %s %.1f%% | KRW %.1f%%\n",
		p.Currency, in.Allocation.AssetPercent, in.Allocation.CashPercent)
	if in.AIActive != nil {
		state := "inactive"
		if *in.AIActive {
			state = "active"
		}
		fmt.Fprintf(c.out, "  AI trading:   %s\n", state)
	}
	if pr := in.Prediction; pr != nil {
		stale := ""
		if pr.Stale(in.Now) {
			stale = " (stale)"
		}
		fmt.Fprintf(c.out, "  Prediction:   %s KRW %s (%s vs price) until %s%s\n",
			krw(pr.PredictedPrice),
			directionLabel(pr.Direction()),
			signedRate(pr.ExpectedChange(in.Price)),
			pr.ValidUntil.Format("15:04"),
			stale,
		)
	}
}

// PrintProfitHistory imprime el resumen y la tabla de P&L en el orden del informe
// (la fila más reciente primero).
func (c *Console) PrintProfitHistory(report domain.ProfitReport) {
	summary := report.Summary
	if len(report.Records) == 0 {
		fmt.Fprintln(c.out, "no profit history")
		return
	}

	fmt.Fprintf(c.out, "\n── PROFIT %s → %s ──\n", summary.From.Format("2006-01-02"), summary.To.Format("2006-01-02"))
	fmt.Fprintf(c.out, "  Invested:   %s KRW\n", krw(summary.InvestedCapital))
	fmt.Fprintf(c.out, "  Cumulative: %s KRW (%s)\n", krw(summary.CumulativeProfit), signedRate(summary.CumulativeProfitRate))
	fmt.Fprintf(c.out, "  Best day:   %s %s KRW\n", summary.BestDay.Date.Format("01-02"), krw(summary.BestDay.DailyProfit))
	fmt.Fprintf(c.out, "  Worst day:  %s %s KRW\n\n", summary.WorstDay.Date.Format("01-02"), krw(summary.WorstDay.DailyProfit))

	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Opening", "Closing", "Daily", "Daily %", "Cumulative", "Cum %")
	for _, r := range report.Records {
		table.Append(
			r.Date.Format("2006-01-02"),
			krw(r.OpeningBalance),
			krw(r.ClosingBalance),
			krw(r.DailyProfit),
			fmt.Sprintf("%.2f%%", r.DailyProfitRate),
			krw(r.CumulativeProfit),
			fmt.Sprintf("%.2f%%", r.CumulativeProfitRate),
		)
	}
	table.Render()
}

// PrintTradeLogs imprime el historial de órdenes del exchange.
func (c *Console) PrintTradeLogs(logs []domain.TradeLog) {
	if len(logs) == 0 {
		fmt.Fprintln(c.out, "no trades in range")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Market", "Side", "State", "Volume", "Price", "Funds", "Fee", "Executed")
	for _, l := range logs {
		table.Append(
			clock(l.Time()),
			l.Market,
			sideLabel(l.Side),
			l.State,
			fmt.Sprintf("%.8f", l.Volume),
			krw(l.Price),
			krw(l.Funds),
			fmt.Sprintf("%.2f", l.PaidFee),
			fmt.Sprintf("%.8f", l.ExecutedVolume),
		)
	}
	table.Render()
}

// PrintOrderResult imprime el resultado de un envío de orden.
func (c *Console) PrintOrderResult(receipt domain.OrderReceipt, err error) {
	if err != nil {
		fmt.Fprintf(c.out, "order failed: %s\n", domain.Reason(err))
		return
	}
	r := receipt.Request
	fmt.Fprintf(c.out, "order submitted: %s %.8f %s @ %s KRW (%s KRW) id=%s",
		r.Side, r.Quantity, r.Market, krw(r.Price), krw(r.Amount), receipt.LocalID)
	if receipt.ExchangeID != "" {
		fmt.Fprintf(c.out, " exchange=%s", receipt.ExchangeID)
	}
	fmt.Fprintln(c.out)
}

// PrintOrderJournal imprime el journal local de intentos de orden.
func (c *Console) PrintOrderJournal(entries []domain.OrderJournalEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "no orders in journal")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Side", "Price", "Amount", "Status", "Reason")
	for _, e := range entries {
		table.Append(
			clock(e.At),
			string(e.Side),
			krw(e.Price),
			krw(e.Amount),
			string(e.Status),
			e.Reason,
		)
	}
	table.Render()
}

// PrintPredictionHistory imprime las predicciones archivadas, más antiguas primero.
func (c *Console) PrintPredictionHistory(history []domain.PredictionSnapshot) {
	if len(history) == 0 {
		fmt.Fprintln(c.out, "no predictions archived")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Valid until", "Predicted", "Up prob", "Direction")
	for _, p := range history {
		table.Append(
			clock(p.ValidUntil),
			krw(p.PredictedPrice),
			fmt.Sprintf("%.1f%%", p.UpProbability*100),
			p.Direction(),
		)
	}
	table.Render()
}

func sideLabel(wire string) string {
	switch wire {
	case "bid":
		return "buy"
	case "ask":
		return "sell"
	default:
		return "?"
	}
}
