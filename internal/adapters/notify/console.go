package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/alejandrodnm/nexbit/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// tableRows es cuántas velas muestra la tabla de quotes.
const tableRows = 6

var (
	upColor   = color.New(color.FgRed)  // convención KRW: rojo sube
	downColor = color.New(color.FgBlue) // azul baja
)

// Console implementa ports.Notifier y los informes del CLI.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyQuotes imprime el precio actual y la variación; en modo tabla, las últimas velas.
func (c *Console) NotifyQuotes(_ context.Context, q domain.QuoteSnapshot) error {
	now := q.FetchedAt.Format("15:04:05")
	if len(q.Candles) == 0 {
		fmt.Fprintf(c.out, "[%s] %s no quotes\n", now, q.Market)
		return nil
	}

	rate := q.ChangeRate(4)
	fmt.Fprintf(c.out, "[%s] %s %s KRW %s\n", now, q.Market, krw(q.CurrentPrice), signedRate(rate))

	if c.table {
		c.printCandles(q)
	}
	return nil
}

// NotifyPrediction imprime la predicción vigente y hasta cuándo vale.
func (c *Console) NotifyPrediction(_ context.Context, p domain.PredictionSnapshot) error {
	fmt.Fprintf(c.out, "[%s] prediction %s KRW %s up=%.1f%% until %s\n",
		p.FetchedAt.Format("15:04:05"),
		krw(p.PredictedPrice),
		directionLabel(p.Direction()),
		p.UpProbability*100,
		p.ValidUntil.Format("15:04"),
	)
	return nil
}

// printCandles imprime las velas más recientes primero.
func (c *Console) printCandles(q domain.QuoteSnapshot) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Open", "High", "Low", "Close", "Volume")

	shown := 0
	for i := len(q.Candles) - 1; i >= 0 && shown < tableRows; i-- {
		k := q.Candles[i]
		table.Append(
			k.Time.Format("01-02 15:04"),
			krw(k.Open),
			krw(k.High),
			krw(k.Low),
			krw(k.Close),
			fmt.Sprintf("%.4f", k.Volume),
		)
		shown++
	}
	table.Render()
}

// krw formatea un importe en won con separadores de miles y sin decimales.
func krw(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return humanize.Comma(int64(math.Round(v)))
}

func signedRate(rate float64) string {
	s := fmt.Sprintf("%+.2f%%", rate)
	switch {
	case rate > 0:
		return upColor.Sprint(s)
	case rate < 0:
		return downColor.Sprint(s)
	default:
		return s
	}
}

func directionLabel(d string) string {
	switch d {
	case "UP":
		return upColor.Sprint(d)
	case "DOWN":
		return downColor.Sprint(d)
	default:
		return d
	}
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
