package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/nexbit/internal/adapters/notify"
	"github.com/alejandrodnm/nexbit/internal/application/trading"
	"github.com/alejandrodnm/nexbit/internal/domain"
)

func runPortfolio(ctx context.Context, a *app) error {
	if err := a.login(ctx); err != nil {
		return err
	}
	if err := a.syncer.RefreshQuotes(ctx); err != nil {
		slog.Warn("quotes fetch failed, using portfolio price", "err", err)
	}
	if err := a.syncer.RefreshPrediction(ctx); err != nil {
		slog.Warn("prediction fetch failed", "err", err)
	}
	if a.syncer.Position() == nil {
		return errors.New("portfolio unavailable")
	}
	a.printPortfolio(ctx)
	return nil
}

// printPortfolio imprime la valoración actual; el estado del bot es opcional.
func (a *app) printPortfolio(ctx context.Context) {
	pos := a.syncer.Position()
	if pos == nil {
		return
	}
	in := notify.PortfolioReportInput{
		Position:   *pos,
		Price:      a.syncer.Price(),
		Valuation:  a.syncer.Valuation(),
		Allocation: a.syncer.Allocation(),
		Now:        time.Now(),
	}
	if pred, ok := a.syncer.Prediction(); ok {
		in.Prediction = &pred
	}
	if active, err := a.auto.Status(ctx); err == nil {
		in.AIActive = &active
	} else {
		slog.Debug("ai status unavailable", "err", err)
	}
	a.console.PrintPortfolio(in)
}

func runProfit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("profit", flag.ContinueOnError)
	interval := fs.String("interval", string(a.cfg.HistoryInterval()), "candle interval (days, weeks, minutes/240, ...)")
	count := fs.Int("count", a.cfg.History.Count, "number of periods (0 = interval default)")
	if err := fs.Parse(args); err != nil {
		return usageErrorf("profit: %v", err)
	}
	iv := domain.Interval(*interval)
	if !iv.Valid() {
		return usageErrorf("profit: unsupported interval %q", *interval)
	}
	n := *count
	if n <= 0 {
		n = iv.DefaultCount()
	}

	if err := a.login(ctx); err != nil {
		return err
	}
	if err := a.syncer.RefreshQuotes(ctx); err != nil {
		slog.Warn("quotes fetch failed, using portfolio price", "err", err)
	}
	report, err := a.syncer.ProfitHistory(ctx, iv, n)
	if err != nil {
		return err
	}
	a.console.PrintProfitHistory(report)
	return nil
}

func runOrder(ctx context.Context, a *app, args []string) error {
	if len(args) != 3 {
		return usageErrorf("order: expected buy|sell PRICE AMOUNT")
	}
	side := domain.Side(strings.ToLower(args[0]))
	if !side.Valid() {
		return usageErrorf("order: side must be buy or sell, got %q", args[0])
	}

	if err := a.login(ctx); err != nil {
		return err
	}
	receipt, err := a.trader.PlaceOrder(ctx, side, args[1], args[2])
	a.console.PrintOrderResult(receipt, err)
	return err
}

func runTrades(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("trades", flag.ContinueOnError)
	side := fs.String("side", "all", "all|buy|sell")
	period := fs.String("period", "1w", "1w|1m|3m|6m|all")
	limit := fs.Int("limit", 20, "max rows")
	if err := fs.Parse(args); err != nil {
		return usageErrorf("trades: %v", err)
	}
	filter := domain.TradeLogFilter{
		Side:   domain.TradeLogSide(*side),
		Period: domain.TradeLogPeriod(*period),
		Limit:  *limit,
	}
	switch filter.Side {
	case domain.TradeLogAll, domain.TradeLogBuy, domain.TradeLogSell:
	default:
		return usageErrorf("trades: unknown side %q", *side)
	}

	if err := a.login(ctx); err != nil {
		return err
	}
	logs, err := a.history.TradeLogs(ctx, filter)
	if err != nil {
		return err
	}
	a.console.PrintTradeLogs(logs)
	return nil
}

func runAI(ctx context.Context, a *app, args []string) error {
	action := "status"
	if len(args) > 0 {
		action = args[0]
	}
	if err := a.login(ctx); err != nil {
		return err
	}

	var active bool
	var err error
	switch action {
	case "status":
		active, err = a.auto.Status(ctx)
	case "on":
		active, err = true, a.auto.Set(ctx, true)
	case "off":
		active, err = false, a.auto.Set(ctx, false)
	case "toggle":
		active, err = a.auto.Toggle(ctx)
	default:
		return usageErrorf("ai: unknown action %q", action)
	}
	if err != nil {
		return err
	}
	state := "inactive"
	if active {
		state = "active"
	}
	fmt.Printf("ai trading: %s\n", state)
	return nil
}

func runJournal(ctx context.Context, a *app, args []string) error {
	period, err := parsePeriod("journal", args)
	if err != nil {
		return err
	}
	entries, err := a.history.Journal(ctx, period)
	if errors.Is(err, trading.ErrNoArchive) {
		return fmt.Errorf("%w: set storage.dsn or NEXBIT_STORAGE_DSN", err)
	}
	if err != nil {
		return err
	}
	a.console.PrintOrderJournal(entries)
	return nil
}

func runPredictions(ctx context.Context, a *app, args []string) error {
	period, err := parsePeriod("predictions", args)
	if err != nil {
		return err
	}
	preds, err := a.history.Predictions(ctx, period)
	if errors.Is(err, trading.ErrNoArchive) {
		return fmt.Errorf("%w: set storage.dsn or NEXBIT_STORAGE_DSN", err)
	}
	if err != nil {
		return err
	}
	a.console.PrintPredictionHistory(preds)
	return nil
}

func parsePeriod(name string, args []string) (domain.TradeLogPeriod, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	period := fs.String("period", "1w", "1w|1m|3m|6m|all")
	if err := fs.Parse(args); err != nil {
		return "", usageErrorf("%s: %v", name, err)
	}
	return domain.TradeLogPeriod(*period), nil
}

// runSignup da de alta la cuenta con la password de NEXBIT_PASSWORD.
// NEXBIT_PASSWORD_CONFIRM, si está, debe coincidir.
func runSignup(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	email := fs.String("email", a.cfg.API.Email, "account email")
	username := fs.String("username", "", "display name (min 2 characters)")
	if err := fs.Parse(args); err != nil {
		return usageErrorf("signup: %v", err)
	}

	confirm, ok := os.LookupEnv("NEXBIT_PASSWORD_CONFIRM")
	if !ok {
		confirm = a.cfg.API.Password
	}
	err := a.session.SignUp(ctx, domain.SignUpForm{
		Email:         *email,
		Username:      *username,
		Password:      a.cfg.API.Password,
		PasswordCheck: confirm,
	})
	if err != nil {
		return err
	}
	fmt.Printf("account %s created, log in with NEXBIT_EMAIL / NEXBIT_PASSWORD\n", strings.TrimSpace(*email))
	return nil
}
