package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/nexbit/config"
	"github.com/alejandrodnm/nexbit/internal/adapters/nexbit"
	"github.com/alejandrodnm/nexbit/internal/adapters/notify"
	"github.com/alejandrodnm/nexbit/internal/adapters/storage"
	"github.com/alejandrodnm/nexbit/internal/application/dashboard"
	"github.com/alejandrodnm/nexbit/internal/application/session"
	"github.com/alejandrodnm/nexbit/internal/application/trading"
	"github.com/alejandrodnm/nexbit/internal/ports"
)

// app agrupa las dependencias que comparten los subcomandos.
type app struct {
	cfg     *config.Config
	client  *nexbit.Client
	archive ports.Archive // nil si storage.dsn está vacío
	console *notify.Console
	session *session.Session
	syncer  *dashboard.Syncer
	trader  *trading.Trader
	auto    *trading.AutoTrader
	history *trading.History
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print candle tables on every quote (default: compact 1-line)")
	once := flag.Bool("once", false, "watch: fetch quotes and prediction once and exit")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	command, args := "watch", flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	slog.Info("nexbit starting",
		"config", *configPath,
		"command", command,
		"market", cfg.Market.Symbol,
		"base_url", cfg.API.BaseURL,
	)

	a, closeApp, err := newApp(cfg, *table)
	if err != nil {
		slog.Error("failed to initialise", "err", err)
		os.Exit(1)
	}
	defer closeApp()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stopMetrics := startMetrics(cfg.Metrics.Addr)
	defer stopMetrics()

	var runErr error
	switch command {
	case "watch":
		runErr = runWatch(ctx, a, *once)
	case "portfolio":
		runErr = runPortfolio(ctx, a)
	case "profit":
		runErr = runProfit(ctx, a, args)
	case "order":
		runErr = runOrder(ctx, a, args)
	case "trades":
		runErr = runTrades(ctx, a, args)
	case "ai":
		runErr = runAI(ctx, a, args)
	case "journal":
		runErr = runJournal(ctx, a, args)
	case "predictions":
		runErr = runPredictions(ctx, a, args)
	case "signup":
		runErr = runSignup(ctx, a, args)
	default:
		usage()
		os.Exit(2)
	}

	if runErr != nil {
		var usageErr *usageError
		if errors.As(runErr, &usageErr) {
			fmt.Fprintln(os.Stderr, usageErr.msg)
			usage()
			os.Exit(2)
		}
		slog.Error("command failed", "command", command, "err", runErr)
		if nexbit.IsUnauthorized(runErr) {
			slog.Error("token rejected by server, check NEXBIT_EMAIL / NEXBIT_PASSWORD")
		}
		// deferreds no corren con os.Exit
		stopMetrics()
		closeApp()
		os.Exit(1)
	}
	slog.Info("nexbit stopped cleanly")
}

// newApp cablea adapters y servicios. El cierre libera el archive.
func newApp(cfg *config.Config, table bool) (*app, func(), error) {
	client := nexbit.NewClient(cfg.API.BaseURL,
		nexbit.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		nexbit.WithLocation(cfg.Location()),
	)

	a := &app{
		cfg:     cfg,
		client:  client,
		console: notify.NewConsole(table),
	}
	closeFn := func() {}

	if cfg.Storage.DSN != "" {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
		}
		a.archive = store
		closeFn = func() {
			if err := store.Close(); err != nil {
				slog.Warn("failed to close storage", "err", err)
			}
		}
	}

	syncer, err := dashboard.New(dashboard.Config{
		Market:        cfg.Market.Symbol,
		Interval:      cfg.ChartInterval(),
		Count:         cfg.Market.Count,
		QuoteEvery:    cfg.QuoteInterval(),
		BoundaryHours: cfg.Sync.BoundaryHours,
		Location:      cfg.Location(),
	}, client, client, client,
		dashboard.WithNotifier(a.console),
		dashboard.WithArchive(a.archive),
	)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	a.syncer = syncer

	a.session = session.New(client)
	a.session.Subscribe(syncer.OnSession)

	a.trader = trading.NewTrader(client, a.session, cfg.Market.Symbol,
		trading.WithJournal(a.archive),
		trading.WithMinNotional(cfg.Order.MinNotional),
	)
	a.auto = trading.NewAutoTrader(client, a.session)
	a.history = trading.NewHistory(client, a.session, a.archive)

	return a, closeFn, nil
}

// login autentica con las credenciales del entorno.
func (a *app) login(ctx context.Context) error {
	if a.cfg.API.Email == "" || a.cfg.API.Password == "" {
		return errors.New("NEXBIT_EMAIL and NEXBIT_PASSWORD must be set")
	}
	return a.session.Login(ctx, a.cfg.API.Email, a.cfg.API.Password)
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: nexbit [flags] <command> [args]

commands:
  watch                          sync quotes every 10s and predictions every 4h (default)
  portfolio                      show holdings valuation and allocation
  profit [-interval] [-count]    reconstruct P&L of the current holding
  order buy|sell PRICE AMOUNT    place a limit order (AMOUNT in KRW)
  trades [-side] [-period]       list exchange order history
  ai status|on|off|toggle        control server-side auto trading
  journal [-period]              list locally journaled order attempts
  predictions [-period]          list archived predictions
  signup -username NAME [-email] create an account (password from NEXBIT_PASSWORD)

flags:
`)
	flag.PrintDefaults()
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
