package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/montewalk/quant/backtest"
	"github.com/montewalk/quant/config"
	"github.com/montewalk/quant/exec"
	"github.com/montewalk/quant/journal"
	"github.com/montewalk/quant/market"
	"github.com/montewalk/quant/optimize"
	"github.com/montewalk/quant/portfolio"
	"github.com/montewalk/quant/risk"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "montewalk",
	Short: "A simulated trading account with risk analytics and backtesting",
	Long: `Montewalk manages a single simulated trading portfolio.

It provides tools for:
  - Placing simulated market and limit orders with slippage/commission
  - Tracking durable cash and position state
  - Portfolio risk analytics (volatility, VaR, drawdown, Monte Carlo)
  - Backtesting an MA-crossover strategy with walk-forward analysis
  - Portfolio optimization (mean-variance, risk parity)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml or json); defaults apply when omitted")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable structured logging to stderr")
}

// app wires the engine components for one CLI invocation.
type app struct {
	cfg *config.Config
	log *zap.Logger

	store  portfolio.Store
	jnl    journal.Journal
	ledger *portfolio.Ledger
	prices *market.Chain

	sim  *exec.Simulator
	risk *risk.Engine
	bt   *backtest.Engine
	opt  *optimize.Optimizer
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
	}

	log := zap.NewNop()
	if verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
	}

	timeout, err := cfg.Market.ParseTimeout()
	if err != nil {
		return nil, err
	}

	var providers []market.Provider
	if cfg.Market.CSVDir != "" {
		providers = append(providers, market.NewCSVProvider(cfg.Market.CSVDir))
	}
	providers = append(providers, market.NewStooqProvider(timeout))
	prices := market.NewChain(timeout, providers...)

	store, err := portfolio.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open portfolio store: %w", err)
	}

	ledger, err := portfolio.Open(ctx, store, decimal.NewFromFloat(cfg.Account.StartingCash))
	if err != nil {
		store.Close()
		return nil, err
	}

	jnl, err := openJournal(cfg.Journal)
	if err != nil {
		store.Close()
		return nil, err
	}

	costs := exec.NewCostModel(cfg.Execution.SlippageBps, cfg.Execution.CommissionRate)

	return &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		jnl:    jnl,
		ledger: ledger,
		prices: prices,
		sim:    exec.NewSimulator(ledger, prices, costs, cfg.Execution.MaxOrderFraction, jnl, log),
		risk:   risk.NewEngine(ledger, prices, cfg.Risk.PeriodsPerYear, cfg.Risk.LookbackDays),
		bt:     backtest.NewEngine(prices, costs, cfg.Risk.PeriodsPerYear),
		opt:    optimize.New(prices, cfg.Risk.PeriodsPerYear),
	}, nil
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.FillsFile, cfg.RejectFile)
	case "none":
		return journal.Nop{}, nil
	default:
		return journal.NewSQLite(cfg.DBPath)
	}
}

func (a *app) Close(ctx context.Context) {
	if err := a.ledger.Flush(ctx); err != nil {
		a.log.Warn("flush ledger on shutdown", zap.Error(err))
	}
	if err := a.jnl.Close(); err != nil {
		a.log.Warn("close journal", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	_ = a.log.Sync()
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
