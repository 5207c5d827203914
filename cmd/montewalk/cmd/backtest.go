package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	btFast  int
	btSlow  int
	btStart string
	btEnd   string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest SYMBOL",
	Short: "Backtest a moving-average crossover strategy",
	Long: `Backtest replays a fast/slow SMA crossover on daily bars.

The strategy is long when the fast average is above the slow average
and flat otherwise, with a one-bar execution lag. Every position
change is charged the configured slippage and commission.

Example:
  montewalk backtest aapl.us --fast 50 --slow 200 --start 2020-01-01 --end 2023-12-31`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		start, err := parseDate(btStart)
		if err != nil {
			return err
		}
		end, err := parseDate(btEnd)
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		res, err := a.bt.Run(ctx, args[0], btFast, btSlow, start, end)
		if err != nil {
			return err
		}

		fmt.Printf("Backtest %s SMA %d/%d over %d bars:\n",
			res.Symbol, res.FastMA, res.SlowMA, res.Bars)
		fmt.Printf("  Strategy return: %+.2f%%\n", res.StrategyReturn*100)
		fmt.Printf("  Buy & hold:      %+.2f%%\n", res.BuyHoldReturn*100)
		fmt.Printf("  Sharpe ratio:    %.2f\n", res.Sharpe)
		fmt.Printf("  Max drawdown:    %.2f%%\n", res.MaxDrawdown*100)
		fmt.Printf("  Trades:          %d\n", res.Trades)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().IntVar(&btFast, "fast", 50, "fast moving-average window in bars")
	backtestCmd.Flags().IntVar(&btSlow, "slow", 200, "slow moving-average window in bars")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "start date YYYY-MM-DD (required)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "end date YYYY-MM-DD (required)")
	_ = backtestCmd.MarkFlagRequired("start")
	_ = backtestCmd.MarkFlagRequired("end")
}
