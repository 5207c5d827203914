package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/montewalk/quant/optimize"
)

var optLookback int

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Compute target portfolio weights",
}

var meanvarCmd = &cobra.Command{
	Use:   "meanvar TICKER...",
	Short: "Long-only maximum-Sharpe (tangency) weights",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		alloc, err := a.opt.MeanVariance(ctx, args, optLookback)
		if err != nil {
			return err
		}

		fmt.Println("Mean-variance (max Sharpe) weights:")
		printWeights(alloc)
		fmt.Printf("  Expected return: %+.2f%%\n", alloc.ExpectedReturn*100)
		fmt.Printf("  Volatility:      %.2f%%\n", alloc.Volatility*100)
		fmt.Printf("  Sharpe ratio:    %.2f\n", alloc.Sharpe)
		return nil
	},
}

var riskparityCmd = &cobra.Command{
	Use:   "riskparity TICKER...",
	Short: "Inverse-volatility (risk parity) weights",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		alloc, err := a.opt.RiskParity(ctx, args, optLookback)
		if err != nil {
			return err
		}

		fmt.Println("Risk-parity weights:")
		printWeights(alloc)
		return nil
	},
}

func printWeights(alloc optimize.Allocation) {
	tickers := make([]string, 0, len(alloc.Weights))
	for t := range alloc.Weights {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	for _, t := range tickers {
		fmt.Printf("  %-12s %6.2f%%\n", t, alloc.Weights[t]*100)
	}
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.AddCommand(meanvarCmd, riskparityCmd)

	optimizeCmd.PersistentFlags().IntVar(&optLookback, "lookback", 252, "lookback window in calendar days")
}
