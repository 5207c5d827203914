package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	varConfidence float64
	mcPaths       int
	mcDays        int
	mcSeed        int64
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Portfolio risk analytics",
}

var volCmd = &cobra.Command{
	Use:   "vol",
	Short: "Annualized portfolio volatility",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		res, err := a.risk.PortfolioVolatility(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Annualized volatility: %.2f%% (%d observations)\n",
			res.Annualized*100, res.Observations)
		return nil
	},
}

var varCmd = &cobra.Command{
	Use:   "var",
	Short: "1-day Value at Risk by historical simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		conf := varConfidence
		if conf == 0 {
			conf = a.cfg.Risk.VaRConfidence
		}

		res, err := a.risk.ValueAtRisk(ctx, conf)
		if err != nil {
			return err
		}
		fmt.Printf("Daily VaR (%.0f%%): %.2f (%.2f%%)\n",
			res.Confidence*100, res.Loss, res.Return*100)
		return nil
	},
}

var drawdownCmd = &cobra.Command{
	Use:   "drawdown",
	Short: "Maximum historical drawdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		res, err := a.risk.MaxDrawdown(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Maximum drawdown: %.2f%%\n", res.MaxDrawdown*100)
		return nil
	},
}

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Monte Carlo forecast of the portfolio value",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		res, err := a.risk.MonteCarlo(ctx, mcPaths, mcDays, mcSeed)
		if err != nil {
			return err
		}

		fmt.Printf("Monte Carlo (%d paths, %d days, seed %d):\n",
			res.Paths, res.HorizonDays, res.Seed)
		fmt.Printf("  Start value:     %.2f\n", res.StartValue)
		fmt.Printf("  5th percentile:  %+.2f\n", res.P5)
		fmt.Printf("  Median:          %+.2f\n", res.P50)
		fmt.Printf("  95th percentile: %+.2f\n", res.P95)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(volCmd, varCmd, drawdownCmd, montecarloCmd)

	varCmd.Flags().Float64Var(&varConfidence, "confidence", 0, "confidence level, e.g. 0.95 (defaults from config)")

	montecarloCmd.Flags().IntVar(&mcPaths, "paths", 1000, "number of simulation paths")
	montecarloCmd.Flags().IntVar(&mcDays, "days", 30, "forecast horizon in days")
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", 42, "random seed for reproducible runs")
}
