package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Show current cash and open positions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		pf := a.sim.Positions()

		fmt.Printf("Cash: %s %s\n", pf.Cash.StringFixed(2), a.cfg.Account.Currency)
		if len(pf.Positions) == 0 {
			fmt.Println("No open positions")
			return nil
		}

		symbols := make([]string, 0, len(pf.Positions))
		for sym := range pf.Positions {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)

		fmt.Println("Positions:")
		for _, sym := range symbols {
			pos := pf.Positions[sym]
			fmt.Printf("  %-12s qty %-12s avg cost %s\n",
				sym, pos.Qty.String(), pos.AvgPrice.StringFixed(4))
		}
		return nil
	},
}

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Close every open position at market",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		fills, err := a.sim.Flatten(ctx)
		if err != nil {
			return err
		}
		if len(fills) == 0 {
			fmt.Println("No positions to flatten")
			return nil
		}

		fmt.Printf("Flattened %d positions:\n", len(fills))
		for _, f := range fills {
			fmt.Printf("  %-12s sold %-12s @ %s\n",
				f.Symbol, f.Qty.String(), f.Price.StringFixed(4))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(positionsCmd)
	rootCmd.AddCommand(flattenCmd)
}
