package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/montewalk/quant/trading"
)

var (
	orderSide  string
	orderQty   float64
	orderType  string
	orderLimit float64
)

var orderCmd = &cobra.Command{
	Use:   "order SYMBOL",
	Short: "Place a simulated market or limit order",
	Long: `Order submits a single order to the execution simulator.

The order fills immediately at the provider reference price adjusted
by the configured slippage, plus a proportional commission.

Examples:
  montewalk order aapl.us --side buy --qty 10
  montewalk order aapl.us --side sell --qty 5 --type limit --limit 180.50`,
	Args: cobra.ExactArgs(1),
	RunE: runOrder,
}

func init() {
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(cancelCmd)

	orderCmd.Flags().StringVarP(&orderSide, "side", "s", "buy", "order side (buy or sell)")
	orderCmd.Flags().Float64VarP(&orderQty, "qty", "q", 0, "quantity to trade (required)")
	orderCmd.Flags().StringVarP(&orderType, "type", "t", "market", "order type (market or limit)")
	orderCmd.Flags().Float64VarP(&orderLimit, "limit", "l", 0, "limit price (required for limit orders)")
	_ = orderCmd.MarkFlagRequired("qty")
}

func runOrder(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	order := trading.Order{
		Symbol: args[0],
		Side:   trading.Side(orderSide),
		Qty:    decimal.NewFromFloat(orderQty),
		Type:   trading.OrderType(orderType),
	}
	if order.Type == trading.OrderLimit {
		limit := decimal.NewFromFloat(orderLimit)
		order.LimitPrice = &limit
	}

	fill, err := a.sim.PlaceOrder(ctx, order)
	if err != nil {
		return err
	}

	fmt.Printf("Filled %s %s %s @ %s (commission %s)\n",
		fill.Side, fill.Qty, fill.Symbol,
		fill.Price.StringFixed(4), fill.Commission.StringFixed(4))
	fmt.Printf("Fill ID: %s\n", fill.ID)
	return nil
}

var cancelCmd = &cobra.Command{
	Use:   "cancel ORDER_ID",
	Short: "Cancel an open order (always a no-op in the immediate-fill model)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if err := a.sim.CancelOrder(args[0]); err != nil {
			return err
		}
		fmt.Printf("Order %s: nothing to cancel; orders fill immediately\n", args[0])
		return nil
	},
}
