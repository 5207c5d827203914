package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	wfTrainMonths int
	wfTestMonths  int
	wfStart       string
	wfEnd         string
)

var walkforwardCmd = &cobra.Command{
	Use:   "walkforward SYMBOL",
	Short: "Walk-forward analysis of the crossover strategy",
	Long: `Walkforward splits the history into consecutive train/test windows.

On each window the crossover parameters are fitted on the train slice
by grid search, then evaluated out-of-sample on the test slice that
immediately follows. The splitter advances one test window at a time,
so test windows are contiguous and non-overlapping.

Example:
  montewalk walkforward aapl.us --train 12 --test 3 --start 2020-01-01 --end 2023-12-31`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		start, err := parseDate(wfStart)
		if err != nil {
			return err
		}
		end, err := parseDate(wfEnd)
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		windows, err := a.bt.WalkForward(ctx, args[0], start, end, wfTrainMonths, wfTestMonths)
		if err != nil {
			return err
		}

		fmt.Printf("Walk-forward %s, %d windows (%dmo train / %dmo test):\n",
			args[0], len(windows), wfTrainMonths, wfTestMonths)
		for i, w := range windows {
			fmt.Printf("  #%d  test %s..%s  SMA %d/%d  train %+.2f%%  test %+.2f%%\n",
				i+1,
				w.TestStart.Format("2006-01-02"), w.TestEnd.Format("2006-01-02"),
				w.FastMA, w.SlowMA,
				w.TrainReturn*100, w.TestReturn*100)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(walkforwardCmd)

	walkforwardCmd.Flags().IntVar(&wfTrainMonths, "train", 12, "training window length in months")
	walkforwardCmd.Flags().IntVar(&wfTestMonths, "test", 3, "test window length in months")
	walkforwardCmd.Flags().StringVar(&wfStart, "start", "", "start date YYYY-MM-DD (required)")
	walkforwardCmd.Flags().StringVar(&wfEnd, "end", "", "end date YYYY-MM-DD (required)")
	_ = walkforwardCmd.MarkFlagRequired("start")
	_ = walkforwardCmd.MarkFlagRequired("end")
}
