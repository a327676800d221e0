package cmd

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"UyoAI/internal/calculator"

	"github.com/spf13/cobra"
)

var period int

var indicatorsCmd = &cobra.Command{
	Use:   "indicators SYMBOL...",
	Short: "Ensure the range and print daily indicators",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndicators,
}

func init() {
	indicatorsCmd.Flags().IntVar(&period, "period", calculator.DefaultPeriod, "SMA and RSI period")
}

func runIndicators(cmd *cobra.Command, args []string) error {
	if period < 1 {
		return fmt.Errorf("--period must be positive")
	}
	s, e, err := dateRange(time.Now())
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "SYMBOL\tROWS\tLAST\tVWAP\tTWAP\tSMA\tRSI\tHIGH\tLOW\tPOS")

	for _, symbol := range args {
		bars, err := a.Service.EnsureDaily(cmd.Context(), symbol, s, e)
		if err != nil {
			return fmt.Errorf("%s: %w", symbol, err)
		}
		ind := calculator.Summarize(symbol, bars, period)
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ind.Symbol, ind.Rows,
			f2(ind.Last), f2(ind.VWAP), f2(ind.TWAP), f2(ind.SMA),
			f2(ind.RSI), f2(ind.High), f2(ind.Low), f2(ind.Position))
	}
	return nil
}

func f2(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
