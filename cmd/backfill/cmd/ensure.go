package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var showRows bool

var ensureCmd = &cobra.Command{
	Use:   "ensure SYMBOL...",
	Short: "Ensure daily bars are cached for each symbol",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEnsure,
}

func init() {
	ensureCmd.Flags().BoolVar(&showRows, "rows", false, "print every bar")
}

func runEnsure(cmd *cobra.Command, args []string) error {
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

	failed := 0
	for _, symbol := range args {
		bars, err := a.Service.EnsureDaily(cmd.Context(), symbol, s, e)
		if err != nil {
			fmt.Fprintf(w, "%s\terror\t%v\n", symbol, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%s\t%d rows\t%s..%s\n", symbol, len(bars), s.Format("2006-01-02"), e.Format("2006-01-02"))
		if showRows {
			for _, b := range bars {
				fmt.Fprintf(w, "\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.0f\n",
					b.Date.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d symbols failed", failed, len(args))
	}
	return nil
}
