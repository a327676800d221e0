// Command backfill fills the daily warehouse from the command line.
//
//	go run ./cmd/backfill ensure AAPL MSFT --start 2024-01-01 --end 2024-03-31
//	go run ./cmd/backfill indicators AAPL --start 2024-01-01 --end 2024-03-31 --period 14
package main

import (
	"os"

	"UyoAI/cmd/backfill/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
