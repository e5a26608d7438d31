package main

import (
	"os"

	"StockPulse/cmd/stockpulse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
