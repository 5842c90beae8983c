package main

import (
	"os"

	"github.com/MarketOps-Admin/MarketOps-Admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
