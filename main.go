package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"ppdmloader/internal/app"
)

func main() {
	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
