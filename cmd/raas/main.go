package main

import (
	"fmt"
	"os"

	"github.com/tarka-io/raas/internal/ui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError(err.Error()))
		os.Exit(1)
	}
}
