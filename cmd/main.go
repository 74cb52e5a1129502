package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/victorlunam/spcheck/internal/logger"
	"github.com/victorlunam/spcheck/internal/runner"
	"github.com/victorlunam/spcheck/internal/ui"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		switch {
		case errors.Is(err, runner.ErrRunFailed):
			// already reported file by file
		case errors.Is(err, ui.ErrSelectionCancelled):
			color.Yellow("Nothing checked")
		default:
			l, logErr := logger.New(logger.Config{Level: "debug", Format: "console"})
			if logErr == nil {
				l.Error("command failed", zap.Error(err))
				_ = l.Sync()
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		os.Exit(1)
	}
}
