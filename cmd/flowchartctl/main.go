package main

import (
	"log/slog"
	"os"

	app "github.com/kode4food/flowchart"
	"github.com/kode4food/flowchart/pkg/log"
)

func main() {
	level := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if os.Getenv("LOG_LEVEL") == "" {
		level = slog.LevelWarn
	}
	logger := log.NewWithWriter(
		os.Stderr, app.Name+"ctl", os.Getenv("ENV"), app.Version, level,
	)
	slog.SetDefault(logger)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
