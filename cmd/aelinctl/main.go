package main

import (
	"fmt"
	"os"

	"aelin/internal/cli"
	"aelin/pkg/config"
	"aelin/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg.Log)
	defer func() { _ = log.Sync() }()

	if err := cli.NewRootCmd(cfg, log).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
