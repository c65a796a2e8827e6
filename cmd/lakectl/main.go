// Mealreco - Meal Recommendation Data Lake Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mealreco

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/tomtom215/mealreco/internal/config"
	"github.com/tomtom215/mealreco/internal/logging"
)

// errUsage marks an argument error; the command's usage has been printed.
var errUsage = errors.New("usage")

func main() {
	verbose := flag.BoolP("verbose", "v", false, "Log at debug level")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `lakectl - drive the Mealreco data lake by hand

Usage:
  lakectl [options] <command> [arguments]

Commands:
  put <file>            Upload a file to the raw zone
  run <stage> <key>     Run one stage against one object
  ls <stage>            List the objects of a zone

Global Options:
  -v, --verbose         Log at debug level

Configuration is read from the same environment variables and config file
as the server (LAKE_BACKEND, STORE_BACKEND, NATS_ENABLED, ...).

Examples:
  lakectl put exports/menus.xlsx
  lakectl put --name users.csv /tmp/export-2024-06.csv
  lakectl run formated data/formated/users.csv
  lakectl ls curated

For detailed command help: lakectl <command> --help
`)
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: "console", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{cfg: cfg, out: os.Stdout}
	if err := c.dispatch(ctx, args[0], args[1:]); err != nil {
		stop()
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "lakectl: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	cfg *config.Config
	out io.Writer
}

func (c *cli) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "put":
		return c.runPut(ctx, args)
	case "run":
		return c.runStage(ctx, args)
	case "ls":
		return c.runList(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		return errUsage
	}
}
