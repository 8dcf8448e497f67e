// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/sensor_relay/internal/app"
	"github.com/relabs-tech/sensor_relay/internal/config"
	"github.com/relabs-tech/sensor_relay/internal/logging"
)

func main() {
	cliApp := &cli.App{
		Name:  "throttle_sensor",
		Usage: "answer throttle queries from a time-of-flight sensor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (defaults apply when omitted)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Default()
			if path := c.String("config"); path != "" {
				var err error
				if cfg, err = config.Load(path); err != nil {
					return err
				}
			}
			if c.Bool("debug") {
				cfg.LogLevel = "debug"
			}
			logger, err := logging.New("throttle_sensor", cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return app.RunThrottleSensor(c.Context, cfg, logger)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
