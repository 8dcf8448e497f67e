// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/relabs-tech/sensor_relay/internal/probe"
)

const defaultTimeout = 2 * time.Second

func main() {
	var logger golog.Logger

	cliApp := &cli.App{
		Name:      "serial_probe",
		Usage:     "send a command to a device and print its reply",
		ArgsUsage: "COMMAND",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "port",
				Aliases:  []string{"p"},
				Usage:    "serial `DEVICE` of the board",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "baud",
				Value: 115200,
				Usage: "baud rate",
			},
			&cli.IntFlag{
				Name:  "lines",
				Value: 1,
				Usage: "number of reply lines to print",
			},
			&cli.StringFlag{
				Name:  "expect",
				Usage: "skip lines until one starts with `PREFIX` (for streaming devices)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: defaultTimeout,
				Usage: "how long to wait for the reply",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				logger = golog.NewDebugLogger("serial_probe")
			} else {
				logger = zap.NewNop().Sugar()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("expected exactly one COMMAND argument")
			}
			cmd := unescape(c.Args().First())

			port, err := probe.Open(c.String("port"), c.Int("baud"))
			if err != nil {
				return err
			}
			defer port.Close()
			logger.Debugw("sending", "port", c.String("port"), "command", cmd)

			if prefix := c.String("expect"); prefix != "" {
				line, err := probe.Expect(port, cmd, prefix, c.Duration("timeout"))
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, line)
				return nil
			}

			lines, err := probe.Exchange(port, cmd, c.Int("lines"), c.Duration("timeout"))
			for _, l := range lines {
				fmt.Fprintln(c.App.Writer, l)
			}
			return err
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// unescape turns a literal "\n" typed on the shell into a newline and
// terminates the command line.
func unescape(s string) string {
	s = strings.NewReplacer(`\r`, "\r", `\n`, "\n").Replace(s)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}
