// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/relabs-tech/sensor_relay/internal/config"
)

func TestRunMissingSerialPort(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := config.Default()
	cfg.IMUBackend = "mock"
	cfg.ToFBackend = "mock"
	cfg.SerialPort = filepath.Join(t.TempDir(), "ttyACM7")

	err := RunIMUStreamer(context.Background(), cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "open serial port")

	err = RunThrottleSensor(context.Background(), cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "open serial port")
}

func TestRunIMUStreamerBadFormat(t *testing.T) {
	cfg := config.Default()
	cfg.OutputFormat = "csv"
	err := RunIMUStreamer(context.Background(), cfg, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown output format")
}
