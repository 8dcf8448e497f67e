// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors defines the driver contracts used by the pollers and the
// backends that implement them on real and simulated hardware.
package sensors

import (
	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/relabs-tech/sensor_relay/internal/config"
)

// ErrTimeout is returned by a Ranger when no measurement completed in time.
var ErrTimeout = errors.New("ranging timeout")

// IMU is an inertial sensor with accelerometer, gyroscope and temperature channels.
// Acceleration is in g, rotation in degrees per second, temperature in °C.
type IMU interface {
	// DataReady reports whether a fresh sample is available.
	DataReady() (bool, error)
	Acceleration() (x, y, z float32, err error)
	Rotation() (x, y, z float32, err error)
	Temperature() (float32, error)
	Close() error
}

// Ranger is a distance sensor reporting millimetres.
type Ranger interface {
	// ReadRange returns ErrTimeout when the measurement did not complete.
	ReadRange() (uint16, error)
	Close() error
}

// NewIMU opens the IMU backend selected by cfg.IMUBackend.
func NewIMU(cfg *config.Config, logger golog.Logger) (IMU, error) {
	switch cfg.IMUBackend {
	case "mpu9250":
		dev, err := newMPU9250(cfg, logger)
		if err != nil {
			return nil, err
		}
		return dev, nil
	case "mock":
		logger.Info("IMU: using mock backend")
		return NewMockIMU(clk.New(), 0), nil
	default:
		return nil, errors.Errorf("unknown IMU backend %q", cfg.IMUBackend)
	}
}

// NewRanger opens the distance sensor backend selected by cfg.ToFBackend.
func NewRanger(cfg *config.Config, logger golog.Logger) (Ranger, error) {
	switch cfg.ToFBackend {
	case "vl53l1x":
		r, err := newVL53L1X(cfg, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "mock":
		logger.Info("ToF: using mock backend")
		return NewMockRanger(clk.New(), 0), nil
	default:
		return nil, errors.Errorf("unknown ToF backend %q", cfg.ToFBackend)
	}
}
