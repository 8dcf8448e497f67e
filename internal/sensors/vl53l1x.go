// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers/vl53l1x"

	"github.com/relabs-tech/sensor_relay/internal/config"
)

// busProbe wraps a periph I2C bus for the tinygo driver, which discards
// transfer errors. The first error since the last reset is kept.
type busProbe struct {
	bus i2c.Bus

	mu  sync.Mutex
	err error
}

func (b *busProbe) Tx(addr uint16, w, r []byte) error {
	err := b.bus.Tx(addr, w, r)
	if err != nil {
		b.mu.Lock()
		if b.err == nil {
			b.err = err
		}
		b.mu.Unlock()
	}
	return err
}

// take returns and clears the recorded error.
func (b *busProbe) take() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.err
	b.err = nil
	return err
}

type vl53l1xRanger struct {
	mu     sync.Mutex
	bus    i2c.BusCloser
	probe  *busProbe
	dev    vl53l1x.Device
	logger golog.Logger
}

// newVL53L1X opens the I2C bus, configures the sensor and starts continuous
// ranging at the configured period.
func newVL53L1X(cfg *config.Config, logger golog.Logger) (*vl53l1xRanger, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "ToF: periph host init")
	}
	bus, err := i2creg.Open(cfg.ToFI2CBus)
	if err != nil {
		return nil, errors.Wrapf(err, "ToF: I2C open (%q)", cfg.ToFI2CBus)
	}
	r, err := startVL53L1X(bus, cfg, logger)
	if err != nil {
		return nil, multierr.Combine(err, bus.Close())
	}
	return r, nil
}

func startVL53L1X(bus i2c.BusCloser, cfg *config.Config, logger golog.Logger) (*vl53l1xRanger, error) {
	probe := &busProbe{bus: bus}
	dev := vl53l1x.New(probe)
	dev.Address = cfg.ToFI2CAddr
	dev.SetTimeout(uint32(cfg.ToFTimeout))

	if !dev.Configure(true) {
		if err := probe.take(); err != nil {
			return nil, errors.Wrapf(err, "ToF: configure at 0x%02x", cfg.ToFI2CAddr)
		}
		return nil, errors.Errorf("ToF: no VL53L1X at 0x%02x", cfg.ToFI2CAddr)
	}
	dev.StartContinuous(uint32(cfg.ToFSampleInterval))
	if err := probe.take(); err != nil {
		return nil, errors.Wrap(err, "ToF: start continuous")
	}
	logger.Infof("ToF: VL53L1X at 0x%02x, timeout %dms, period %dms", cfg.ToFI2CAddr, cfg.ToFTimeout, cfg.ToFSampleInterval)

	return &vl53l1xRanger{
		bus:    bus,
		probe:  probe,
		dev:    dev,
		logger: logger,
	}, nil
}

func (r *vl53l1xRanger) ReadRange() (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mm := r.dev.Read(true)
	if err := r.probe.take(); err != nil {
		return 0, errors.Wrap(err, "ToF read")
	}
	if r.dev.Status() == vl53l1x.None {
		return 0, ErrTimeout
	}
	return mm, nil
}

func (r *vl53l1xRanger) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dev.StopContinuous()
	return multierr.Combine(r.probe.take(), r.bus.Close())
}
