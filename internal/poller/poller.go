// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package poller turns sensor drivers into the latest-value state read by the
// reporting loops.
package poller

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/relabs-tech/sensor_relay/internal/imu"
	"github.com/relabs-tech/sensor_relay/internal/sensors"
)

// Poller owns the current IMU reading.
type Poller struct {
	dev sensors.IMU

	mu   sync.Mutex
	last imu.Reading
}

// NewPoller returns a poller over dev. A nil dev is allowed and never yields
// data, so a failed sensor keeps reporting its zero reading.
func NewPoller(dev sensors.IMU) *Poller {
	return &Poller{dev: dev}
}

// Poll refreshes the reading when the driver has data ready. The returned
// bool is true only when the reading was overwritten. On error the previous
// reading is kept and returned with the error.
func (p *Poller) Poll() (imu.Reading, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dev == nil {
		return p.last, false, nil
	}
	ready, err := p.dev.DataReady()
	if err != nil {
		return p.last, false, errors.Wrap(err, "data ready")
	}
	if !ready {
		return p.last, false, nil
	}

	next := p.last
	next.DeltaYaw, next.DeltaPitch, next.DeltaRoll, err = p.dev.Acceleration()
	if err != nil {
		return p.last, false, err
	}
	next.Yaw, next.Pitch, next.Roll, err = p.dev.Rotation()
	if err != nil {
		return p.last, false, err
	}
	next.Temperature, err = p.dev.Temperature()
	if err != nil {
		return p.last, false, errors.Wrap(err, "temperature")
	}

	p.last = next
	return p.last, true, nil
}

// Last returns the most recent reading without touching the driver.
func (p *Poller) Last() imu.Reading {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
