// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"io"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/relabs-tech/sensor_relay/internal/command"
	"github.com/relabs-tech/sensor_relay/internal/imu"
	"github.com/relabs-tech/sensor_relay/internal/poller"
	"github.com/relabs-tech/sensor_relay/internal/report"
	"github.com/relabs-tech/sensor_relay/internal/sensors"
)

// consoleBuffer bounds how many unread console bytes are kept between ticks.
const consoleBuffer = 64

// ReadingSink receives every fresh IMU reading.
type ReadingSink interface {
	PublishReading(imu.Reading)
}

// DeviceParams wires the IMU streamer.
type DeviceParams struct {
	IMU       sensors.IMU // nil when the sensor failed to initialize
	Link      io.ReadWriter
	Format    report.Format
	Precision int
	WhoAmI    string
	Interval  time.Duration
	Clock     clk.Clock
	Logger    golog.Logger
	Sinks     []ReadingSink
}

// Device is the IMU streamer: poll, report, answer the console, once per tick.
type Device struct {
	poller   *poller.Poller
	reporter *report.Reporter
	console  *command.Console
	link     io.ReadWriter
	interval time.Duration
	clock    clk.Clock
	logger   golog.Logger
	sinks    []ReadingSink

	input chan byte
	ticks uint64
}

func NewDevice(p DeviceParams) *Device {
	if p.Clock == nil {
		p.Clock = clk.New()
	}
	if p.IMU == nil {
		p.Logger.Error("IMU unavailable, streaming the last known reading")
	}
	return &Device{
		poller:   poller.NewPoller(p.IMU),
		reporter: report.NewReporter(p.Link, p.Format, p.Precision),
		console:  command.NewConsole(p.WhoAmI),
		link:     p.Link,
		interval: p.Interval,
		clock:    p.Clock,
		logger:   p.Logger,
		sinks:    p.Sinks,
		input:    make(chan byte, consoleBuffer),
	}
}

// Run ticks until ctx is done. Console bytes are read in the background and
// handled at the end of the next tick.
func (d *Device) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.logger.Infof("streaming every %s", d.interval)
	go d.readConsole(ctx)

	ticker := d.clock.Ticker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := d.Tick(); err != nil {
			return err
		}
	}
}

// Tick runs one poll, report and console pass. Only a failed write to the
// link is returned; sensor errors are logged and the stale reading is sent.
func (d *Device) Tick() error {
	d.ticks++
	r, changed, err := d.poller.Poll()
	if err != nil {
		d.logger.Warnw("IMU poll failed", "tick", d.ticks, "error", err)
	}
	if err := d.reporter.Report(r); err != nil {
		return err
	}
	if changed {
		for _, s := range d.sinks {
			s.PublishReading(r)
		}
	}
	return d.drainConsole()
}

func (d *Device) drainConsole() error {
	for {
		select {
		case b := <-d.input:
			out, ok := d.console.Handle(b)
			if !ok {
				continue
			}
			if _, err := io.WriteString(d.link, out); err != nil {
				return errors.Wrap(err, "write console reply")
			}
		default:
			return nil
		}
	}
}

func (d *Device) readConsole(ctx context.Context) {
	buf := make([]byte, consoleBuffer)
	for {
		n, err := d.link.Read(buf)
		for _, b := range buf[:n] {
			select {
			case d.input <- b:
			case <-ctx.Done():
				return
			default:
				d.logger.Debugw("console byte dropped", "byte", b)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				d.logger.Warnw("console read failed", "error", err)
			}
			return
		}
	}
}
