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
	"github.com/relabs-tech/sensor_relay/internal/poller"
	"github.com/relabs-tech/sensor_relay/internal/sensors"
)

// ThrottleSink receives the distance whenever it changes.
type ThrottleSink interface {
	PublishThrottle(mm uint16)
}

// StationParams wires the throttle sensor.
type StationParams struct {
	Ranger   sensors.Ranger // nil when the sensor failed to initialize
	Link     io.ReadWriter
	Interval time.Duration
	Clock    clk.Clock
	Logger   golog.Logger
	Sinks    []ThrottleSink
}

// Station is the throttle sensor: a background sampler feeding a cell that
// the command line reads.
type Station struct {
	cell     *poller.Cell
	sampler  *poller.Sampler
	cli      *command.CLI
	link     io.ReadWriter
	interval time.Duration
	clock    clk.Clock
	logger   golog.Logger
	sinks    []ThrottleSink
}

func NewStation(p StationParams) *Station {
	if p.Clock == nil {
		p.Clock = clk.New()
	}
	if p.Ranger == nil {
		p.Logger.Errorf("distance sensor unavailable, answering %d", poller.Sentinel)
	}
	cell := &poller.Cell{}
	cli := command.NewCLI()
	cli.RegisterThrottle(cell)
	return &Station{
		cell:     cell,
		sampler:  poller.NewSampler(p.Ranger, cell, p.Interval, p.Clock, p.Logger),
		cli:      cli,
		link:     p.Link,
		interval: p.Interval,
		clock:    p.Clock,
		logger:   p.Logger,
		sinks:    p.Sinks,
	}
}

// CLI exposes the command registry so callers can add queries.
func (s *Station) CLI() *command.CLI {
	return s.cli
}

// Throttle returns the current cell value.
func (s *Station) Throttle() uint16 {
	return s.cell.Load()
}

// Run starts the sampler and serves commands until ctx is done or the link
// reaches EOF.
func (s *Station) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.sampler.Start(ctx)
	defer func() {
		s.sampler.Close()
		s.logger.Infow("sampler stopped", "samples", s.sampler.Samples(), "timeouts", s.sampler.Timeouts())
	}()

	done := make(chan struct{})
	defer func() {
		cancel()
		<-done
	}()
	go func() {
		defer close(done)
		s.publishLoop(ctx)
	}()

	s.logger.Infof("sampling every %s", s.interval)
	err := command.ServeLines(ctx, s.link, s.link, s.cli)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Station) publishLoop(ctx context.Context) {
	if len(s.sinks) == 0 {
		return
	}
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	last, published := uint16(0), false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		v := s.cell.Load()
		if published && v == last {
			continue
		}
		for _, sink := range s.sinks {
			sink.PublishThrottle(v)
		}
		last, published = v, true
	}
}
