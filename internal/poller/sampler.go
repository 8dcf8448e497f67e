// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package poller

import (
	"context"
	"sync"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/relabs-tech/sensor_relay/internal/sensors"
)

// Sampler reads a Ranger at a fixed rate into a Cell. It is the cell's only writer.
type Sampler struct {
	ranger   sensors.Ranger
	cell     *Cell
	interval time.Duration
	clock    clk.Clock
	logger   golog.Logger

	samples  atomic.Uint64
	timeouts atomic.Uint64

	// failing is the message of the last logged read error, "" when healthy.
	// Only sample touches it, and samples never overlap.
	failing string

	mu                      sync.Mutex
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
}

// NewSampler creates a sampler. A nil ranger stores Sentinel on every period.
func NewSampler(ranger sensors.Ranger, cell *Cell, interval time.Duration, clock clk.Clock, logger golog.Logger) *Sampler {
	if clock == nil {
		clock = clk.New()
	}
	return &Sampler{
		ranger:   ranger,
		cell:     cell,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// Start takes one sample immediately, then samples every interval in the
// background until ctx is done or Close is called.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFunc != nil {
		return
	}

	s.sample()

	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel
	ticker := s.clock.Ticker(s.interval)

	s.activeBackgroundWorkers.Add(1)
	go func() {
		defer s.activeBackgroundWorkers.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			s.sample()
		}
	}()
}

func (s *Sampler) sample() {
	s.samples.Inc()
	if s.ranger == nil {
		s.cell.Store(Sentinel)
		return
	}

	mm, err := s.ranger.ReadRange()
	switch {
	case err == nil:
		if s.failing != "" {
			s.logger.Infow("range read recovered", "mm", mm)
			s.failing = ""
		}
		s.cell.Store(mm)
	case errors.Is(err, sensors.ErrTimeout):
		s.timeouts.Inc()
		s.cell.Store(Sentinel)
	default:
		if msg := err.Error(); msg != s.failing {
			s.logger.Warnw("range read failed", "error", err)
			s.failing = msg
		}
		s.cell.Store(Sentinel)
	}
}

// Samples returns how many samples were taken.
func (s *Sampler) Samples() uint64 {
	return s.samples.Load()
}

// Timeouts returns how many samples ended in a ranging timeout.
func (s *Sampler) Timeouts() uint64 {
	return s.timeouts.Load()
}

// Close stops the background sampler and waits for it to exit.
func (s *Sampler) Close() {
	s.mu.Lock()
	cancel := s.cancelFunc
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.activeBackgroundWorkers.Wait()
}
