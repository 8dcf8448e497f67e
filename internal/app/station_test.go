// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"io"
	"testing"

	clk "github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/relabs-tech/sensor_relay/internal/sensors"
)

type fixedRanger struct {
	mm  uint16
	err error
}

func (r fixedRanger) ReadRange() (uint16, error) { return r.mm, r.err }
func (r fixedRanger) Close() error               { return nil }

// duplex joins the command input pipe and the reply pipe into one link.
type duplex struct {
	io.Reader
	io.Writer
}

type stationHarness struct {
	in    *io.PipeWriter
	out   *bufio.Reader
	done  chan error
	clock *clk.Mock
}

func startStation(t *testing.T, ranger sensors.Ranger, sinks ...ThrottleSink) *stationHarness {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	mockClock := clk.NewMock()

	s := NewStation(StationParams{
		Ranger:   ranger,
		Link:     duplex{Reader: inR, Writer: outW},
		Interval: tick,
		Clock:    mockClock,
		Logger:   golog.NewTestLogger(t),
		Sinks:    sinks,
	})
	h := &stationHarness{in: inW, out: bufio.NewReader(outR), done: make(chan error, 1), clock: mockClock}
	go func() { h.done <- s.Run(context.Background()) }()
	return h
}

func (h *stationHarness) ask(t *testing.T, line string) string {
	t.Helper()
	_, err := io.WriteString(h.in, line+"\n")
	test.That(t, err, test.ShouldBeNil)
	reply, err := h.out.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	return reply
}

func (h *stationHarness) stop(t *testing.T) {
	t.Helper()
	test.That(t, h.in.Close(), test.ShouldBeNil)
	test.That(t, <-h.done, test.ShouldBeNil)
}

func TestStationGetThrottle(t *testing.T) {
	h := startStation(t, fixedRanger{mm: 321})
	test.That(t, h.ask(t, "getThrottle"), test.ShouldEqual, "R: 321\n")
	test.That(t, h.ask(t, "calibrate now"), test.ShouldEqual, "R: ok\n")
	test.That(t, h.ask(t, "getthrottle"), test.ShouldEqual, "R: 321\n")
	h.stop(t)
}

func TestStationTimeout(t *testing.T) {
	h := startStation(t, fixedRanger{err: sensors.ErrTimeout})
	test.That(t, h.ask(t, "getThrottle"), test.ShouldEqual, "R: 65535\n")
	h.stop(t)
}

func TestStationWithoutRanger(t *testing.T) {
	h := startStation(t, nil)
	test.That(t, h.ask(t, "getThrottle"), test.ShouldEqual, "R: 65535\n")
	test.That(t, h.ask(t, "anything"), test.ShouldEqual, "R: ok\n")
	h.stop(t)
}

func TestStationPublishesChanges(t *testing.T) {
	sink := &throttleRecorder{}
	h := startStation(t, fixedRanger{mm: 450}, sink)

	eventually(t, func() { h.clock.Add(tick) }, func() bool {
		return len(sink.Values()) > 0
	})
	for i := 0; i < 3; i++ {
		h.clock.Add(tick)
	}
	test.That(t, sink.Values(), test.ShouldResemble, []uint16{450})
	h.stop(t)
}

func TestStationCLIRegistry(t *testing.T) {
	s := NewStation(StationParams{
		Ranger:   fixedRanger{mm: 12},
		Link:     duplex{},
		Interval: tick,
		Clock:    clk.NewMock(),
		Logger:   golog.NewTestLogger(t),
	})
	s.CLI().Register("ping", func([]string) string { return "pong" })
	test.That(t, s.CLI().Eval("ping"), test.ShouldEqual, "R: pong\n")
	test.That(t, s.Throttle(), test.ShouldEqual, uint16(0))
}
