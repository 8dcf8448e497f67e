// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"sync"
	"time"

	clk "github.com/benbjohnson/clock"
)

// MockIMU generates smoothly changing motion for bench runs without hardware.
type MockIMU struct {
	clock clk.Clock
	start time.Time

	mu            sync.Mutex
	notReadyEvery int
	polls         int
}

// NewMockIMU creates a mock IMU. When notReadyEvery > 0, every
// notReadyEvery-th call to DataReady reports false.
func NewMockIMU(clock clk.Clock, notReadyEvery int) *MockIMU {
	return &MockIMU{clock: clock, start: clock.Now(), notReadyEvery: notReadyEvery}
}

func (m *MockIMU) elapsed() float64 {
	return m.clock.Since(m.start).Seconds()
}

func (m *MockIMU) DataReady() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls++
	if m.notReadyEvery > 0 && m.polls%m.notReadyEvery == 0 {
		return false, nil
	}
	return true, nil
}

// Acceleration tilts a 1g gravity vector slowly around X and Y.
func (m *MockIMU) Acceleration() (float32, float32, float32, error) {
	t := m.elapsed()
	x := 0.2 * math.Sin(t)
	y := 0.15 * math.Cos(t*0.7)
	z := math.Sqrt(1 - x*x - y*y)
	return float32(x), float32(y), float32(z), nil
}

func (m *MockIMU) Rotation() (float32, float32, float32, error) {
	t := m.elapsed()
	return float32(20 * math.Cos(t)), float32(-10.5 * math.Sin(t*0.7)), 30, nil
}

// Temperature drifts half a degree around 25°C over a few minutes.
func (m *MockIMU) Temperature() (float32, error) {
	return float32(25 + 0.5*math.Sin(m.elapsed()/60)), nil
}

func (m *MockIMU) Close() error {
	return nil
}

// MockRanger sweeps a target between 100mm and 1200mm and back.
type MockRanger struct {
	clock clk.Clock
	start time.Time

	mu           sync.Mutex
	timeoutEvery int
	reads        int
}

// NewMockRanger creates a mock ranger. When timeoutEvery > 0, every
// timeoutEvery-th read fails with ErrTimeout.
func NewMockRanger(clock clk.Clock, timeoutEvery int) *MockRanger {
	return &MockRanger{clock: clock, start: clock.Now(), timeoutEvery: timeoutEvery}
}

const (
	mockRangeMin    = 100
	mockRangeMax    = 1200
	mockSweepPeriod = 4 * time.Second
)

func (m *MockRanger) ReadRange() (uint16, error) {
	m.mu.Lock()
	m.reads++
	n := m.reads
	m.mu.Unlock()
	if m.timeoutEvery > 0 && n%m.timeoutEvery == 0 {
		return 0, ErrTimeout
	}

	phase := float64(m.clock.Since(m.start)%mockSweepPeriod) / float64(mockSweepPeriod)
	tri := 1 - math.Abs(2*phase-1) // 0 -> 1 -> 0
	return uint16(mockRangeMin + tri*(mockRangeMax-mockRangeMin)), nil
}

func (m *MockRanger) Close() error {
	return nil
}
