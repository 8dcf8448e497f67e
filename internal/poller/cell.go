// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package poller

import "go.uber.org/atomic"

// Sentinel is stored in place of a distance when the sensor timed out or failed.
const Sentinel uint16 = 0xFFFF

// Cell holds the latest distance in millimetres. One writer, many readers.
type Cell struct {
	v atomic.Uint32
}

// Store publishes mm to readers.
func (c *Cell) Store(mm uint16) {
	c.v.Store(uint32(mm))
}

// Load returns the latest stored distance, 0 before the first Store.
func (c *Cell) Load() uint16 {
	return uint16(c.v.Load())
}
