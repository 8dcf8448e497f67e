// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package report writes IMU readings to the serial link, one line per tick.
package report

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/relabs-tech/sensor_relay/internal/imu"
)

// Format selects the line encoding.
type Format int

const (
	// Hex is "0x" followed by the raw record bytes.
	Hex Format = iota
	// Text is colon-separated decimals.
	Text
)

func (f Format) String() string {
	switch f {
	case Hex:
		return "hex"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// ParseFormat accepts "hex" or "text" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hex":
		return Hex, nil
	case "text":
		return Text, nil
	default:
		return 0, errors.Errorf("unknown output format %q", s)
	}
}

// Reporter encodes readings onto w.
type Reporter struct {
	w         io.Writer
	format    Format
	precision int
	buf       []byte
}

// NewReporter returns a reporter; precision only applies to Text.
func NewReporter(w io.Writer, format Format, precision int) *Reporter {
	return &Reporter{w: w, format: format, precision: precision}
}

// Line returns the encoded line for r, without the newline.
func (rep *Reporter) Line(r imu.Reading) string {
	if rep.format == Text {
		return r.Text(rep.precision)
	}
	return r.Hex()
}

// Report writes one line for r.
func (rep *Reporter) Report(r imu.Reading) error {
	rep.buf = append(append(rep.buf[:0], rep.Line(r)...), '\n')
	if _, err := rep.w.Write(rep.buf); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}
