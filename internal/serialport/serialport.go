// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package serialport opens the device side of the serial link.
package serialport

import (
	"io"
	"os"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"
)

// Open opens port at baud, 8N1. An empty port name returns the process
// stdin/stdout, which is how the tools run on a host without a UART.
func Open(port string, baud int) (io.ReadWriteCloser, error) {
	if port == "" {
		return Stdio(), nil
	}

	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	dev, err := serial.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", port)
	}
	return dev, nil
}

type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

// Stdio returns a link over os.Stdin and os.Stdout. Close is a no-op.
func Stdio() io.ReadWriteCloser {
	return stdio{Reader: os.Stdin, Writer: os.Stdout}
}
