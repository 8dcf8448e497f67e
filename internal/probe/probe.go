// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package probe talks to a running device from the host side of the serial link.
package probe

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// Port is a serial port whose reads give up after a timeout.
type Port interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
}

// Open opens a host serial port at baud, 8N1.
func Open(name string, baud int) (serial.Port, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	return p, nil
}

// Exchange writes cmd and returns the first want complete lines received
// within timeout, without line terminators. Fewer lines are returned with an
// error when the deadline passes first.
func Exchange(p Port, cmd string, want int, timeout time.Duration) ([]string, error) {
	var lines []string
	err := exchange(p, cmd, timeout, func(line string) bool {
		lines = append(lines, line)
		return len(lines) >= want
	})
	if err != nil {
		return lines, errors.Wrapf(err, "got %d of %d lines", len(lines), want)
	}
	return lines, nil
}

// Expect writes cmd and returns the first line starting with prefix. Other
// lines, such as a running data stream, are skipped.
func Expect(p Port, cmd, prefix string, timeout time.Duration) (string, error) {
	var found string
	err := exchange(p, cmd, timeout, func(line string) bool {
		if strings.HasPrefix(line, prefix) {
			found = line
			return true
		}
		return false
	})
	if err != nil {
		return "", errors.Wrapf(err, "no line starting with %q", prefix)
	}
	return found, nil
}

var errDeadline = errors.New("deadline exceeded")

func exchange(p Port, cmd string, timeout time.Duration, done func(string) bool) error {
	if _, err := io.WriteString(p, cmd); err != nil {
		return errors.Wrap(err, "write")
	}

	var pending []byte
	buf := make([]byte, 256)
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errDeadline
		}
		if err := p.SetReadTimeout(remaining); err != nil {
			return errors.Wrap(err, "set read timeout")
		}
		n, err := p.Read(buf)
		pending = append(pending, buf[:n]...)
		for {
			i := strings.IndexByte(string(pending), '\n')
			if i < 0 {
				break
			}
			line := strings.TrimRight(string(pending[:i]), "\r")
			pending = pending[i+1:]
			if done(line) {
				return nil
			}
		}
		if err != nil {
			return errors.Wrap(err, "read")
		}
	}
}
