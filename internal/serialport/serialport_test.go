// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestOpenMissingPort(t *testing.T) {
	port := filepath.Join(t.TempDir(), "ttyUSB9")
	_, err := Open(port, 115200)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "open serial port "+port)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no such")
}

func TestOpenStdio(t *testing.T) {
	link, err := Open("", 115200)
	test.That(t, err, test.ShouldBeNil)
	rw, ok := link.(stdio)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, rw.Reader, test.ShouldEqual, os.Stdin)
	test.That(t, rw.Writer, test.ShouldEqual, os.Stdout)
	test.That(t, link.Close(), test.ShouldBeNil)
}
