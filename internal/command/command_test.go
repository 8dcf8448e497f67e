// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.uber.org/goleak"
	"go.viam.com/test"

	"github.com/relabs-tech/sensor_relay/internal/poller"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestConsoleWhoAmI(t *testing.T) {
	c := NewConsole("raw/accelerometer")
	out, ok := c.Handle('w')
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out, test.ShouldEqual, "raw/accelerometer\n")
}

func TestConsoleIgnoresOtherBytes(t *testing.T) {
	c := NewConsole("raw/accelerometer")
	for _, b := range []byte{'W', 'x', ' ', '\n', '\r', 0x00, 0xFF} {
		out, ok := c.Handle(b)
		test.That(t, ok, test.ShouldBeFalse)
		test.That(t, out, test.ShouldBeEmpty)
	}
}

func TestConsoleHelp(t *testing.T) {
	out, ok := NewConsole("imu").Handle('h')
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out, test.ShouldEqual,
		"w: Print the device identity.\nh: Show all available commands and their descriptions.\n")
}

func TestEvalThrottle(t *testing.T) {
	var cell poller.Cell
	cli := NewCLI()
	cli.RegisterThrottle(&cell)

	test.That(t, cli.Eval("getThrottle"), test.ShouldEqual, "R: 0\n")
	cell.Store(312)
	test.That(t, cli.Eval("getThrottle"), test.ShouldEqual, "R: 312\n")
	test.That(t, cli.Eval("  GETTHROTTLE extra args "), test.ShouldEqual, "R: 312\n")

	cell.Store(poller.Sentinel)
	test.That(t, cli.Eval("getThrottle"), test.ShouldEqual, "R: 65535\n")
}

func TestEvalUnknown(t *testing.T) {
	cli := NewCLI()
	cli.RegisterThrottle(&poller.Cell{})
	for _, line := range []string{"setThrottle 10", "reboot", "getThrottl", `say "unterminated`} {
		test.That(t, cli.Eval(line), test.ShouldEqual, "R: ok\n")
	}
	test.That(t, cli.Eval(""), test.ShouldBeEmpty)
	test.That(t, cli.Eval("   \t"), test.ShouldBeEmpty)
}

func TestRegister(t *testing.T) {
	cli := NewCLI()
	cli.Register("echo", func(args []string) string { return strings.Join(args, ",") })
	test.That(t, cli.Eval(`echo a "b c"`), test.ShouldEqual, "R: a,b c\n")
	cli.Register("ECHO", func([]string) string { return "replaced" })
	test.That(t, cli.Eval("echo"), test.ShouldEqual, "R: replaced\n")
}

func TestServeLines(t *testing.T) {
	var cell poller.Cell
	cell.Store(87)
	cli := NewCLI()
	cli.RegisterThrottle(&cell)

	in := strings.NewReader("getThrottle\r\n\nhello\ngetThrottle\n")
	var out bytes.Buffer
	err := ServeLines(context.Background(), in, &out, cli)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, "R: 87\nR: ok\nR: 87\n")
}

func TestServeLinesOverlongLine(t *testing.T) {
	var cell poller.Cell
	cell.Store(42)
	cli := NewCLI()
	cli.RegisterThrottle(&cell)

	noise := strings.Repeat("x", 70000)
	in := strings.NewReader(noise + "\ngetThrottle\n" + strings.Repeat("y", MaxLineLength) + "\r\ngetThrottle\n")
	var out bytes.Buffer
	err := ServeLines(context.Background(), in, &out, cli)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, "R: ok\nR: 42\nR: ok\nR: 42\n")
}

func TestServeLinesLastLineWithoutNewline(t *testing.T) {
	var cell poller.Cell
	cell.Store(7)
	cli := NewCLI()
	cli.RegisterThrottle(&cell)

	var out bytes.Buffer
	err := ServeLines(context.Background(), strings.NewReader("getThrottle"), &out, cli)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, "R: 7\n")
}

func TestServeLinesCancel(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeLines(ctx, pr, io.Discard, NewCLI())
	}()
	cancel()
	test.That(t, <-done, test.ShouldBeError, context.Canceled)
	pw.Close()
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("port closed") }

func TestServeLinesWriteError(t *testing.T) {
	err := ServeLines(context.Background(), strings.NewReader("getThrottle\nmore\n"), brokenWriter{}, NewCLI())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldEqual, "write reply: port closed")
}
