// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package command

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/google/shlex"
	"github.com/pkg/errors"

	"github.com/relabs-tech/sensor_relay/internal/poller"
)

// Ack is the value answered by every command without a registered handler.
const Ack = "ok"

// Handler answers a command. The returned value is sent as "R: <value>".
type Handler func(args []string) string

// CLI is the line protocol of the throttle sensor. Command names match
// case-insensitively.
type CLI struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewCLI() *CLI {
	return &CLI{handlers: map[string]Handler{}}
}

// Register adds or replaces the handler for name.
func (c *CLI) Register(name string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[strings.ToLower(name)] = h
}

// RegisterThrottle answers getThrottle with the current distance in cell.
func (c *CLI) RegisterThrottle(cell *poller.Cell) {
	c.Register("getThrottle", func([]string) string {
		return strconv.Itoa(int(cell.Load()))
	})
}

// Eval runs one command line and returns the reply including the trailing
// newline. Blank lines get no reply. Unknown and malformed commands are
// acknowledged with "R: ok".
func (c *CLI) Eval(line string) string {
	args, err := shlex.Split(line)
	if err != nil {
		return reply(Ack)
	}
	if len(args) == 0 {
		return ""
	}

	c.mu.RLock()
	h, ok := c.handlers[strings.ToLower(args[0])]
	c.mu.RUnlock()
	if !ok {
		return reply(Ack)
	}
	return reply(h(args[1:]))
}

func reply(v string) string {
	return "R: " + v + "\n"
}

// MaxLineLength is the longest command line ServeLines evaluates. Longer
// lines are discarded and acknowledged with "R: ok".
const MaxLineLength = 1024

// ServeLines evaluates every line read from r and writes the reply to w
// before reading the next one. It returns nil at EOF, ctx.Err() when ctx is
// done, or the first read or write error.
func ServeLines(ctx context.Context, r io.Reader, w io.Writer, cli *CLI) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type inputLine struct {
		text     string
		overlong bool
	}
	lines := make(chan inputLine)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		br := bufio.NewReaderSize(r, MaxLineLength)
		overlong := false
		for {
			chunk, isPrefix, err := br.ReadLine()
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				errc <- err
				return
			}
			if isPrefix {
				overlong = true
				continue
			}
			in := inputLine{text: string(chunk), overlong: overlong}
			overlong = false
			select {
			case lines <- in:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					if err != nil {
						return errors.Wrap(err, "read command")
					}
					return nil
				default:
					return ctx.Err()
				}
			}
			out := reply(Ack)
			if !in.overlong {
				out = cli.Eval(strings.TrimSuffix(in.text, "\r"))
			}
			if out == "" {
				continue
			}
			if _, err := io.WriteString(w, out); err != nil {
				return errors.Wrap(err, "write reply")
			}
		}
	}
}
