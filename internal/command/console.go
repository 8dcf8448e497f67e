// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package command implements the two serial command surfaces: the
// single-byte console of the IMU streamer and the line protocol of the
// throttle sensor.
package command

import (
	"strings"
)

// ConsoleCommand is a single-byte command with no input.
type ConsoleCommand struct {
	Flag        byte
	Run         func() string
	Description string
}

// Console dispatches single bytes read from the serial link.
type Console struct {
	commands []*ConsoleCommand
	cmdMap   map[byte]*ConsoleCommand
}

// NewConsole returns a console answering 'w' with whoami and 'h' with the
// command list. Every other byte is ignored.
func NewConsole(whoami string) *Console {
	c := &Console{cmdMap: map[byte]*ConsoleCommand{}}
	c.add(&ConsoleCommand{
		Flag:        'w',
		Run:         func() string { return whoami + "\n" },
		Description: "Print the device identity.",
	})
	c.add(&ConsoleCommand{
		Flag:        'h',
		Run:         c.help,
		Description: "Show all available commands and their descriptions.",
	})
	return c
}

func (c *Console) add(cmd *ConsoleCommand) {
	c.commands = append(c.commands, cmd)
	c.cmdMap[cmd.Flag] = cmd
}

func (c *Console) help() string {
	var sb strings.Builder
	for _, cmd := range c.commands {
		sb.WriteByte(cmd.Flag)
		sb.WriteString(": ")
		sb.WriteString(cmd.Description)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Handle runs the command for b. The bool is false when b is not a command.
func (c *Console) Handle(b byte) (string, bool) {
	cmd, ok := c.cmdMap[b]
	if !ok {
		return "", false
	}
	return cmd.Run(), true
}
