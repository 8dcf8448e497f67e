// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/relabs-tech/sensor_relay/internal/imu"
)

// pipeLink feeds Read from a pipe and collects everything written.
type pipeLink struct {
	r *io.PipeReader

	mu  sync.Mutex
	out bytes.Buffer
}

func newPipeLink() (*pipeLink, *io.PipeWriter) {
	r, w := io.Pipe()
	return &pipeLink{r: r}, w
}

func (l *pipeLink) Read(p []byte) (int, error) {
	return l.r.Read(p)
}

func (l *pipeLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Write(p)
}

func (l *pipeLink) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.String()
}

// eventually retries cond, calling step between attempts, for up to a second.
func eventually(t *testing.T, step func(), cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		if step != nil {
			step()
		}
		time.Sleep(time.Millisecond)
	}
}

type readingRecorder struct {
	mu       sync.Mutex
	readings []imu.Reading
}

func (r *readingRecorder) PublishReading(v imu.Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, v)
}

func (r *readingRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.readings)
}

type throttleRecorder struct {
	mu     sync.Mutex
	values []uint16
}

func (r *throttleRecorder) PublishThrottle(v uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *throttleRecorder) Values() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint16(nil), r.values...)
}
