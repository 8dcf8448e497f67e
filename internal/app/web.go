// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/sensor_relay/internal/imu"
	"github.com/relabs-tech/sensor_relay/internal/poller"
)

const wsWriteTimeout = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Message is what the monitor pushes over /ws.
type Message struct {
	Type     string       `json:"type"` // "snapshot", "imu" or "throttle"
	IMU      *imu.Reading `json:"imu,omitempty"`
	Throttle *uint16      `json:"throttle,omitempty"`
}

type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

// Monitor serves the latest readings over HTTP and streams updates to
// websocket clients.
type Monitor struct {
	logger golog.Logger

	mu       sync.RWMutex
	reading  *imu.Reading
	throttle *uint16
	clients  map[*wsClient]struct{}
}

func NewMonitor(logger golog.Logger) *Monitor {
	return &Monitor{logger: logger, clients: map[*wsClient]struct{}{}}
}

func (m *Monitor) PublishReading(r imu.Reading) {
	m.mu.Lock()
	m.reading = &r
	m.mu.Unlock()
	m.broadcast(Message{Type: "imu", IMU: &r})
}

func (m *Monitor) PublishThrottle(mm uint16) {
	m.mu.Lock()
	m.throttle = &mm
	m.mu.Unlock()
	m.broadcast(Message{Type: "throttle", Throttle: &mm})
}

func (m *Monitor) snapshot() Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Message{Type: "snapshot", IMU: m.reading, Throttle: m.throttle}
}

func (m *Monitor) broadcast(msg Message) {
	m.mu.RLock()
	clients := make([]*wsClient, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			m.logger.Debugw("websocket send failed, dropping client", "error", err)
			m.drop(c)
		}
	}
}

func (m *Monitor) drop(c *wsClient) {
	m.mu.Lock()
	_, ok := m.clients[c]
	delete(m.clients, c)
	m.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Handler serves /api/imu, /api/throttle and /ws.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/imu", func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		reading := m.reading
		m.mu.RUnlock()
		if reading == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		m.writeJSON(w, reading)
	})
	mux.HandleFunc("/api/throttle", func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		throttle := m.throttle
		m.mu.RUnlock()
		if throttle == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		m.writeJSON(w, throttleMsg{MM: *throttle, Timeout: *throttle == poller.Sentinel})
	})
	mux.HandleFunc("/ws", m.handleWS)
	return mux
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.logger.Warnw("json encode error", "error", err)
	}
}

func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warnw("websocket upgrade error", "error", err)
		return
	}
	c := &wsClient{conn: conn}

	m.mu.Lock()
	m.clients[c] = struct{}{}
	m.mu.Unlock()
	defer m.drop(c)

	if err := c.send(m.snapshot()); err != nil {
		return
	}
	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debugw("websocket error", "error", err)
			}
			return
		}
	}
}

// ListenAndServe serves Handler on port until ctx is done.
func (m *Monitor) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	m.logger.Infof("web monitor listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
