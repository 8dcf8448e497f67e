// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/relabs-tech/sensor_relay/internal/config"
	"github.com/relabs-tech/sensor_relay/internal/imu"
	"github.com/relabs-tech/sensor_relay/internal/poller"
)

const publishTimeout = 50 * time.Millisecond

// Mirror republishes readings to an MQTT broker. Publishing never blocks the
// serial loops for longer than publishTimeout.
type Mirror struct {
	client        mqtt.Client
	topicIMU      string
	topicThrottle string
	logger        golog.Logger
}

// throttleMsg is the payload on the throttle topic.
type throttleMsg struct {
	MM      uint16 `json:"mm"`
	Timeout bool   `json:"timeout"`
}

// NewMirror connects to cfg.MQTTBroker. It returns nil, nil when no broker
// is configured.
func NewMirror(cfg *config.Config, logger golog.Logger) (*Mirror, error) {
	if cfg.MQTTBroker == "" {
		return nil, nil
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "MQTT connect %s", cfg.MQTTBroker)
	}
	logger.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)
	return newMirror(client, cfg.TopicIMU, cfg.TopicThrottle, logger), nil
}

func newMirror(client mqtt.Client, topicIMU, topicThrottle string, logger golog.Logger) *Mirror {
	return &Mirror{
		client:        client,
		topicIMU:      topicIMU,
		topicThrottle: topicThrottle,
		logger:        logger,
	}
}

func (m *Mirror) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		m.logger.Warnw("json marshal error", "topic", topic, "error", err)
		return
	}
	token := m.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		m.logger.Debugw("MQTT publish still pending", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		m.logger.Warnw("MQTT publish error", "topic", topic, "error", err)
	}
}

func (m *Mirror) PublishReading(r imu.Reading) {
	m.publish(m.topicIMU, r)
}

func (m *Mirror) PublishThrottle(mm uint16) {
	m.publish(m.topicThrottle, throttleMsg{MM: mm, Timeout: mm == poller.Sentinel})
}

// Close disconnects, giving in-flight messages 250ms.
func (m *Mirror) Close() {
	m.client.Disconnect(250)
}
