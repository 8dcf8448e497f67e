// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/relabs-tech/sensor_relay/internal/config"
	"github.com/relabs-tech/sensor_relay/internal/report"
	"github.com/relabs-tech/sensor_relay/internal/sensors"
	"github.com/relabs-tech/sensor_relay/internal/serialport"
)

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// outputs starts the optional MQTT mirror and web monitor. The returned
// cleanup disconnects the mirror.
func outputs(ctx context.Context, cfg *config.Config, logger golog.Logger) (*Mirror, *Monitor, func(), error) {
	mirror, err := NewMirror(cfg, logger.Named("mqtt"))
	if err != nil {
		return nil, nil, nil, err
	}
	var monitor *Monitor
	if cfg.WebServerPort != 0 {
		monitor = NewMonitor(logger.Named("web"))
		go func() {
			if err := monitor.ListenAndServe(ctx, cfg.WebServerPort); err != nil {
				logger.Errorw("web monitor stopped", "error", err)
			}
		}()
	}
	cleanup := func() {
		if mirror != nil {
			mirror.Close()
		}
	}
	return mirror, monitor, cleanup, nil
}

// RunIMUStreamer streams IMU readings over the configured serial link until
// ctx is done. A sensor that fails to initialize is logged and the stream
// continues with its last known reading.
func RunIMUStreamer(ctx context.Context, cfg *config.Config, logger golog.Logger) (err error) {
	logger.Info("Starting up")

	format, err := report.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return err
	}

	link, err := serialport.Open(cfg.SerialPort, cfg.SerialBaudRate)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Combine(err, link.Close()) }()

	dev, imuErr := sensors.NewIMU(cfg, logger.Named("imu"))
	if imuErr != nil {
		logger.Errorw("IMU init failed", "error", imuErr)
		dev = nil
	} else {
		defer func() { err = multierr.Combine(err, dev.Close()) }()
	}

	mirror, monitor, cleanup, err := outputs(ctx, cfg, logger)
	if err != nil {
		return errors.Wrap(err, "outputs")
	}
	defer cleanup()

	var sinks []ReadingSink
	if mirror != nil {
		sinks = append(sinks, mirror)
	}
	if monitor != nil {
		sinks = append(sinks, monitor)
	}

	d := NewDevice(DeviceParams{
		IMU:       dev,
		Link:      link,
		Format:    format,
		Precision: cfg.TextPrecision,
		WhoAmI:    cfg.WhoAmI,
		Interval:  millis(cfg.IMUSampleInterval),
		Logger:    logger,
		Sinks:     sinks,
	})
	logger.Infof("Running IMU streamer (%s output)", format)
	return d.Run(ctx)
}

// RunThrottleSensor samples the distance sensor and serves the command line
// over the configured serial link until ctx is done or the link closes.
func RunThrottleSensor(ctx context.Context, cfg *config.Config, logger golog.Logger) (err error) {
	logger.Info("Starting up")

	link, err := serialport.Open(cfg.SerialPort, cfg.SerialBaudRate)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Combine(err, link.Close()) }()

	ranger, rangerErr := sensors.NewRanger(cfg, logger.Named("tof"))
	if rangerErr != nil {
		logger.Errorw("ToF init failed", "error", rangerErr)
		ranger = nil
	} else {
		defer func() { err = multierr.Combine(err, ranger.Close()) }()
	}

	mirror, monitor, cleanup, err := outputs(ctx, cfg, logger)
	if err != nil {
		return errors.Wrap(err, "outputs")
	}
	defer cleanup()

	var sinks []ThrottleSink
	if mirror != nil {
		sinks = append(sinks, mirror)
	}
	if monitor != nil {
		sinks = append(sinks, monitor)
	}

	s := NewStation(StationParams{
		Ranger:   ranger,
		Link:     link,
		Interval: millis(cfg.ToFSampleInterval),
		Logger:   logger,
		Sinks:    sinks,
	})
	logger.Info("Running throttle sensor")
	return s.Run(ctx)
}
