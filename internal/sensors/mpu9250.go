// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/devices/v3/mpu9250/reg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/sensor_relay/internal/config"
)

var (
	accelRanges = []int{2, 4, 8, 16}
	gyroRanges  = []int{250, 500, 1000, 2000}
)

type mpu9250IMU struct {
	mu     sync.Mutex
	dev    *mpu9250.MPU9250
	therm  *bmpThermometer
	logger golog.Logger

	accelLSB float32 // counts per g
	gyroLSB  float32 // counts per °/s
}

// newMPU9250 initializes an MPU9250 over SPI and, when configured, the BMP280
// used for the temperature channel.
func newMPU9250(cfg *config.Config, logger golog.Logger) (*mpu9250IMU, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "IMU: periph host init")
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		return nil, errors.Errorf("IMU: CS pin %q not found", cfg.IMUCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.IMUSPIDevice, cs)
	if err != nil {
		return nil, errors.Wrapf(err, "IMU: SPI transport (%s)", cfg.IMUSPIDevice)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, errors.Wrap(err, "IMU: device creation")
	}
	if err := dev.Init(); err != nil {
		return nil, errors.Wrap(err, "IMU: initialization")
	}

	if err := dev.SetAccelRange(cfg.IMUAccelRange); err != nil {
		return nil, errors.Wrap(err, "IMU: set accel range")
	}
	logger.Infof("IMU: accelerometer range set to %d (±%dg)", cfg.IMUAccelRange, accelRanges[cfg.IMUAccelRange])

	if err := dev.SetGyroRange(cfg.IMUGyroRange); err != nil {
		return nil, errors.Wrap(err, "IMU: set gyro range")
	}
	logger.Infof("IMU: gyroscope range set to %d (±%d°/s)", cfg.IMUGyroRange, gyroRanges[cfg.IMUGyroRange])

	if err := dev.Calibrate(); err != nil {
		logger.Warnf("IMU: calibration failed: %v", err)
	} else {
		logger.Info("IMU: calibration complete")
	}

	s := &mpu9250IMU{
		dev:      dev,
		logger:   logger,
		accelLSB: accelScale(cfg.IMUAccelRange),
		gyroLSB:  gyroScale(cfg.IMUGyroRange),
	}

	if cfg.TempSPIDevice == "" {
		logger.Info("IMU: temperature from the MPU9250 die sensor")
		return s, nil
	}
	therm, err := newBMPThermometer(cfg.TempSPIDevice)
	if err != nil {
		logger.Errorf("IMU: BMP280 unavailable, using the MPU9250 die sensor: %v", err)
		return s, nil
	}
	logger.Infof("IMU: temperature from BMP280 on %s", cfg.TempSPIDevice)
	s.therm = therm
	return s, nil
}

// accelScale returns counts per g for an accelerometer range setting.
func accelScale(r byte) float32 {
	return float32(int(16384) >> r)
}

// gyroScale returns counts per °/s for a gyroscope range setting.
func gyroScale(r byte) float32 {
	return 131 / float32(int(1)<<r)
}

// chipCelsius converts TEMP_OUT to °C: (raw - room offset) / 333.87 + 21,
// with the room offset taken as 0.
func chipCelsius(raw int16) float32 {
	return float32(raw)/333.87 + 21
}

// rawDataReady reports the RAW_DATA_RDY bit of INT_STATUS.
func rawDataReady(status byte) bool {
	return status&reg.MPU9250_RAW_DATA_RDY_INT_MASK != 0
}

// DataReady reads INT_STATUS. Reading it clears the bit until the chip
// produces the next sample.
func (s *mpu9250IMU) DataReady() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.dev.GetIntStatus()
	if err != nil {
		return false, errors.Wrap(err, "IMU int status")
	}
	return rawDataReady(byte(st)), nil
}

func (s *mpu9250IMU) Acceleration() (float32, float32, float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ax, err := s.dev.GetAccelerationX()
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "IMU accel X")
	}
	ay, err := s.dev.GetAccelerationY()
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "IMU accel Y")
	}
	az, err := s.dev.GetAccelerationZ()
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "IMU accel Z")
	}
	return float32(ax) / s.accelLSB, float32(ay) / s.accelLSB, float32(az) / s.accelLSB, nil
}

func (s *mpu9250IMU) Rotation() (float32, float32, float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gx, err := s.dev.GetRotationX()
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "IMU gyro X")
	}
	gy, err := s.dev.GetRotationY()
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "IMU gyro Y")
	}
	gz, err := s.dev.GetRotationZ()
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "IMU gyro Z")
	}
	return float32(gx) / s.gyroLSB, float32(gy) / s.gyroLSB, float32(gz) / s.gyroLSB, nil
}

// Temperature reads the BMP280 when one is configured, else the die sensor.
func (s *mpu9250IMU) Temperature() (float32, error) {
	if s.therm != nil {
		return s.therm.Celsius()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.dev.GetTemperature()
	if err != nil {
		return 0, errors.Wrap(err, "IMU temperature")
	}
	return chipCelsius(int16(raw)), nil
}

func (s *mpu9250IMU) Close() error {
	if s.therm == nil {
		return nil
	}
	return s.therm.Close()
}
