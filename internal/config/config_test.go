// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, Default())
	test.That(t, cfg.WhoAmI, test.ShouldEqual, "raw/accelerometer")
	test.That(t, cfg.ToFTimeout, test.ShouldEqual, 500)
	test.That(t, cfg.IMUSampleInterval, test.ShouldEqual, 100)
}

func TestParseOverrides(t *testing.T) {
	in := `
# bench setup without hardware
IMU_BACKEND=mock
TOF_BACKEND = mock
OUTPUT_FORMAT=TEXT
TEXT_PRECISION=3
TOF_I2C_ADDR=0x30
SERIAL_PORT=/dev/ttyUSB0
MQTT_BROKER=tcp://localhost:1883
WEB_SERVER_PORT=8080
LOG_LEVEL=DEBUG
`
	cfg, err := Parse(strings.NewReader(in))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.IMUBackend, test.ShouldEqual, "mock")
	test.That(t, cfg.ToFBackend, test.ShouldEqual, "mock")
	test.That(t, cfg.OutputFormat, test.ShouldEqual, "text")
	test.That(t, cfg.TextPrecision, test.ShouldEqual, 3)
	test.That(t, cfg.ToFI2CAddr, test.ShouldEqual, uint16(0x30))
	test.That(t, cfg.SerialPort, test.ShouldEqual, "/dev/ttyUSB0")
	test.That(t, cfg.MQTTBroker, test.ShouldEqual, "tcp://localhost:1883")
	test.That(t, cfg.WebServerPort, test.ShouldEqual, 8080)
	test.That(t, cfg.LogLevel, test.ShouldEqual, "debug")
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		in  string
		msg string
	}{
		{"NOT A PAIR", "invalid config line 1"},
		{"\nFOO=bar", "config line 2: unknown config key: \"FOO\""},
		{"IMU_ACCEL_RANGE=4", "IMU_ACCEL_RANGE must be 0-3"},
		{"IMU_GYRO_RANGE=x", "invalid IMU_GYRO_RANGE"},
		{"TOF_I2C_ADDR=0x80", "invalid TOF_I2C_ADDR"},
		{"IMU_BACKEND=qmi8658", "unknown IMU_BACKEND"},
		{"TOF_BACKEND=sonar", "unknown TOF_BACKEND"},
		{"OUTPUT_FORMAT=json", "OUTPUT_FORMAT must be hex or text"},
		{"IMU_SAMPLE_INTERVAL=0", "IMU_SAMPLE_INTERVAL must be positive"},
		{"TOF_TIMEOUT_MS=-1", "TOF_TIMEOUT_MS must be positive"},
		{"IMU_SPI_DEVICE=", "IMU_SPI_DEVICE is required"},
		{"LOG_LEVEL=trace", "unknown LOG_LEVEL"},
	} {
		_, err := Parse(strings.NewReader(tc.in))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
	}
}

func TestLoad(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to open config file")

	path := filepath.Join(t.TempDir(), "sensor_config.txt")
	test.That(t, os.WriteFile(path, []byte("IMU_SAMPLE_INTERVAL=20\n"), 0o600), test.ShouldBeNil)
	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.IMUSampleInterval, test.ShouldEqual, 20)
}
