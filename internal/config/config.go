// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration values.
type Config struct {
	// Serial link
	SerialPort     string // empty means process stdin/stdout
	SerialBaudRate int

	// IMU
	IMUBackend   string // "mpu9250" or "mock"
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte
	// Optional BMP280 replacing the MPU9250 die temperature
	TempSPIDevice string

	// Streaming
	IMUSampleInterval int // milliseconds
	OutputFormat      string
	TextPrecision     int
	WhoAmI            string

	// Time-of-flight
	ToFBackend        string // "vl53l1x" or "mock"
	ToFI2CBus         string
	ToFI2CAddr        uint16
	ToFTimeout        int // milliseconds
	ToFSampleInterval int // milliseconds

	// MQTT mirror (optional)
	MQTTBroker    string
	MQTTClientID  string
	TopicIMU      string
	TopicThrottle string

	// Web monitor (optional, 0 disables)
	WebServerPort int

	LogLevel string
}

// Default returns the configuration used when no file overrides a key.
// The constants match the sketches this firmware replaces: 115200 baud,
// ±2g / ±512°/s class ranges, 100 ms ticks, 500 ms ranging timeout.
func Default() *Config {
	return &Config{
		SerialBaudRate:    115200,
		IMUBackend:        "mpu9250",
		IMUSPIDevice:      "/dev/spidev0.0",
		IMUCSPin:          "8",
		IMUAccelRange:     0,
		IMUGyroRange:      1,
		IMUSampleInterval: 100,
		OutputFormat:      "hex",
		TextPrecision:     2,
		WhoAmI:            "raw/accelerometer",
		ToFBackend:        "vl53l1x",
		ToFI2CAddr:        0x29,
		ToFTimeout:        500,
		ToFSampleInterval: 100,
		MQTTClientID:      "sensor-relay",
		TopicIMU:          "sensor/imu",
		TopicThrottle:     "sensor/throttle",
		LogLevel:          "info",
	}
}

// Load reads the configuration file and returns a Config struct.
// Keys missing from the file keep their Default values.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Serial link
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate

	// IMU
	case "IMU_BACKEND":
		c.IMUBackend = value
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)
	case "TEMP_SPI_DEVICE":
		c.TempSPIDevice = value

	// Streaming
	case "IMU_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.IMUSampleInterval = interval
	case "OUTPUT_FORMAT":
		c.OutputFormat = strings.ToLower(value)
	case "TEXT_PRECISION":
		p, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TEXT_PRECISION %q: %w", value, err)
		}
		if p < 0 || p > 9 {
			return fmt.Errorf("TEXT_PRECISION must be 0-9, got %d", p)
		}
		c.TextPrecision = p
	case "WHOAMI":
		c.WhoAmI = value

	// Time-of-flight
	case "TOF_BACKEND":
		c.ToFBackend = value
	case "TOF_I2C_BUS":
		c.ToFI2CBus = value
	case "TOF_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 7)
		if err != nil {
			return fmt.Errorf("invalid TOF_I2C_ADDR %q: %w", value, err)
		}
		c.ToFI2CAddr = uint16(addr)
	case "TOF_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TOF_TIMEOUT_MS %q: %w", value, err)
		}
		c.ToFTimeout = ms
	case "TOF_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TOF_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.ToFSampleInterval = interval

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_THROTTLE":
		c.TopicThrottle = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all values are usable together.
func (c *Config) validate() error {
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive")
	}
	switch c.IMUBackend {
	case "mpu9250":
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required for the mpu9250 backend")
		}
		if c.IMUCSPin == "" {
			return fmt.Errorf("IMU_CS_PIN is required for the mpu9250 backend")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown IMU_BACKEND %q", c.IMUBackend)
	}
	switch c.ToFBackend {
	case "vl53l1x", "mock":
	default:
		return fmt.Errorf("unknown TOF_BACKEND %q", c.ToFBackend)
	}
	if c.OutputFormat != "hex" && c.OutputFormat != "text" {
		return fmt.Errorf("OUTPUT_FORMAT must be hex or text, got %q", c.OutputFormat)
	}
	if c.IMUSampleInterval <= 0 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL must be positive")
	}
	if c.ToFSampleInterval <= 0 {
		return fmt.Errorf("TOF_SAMPLE_INTERVAL must be positive")
	}
	if c.ToFTimeout <= 0 {
		return fmt.Errorf("TOF_TIMEOUT_MS must be positive")
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.WebServerPort)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}
