// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
)

// bmpThermometer reads temperature from a BMP280 over SPI.
type bmpThermometer struct {
	port spi.PortCloser
	dev  *bmxx80.Dev
}

func newBMPThermometer(spiDev string) (*bmpThermometer, error) {
	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, errors.Wrapf(err, "BMP SPI open (%s)", spiDev)
	}
	dev, err := bmxx80.NewSPI(port, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "BMP init"), port.Close())
	}
	return &bmpThermometer{port: port, dev: dev}, nil
}

// Celsius takes one forced measurement.
func (b *bmpThermometer) Celsius() (float32, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return 0, errors.Wrap(err, "BMP sense")
	}
	return float32(e.Temperature.Celsius()), nil
}

func (b *bmpThermometer) Close() error {
	return multierr.Combine(b.dev.Halt(), b.port.Close())
}
