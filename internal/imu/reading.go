// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Size is the byte size of an encoded Reading: seven float32 fields.
const Size = 7 * 4

// Reading represents a single IMU sample as streamed over the serial link.
// Field order is the wire order of the hex dump.
type Reading struct {
	Yaw   float32 `json:"yaw"` // gyro
	Pitch float32 `json:"pitch"`
	Roll  float32 `json:"roll"`

	DeltaYaw   float32 `json:"delta_yaw"` // accel
	DeltaPitch float32 `json:"delta_pitch"`
	DeltaRoll  float32 `json:"delta_roll"`

	Temperature float32 `json:"temp_c"`
}

// fields returns the values in wire order.
func (r Reading) fields() [7]float32 {
	return [7]float32{r.Yaw, r.Pitch, r.Roll, r.DeltaYaw, r.DeltaPitch, r.DeltaRoll, r.Temperature}
}

// MarshalBinary encodes the reading as little-endian IEEE 754 floats, the
// in-memory layout of the record on the microcontrollers this format came from.
func (r Reading) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(make([]byte, 0, Size)), nil
}

// AppendBinary appends the encoded reading to b.
func (r Reading) AppendBinary(b []byte) []byte {
	for _, f := range r.fields() {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

// UnmarshalBinary decodes a reading produced by MarshalBinary.
func (r *Reading) UnmarshalBinary(b []byte) error {
	if len(b) != Size {
		return fmt.Errorf("imu reading: want %d bytes, got %d", Size, len(b))
	}
	var f [7]float32
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	*r = Reading{
		Yaw:         f[0],
		Pitch:       f[1],
		Roll:        f[2],
		DeltaYaw:    f[3],
		DeltaPitch:  f[4],
		DeltaRoll:   f[5],
		Temperature: f[6],
	}
	return nil
}

// ParseHex decodes a line produced by Hex.
func ParseHex(s string) (Reading, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(s), "0x")
	if !ok {
		return Reading{}, fmt.Errorf("imu reading: missing 0x prefix in %q", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Reading{}, fmt.Errorf("imu reading: %w", err)
	}
	var r Reading
	if err := r.UnmarshalBinary(b); err != nil {
		return Reading{}, err
	}
	return r, nil
}

// Hex returns "0x" followed by the lowercase hex dump of the encoded reading.
func (r Reading) Hex() string {
	var raw [Size]byte
	enc := r.AppendBinary(raw[:0])
	return "0x" + hex.EncodeToString(enc)
}

// Text returns the colon-separated decimal form:
// delta_yaw:delta_pitch:delta_roll:yaw:pitch:roll:temperature
func (r Reading) Text(precision int) string {
	vals := [7]float32{r.DeltaYaw, r.DeltaPitch, r.DeltaRoll, r.Yaw, r.Pitch, r.Roll, r.Temperature}
	var sb strings.Builder
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', precision, 32))
	}
	return sb.String()
}
