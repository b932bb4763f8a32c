// go-teraranger
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-teraranger.
//
// go-teraranger is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-teraranger is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-teraranger; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package teraranger

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ZaparooProject/go-teraranger/internal/frame"
)

// FrameSize is the length of one distance frame on the wire
const FrameSize = frame.Size

// Header is the first byte of every distance frame
const Header = frame.Header

// Frame is one candidate window read from the stream:
// [header, distance low, distance high, crc].
type Frame [FrameSize]byte

// RawCode returns the little-endian distance field (byte2<<8 | byte1)
func (f Frame) RawCode() uint16 {
	return uint16(f[frame.OffsetHigh])<<8 | uint16(f[frame.OffsetLow])
}

// String returns the frame as hex bytes
func (f Frame) String() string {
	return fmt.Sprintf("% X", f[:])
}

// Classification says how a raw distance code is to be read
type Classification uint8

const (
	// Measurement is a literal distance in millimetres
	Measurement Classification = iota
	// NegativeInfinity means the target is closer than the minimum range
	NegativeInfinity
	// NegativeOne means the sensor could not measure
	NegativeOne
	// PositiveInfinity means the target is beyond the maximum range
	PositiveInfinity
)

// String returns the name of the classification
func (c Classification) String() string {
	switch c {
	case Measurement:
		return "measurement"
	case NegativeInfinity:
		return "-inf"
	case NegativeOne:
		return "-1"
	case PositiveInfinity:
		return "+inf"
	default:
		return "Classification(" + strconv.Itoa(int(c)) + ")"
	}
}

// Classify maps a raw distance code to its classification
func Classify(raw uint16) Classification {
	switch raw {
	case frame.RawTooClose:
		return NegativeInfinity
	case frame.RawNoReading:
		return NegativeOne
	case frame.RawTooFar:
		return PositiveInfinity
	default:
		return Measurement
	}
}

// Sample is a validated distance reading. CapturedAt is the zero time unless
// timestamps were requested.
type Sample struct {
	CapturedAt time.Time
	Raw        uint16
	Class      Classification
}

// NewSample builds a sample from a raw code
func NewSample(raw uint16) Sample {
	return Sample{Raw: raw, Class: Classify(raw)}
}

// Millimeters returns the distance and true for measurements, zero and false
// for sentinel codes.
func (s Sample) Millimeters() (uint16, bool) {
	if s.Class != Measurement {
		return 0, false
	}
	return s.Raw, true
}

// Meters returns the distance in metres. Sentinels map to -Inf (too close),
// NaN (no reading) and +Inf (too far).
func (s Sample) Meters() float64 {
	switch s.Class {
	case NegativeInfinity:
		return math.Inf(-1)
	case NegativeOne:
		return math.NaN()
	case PositiveInfinity:
		return math.Inf(1)
	default:
		return float64(s.Raw) / 1000.0
	}
}

// HasTimestamp reports whether CapturedAt is set
func (s Sample) HasTimestamp() bool {
	return !s.CapturedAt.IsZero()
}

// String formats the sample the way the sensor's console tools print it
func (s Sample) String() string {
	if s.Class == Measurement {
		return strconv.Itoa(int(s.Raw))
	}
	return s.Class.String()
}
