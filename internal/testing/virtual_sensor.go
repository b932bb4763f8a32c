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

package testing

import (
	"math"
	"math/rand/v2"

	"github.com/ZaparooProject/go-teraranger/internal/frame"
)

// VirtualSensor generates the byte stream of a simulated Evo looking at a
// target that oscillates around a base distance.
type VirtualSensor struct {
	rng *rand.Rand
	// Table checksums the frames; nil means SMBus
	Table *frame.Table
	// Base is the mean distance in millimetres
	Base float64
	// Amplitude of the oscillation in millimetres
	Amplitude float64
	// Frequency of the oscillation in Hz
	Frequency float64
	// Rate is the frame rate in Hz
	Rate float64
	// NoiseRate is the probability that a frame gets one random byte flipped
	NoiseRate float64
	tick      int
}

// NewVirtualSensor creates a sensor with a deterministic noise source
func NewVirtualSensor(seed uint64) *VirtualSensor {
	return &VirtualSensor{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		Base:      1500,
		Amplitude: 100,
		Frequency: 0.25,
		Rate:      100,
	}
}

// NextRaw returns the distance code of the next frame without encoding it
func (v *VirtualSensor) NextRaw() uint16 {
	t := float64(v.tick) / v.Rate
	v.tick++
	d := v.Base + v.Amplitude*math.Sin(2*math.Pi*v.Frequency*t)
	switch {
	case d <= 0:
		return frame.RawTooClose
	case d >= float64(frame.RawTooFar):
		return frame.RawTooFar
	}
	raw := uint16(math.Round(d))
	if raw == frame.RawNoReading {
		raw = 2
	}
	return raw
}

// Frames returns n consecutive frames and the raw codes they carry. Frames
// hit by noise are still included in the stream; their codes are reported
// as they were before corruption.
func (v *VirtualSensor) Frames(n int) (stream []byte, raws []uint16) {
	table := v.Table
	if table == nil {
		table = frame.SMBus
	}

	stream = make([]byte, 0, n*frame.Size)
	raws = make([]uint16, 0, n)
	for range n {
		raw := v.NextRaw()
		f := frame.Encode(raw, table)
		if v.NoiseRate > 0 && v.rng.Float64() < v.NoiseRate {
			f[v.rng.IntN(frame.Size)] ^= byte(1 << v.rng.IntN(8))
		}
		stream = append(stream, f[:]...)
		raws = append(raws, raw)
	}
	return stream, raws
}
