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

package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

// sineSamples returns n timestamped samples of a distance oscillating around
// 1500mm at freq Hz, sampled at rate Hz.
func sineSamples(n int, rate, freq float64) []teraranger.Sample {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]teraranger.Sample, n)
	for i := range out {
		t := float64(i) / rate
		raw := uint16(1500 + 200*math.Sin(2*math.Pi*freq*t))
		out[i] = teraranger.NewSample(raw)
		out[i].CapturedAt = base.Add(time.Duration(t * float64(time.Second)))
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int
		rate float64
		freq float64
	}{
		{name: "breathing_quarter_hertz", n: 400, rate: 10, freq: 0.25},
		{name: "vibration_five_hertz", n: 1000, rate: 100, freq: 5},
		{name: "evo_rate", n: 2400, rate: 240, freq: 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			values := Values(sineSamples(tt.n, tt.rate, tt.freq))
			got, err := DominantFrequency(values, tt.rate)
			require.NoError(t, err)
			assert.InDelta(t, tt.freq, got, tt.rate/float64(tt.n))
		})
	}
}

func TestDominantFrequencyErrors(t *testing.T) {
	t.Parallel()

	_, err := DominantFrequency([]float64{1, 2, 3}, 10)
	require.ErrorIs(t, err, ErrTooFewSamples)

	_, err = DominantFrequency([]float64{1, 2, 3, 4}, 0)
	require.Error(t, err)

	got, err := DominantFrequency([]float64{7, 7, 7, 7, 7, 7}, 10)
	require.NoError(t, err)
	assert.Zero(t, got, "a flat series has no oscillation")
}

func TestSampleRate(t *testing.T) {
	t.Parallel()

	rate, err := SampleRate(sineSamples(101, 50, 1))
	require.NoError(t, err)
	assert.InDelta(t, 50, rate, 0.01)

	_, err = SampleRate([]teraranger.Sample{teraranger.NewSample(1), teraranger.NewSample(2)})
	require.ErrorIs(t, err, ErrNoTimestamps)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	samples := []teraranger.Sample{
		teraranger.NewSample(1000),
		teraranger.NewSample(0x0000),
		teraranger.NewSample(2000),
		teraranger.NewSample(0x0001),
		teraranger.NewSample(0xFFFF),
		teraranger.NewSample(3000),
	}

	st := Summarize(samples)
	assert.Equal(t, 6, st.Count)
	assert.Equal(t, 3, st.Measurements)
	assert.Equal(t, 1, st.TooClose)
	assert.Equal(t, 1, st.NoReading)
	assert.Equal(t, 1, st.TooFar)
	assert.InDelta(t, 2000, st.Mean, 1e-9)
	assert.InDelta(t, 1000, st.StdDev, 1e-9)
	assert.InDelta(t, 1000, st.Min, 1e-9)
	assert.InDelta(t, 3000, st.Max, 1e-9)

	single := Summarize([]teraranger.Sample{teraranger.NewSample(42)})
	assert.Zero(t, single.StdDev)

	empty := Summarize(nil)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.Mean)
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	r, err := Analyze(sineSamples(600, 20, 0.5))
	require.NoError(t, err)
	assert.InDelta(t, 20, r.RateHz, 0.05)
	assert.InDelta(t, 0.5, r.DominantHz, 20.0/600)
	assert.InDelta(t, 30, r.PerMinute(), 2)
	assert.Contains(t, r.String(), "per minute")

	_, err = Analyze([]teraranger.Sample{teraranger.NewSample(5)})
	require.ErrorIs(t, err, ErrNoTimestamps)
}
