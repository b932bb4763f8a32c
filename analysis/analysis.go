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

// Package analysis computes statistics and the dominant oscillation
// frequency of a distance series, e.g. for breathing or vibration monitoring.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

// Analysis errors
var (
	ErrTooFewSamples = errors.New("not enough samples")
	ErrNoTimestamps  = errors.New("samples carry no usable timestamps")
)

// minSpectrumLen is the shortest series a spectrum is computed for
const minSpectrumLen = 4

// Stats summarizes a sample series
type Stats struct {
	Count        int
	Measurements int
	TooClose     int
	NoReading    int
	TooFar       int
	// The following are over measurements only, in millimetres
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize counts classifications and computes moments of the measurements
func Summarize(samples []teraranger.Sample) Stats {
	st := Stats{Count: len(samples)}
	for _, s := range samples {
		switch s.Class {
		case teraranger.Measurement:
			st.Measurements++
		case teraranger.NegativeInfinity:
			st.TooClose++
		case teraranger.NegativeOne:
			st.NoReading++
		case teraranger.PositiveInfinity:
			st.TooFar++
		}
	}

	values := Values(samples)
	if len(values) == 0 {
		return st
	}
	st.Mean, st.StdDev = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		st.StdDev = 0
	}
	st.Min = floats.Min(values)
	st.Max = floats.Max(values)
	return st
}

// Values returns the measurements in millimetres, skipping sentinels
func Values(samples []teraranger.Sample) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if mm, ok := s.Millimeters(); ok {
			out = append(out, float64(mm))
		}
	}
	return out
}

// SampleRate estimates samples per second from capture timestamps
func SampleRate(samples []teraranger.Sample) (float64, error) {
	first, last := -1, -1
	for i, s := range samples {
		if !s.HasTimestamp() {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || first == last {
		return 0, ErrNoTimestamps
	}

	span := samples[last].CapturedAt.Sub(samples[first].CapturedAt).Seconds()
	if span <= 0 {
		return 0, ErrNoTimestamps
	}
	return float64(last-first) / span, nil
}

// DominantFrequency returns the frequency in Hz with the largest spectral
// magnitude, excluding DC, for a series sampled at rate Hz.
func DominantFrequency(values []float64, rate float64) (float64, error) {
	if len(values) < minSpectrumLen {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrTooFewSamples, len(values), minSpectrumLen)
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("invalid sample rate %v", rate)
	}

	centered := make([]float64, len(values))
	copy(centered, values)
	floats.AddConst(-stat.Mean(centered, nil), centered)

	fft := fourier.NewFFT(len(centered))
	coeffs := fft.Coefficients(nil, centered)

	best, bestMag := 0, 0.0
	for i := 1; i < len(coeffs); i++ {
		if mag := cmplx.Abs(coeffs[i]); mag > bestMag {
			best, bestMag = i, mag
		}
	}
	if best == 0 {
		return 0, nil
	}
	return fft.Freq(best) * rate, nil
}

// PerMinute converts a frequency in Hz to cycles per minute
func PerMinute(hz float64) float64 {
	return hz * 60
}

// Report is the result of Analyze
type Report struct {
	Stats
	RateHz     float64
	DominantHz float64
}

// PerMinute returns the dominant frequency in cycles per minute
func (r Report) PerMinute() float64 {
	return PerMinute(r.DominantHz)
}

// String returns a multi-line report
func (r Report) String() string {
	return fmt.Sprintf(
		"samples: %d (measurements %d, too close %d, no reading %d, too far %d)\n"+
			"distance: mean %.1f mm, stddev %.1f mm, min %.0f mm, max %.0f mm\n"+
			"rate: %.1f Hz, dominant: %.3f Hz (%.1f per minute)",
		r.Count, r.Measurements, r.TooClose, r.NoReading, r.TooFar,
		r.Mean, r.StdDev, r.Min, r.Max,
		r.RateHz, r.DominantHz, r.PerMinute())
}

// Analyze summarizes samples and, when they carry timestamps, finds the
// dominant frequency. The sample rate comes from the timestamps.
func Analyze(samples []teraranger.Sample) (Report, error) {
	r := Report{Stats: Summarize(samples)}

	rate, err := SampleRate(samples)
	if err != nil {
		return r, err
	}
	r.RateHz = rate

	dominant, err := DominantFrequency(Values(samples), rate)
	if err != nil {
		return r, err
	}
	r.DominantHz = dominant
	return r, nil
}
