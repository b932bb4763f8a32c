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

// Package sink provides destinations for decoded distance samples: console
// output, an in-memory collector, a pair of binary log streams and fan-out.
package sink

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

// Format selects how Console renders a sample
type Format int

const (
	// FormatMillimeters prints the raw code or its sentinel name: "1234", "-inf"
	FormatMillimeters Format = iota
	// FormatMeters prints metres with three decimals, or Inf/NaN for sentinels
	FormatMeters
)

// Console writes one line per sample
type Console struct {
	w          io.Writer
	start      time.Time
	format     Format
	timestamps bool
	mu         sync.Mutex
}

// NewConsole returns a console sink writing to w. With timestamps enabled,
// each line is prefixed with the seconds elapsed since the first sample.
func NewConsole(w io.Writer, format Format, timestamps bool) *Console {
	return &Console{w: w, format: format, timestamps: timestamps}
}

// Consume implements teraranger.Sink
func (c *Console) Consume(s teraranger.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var value string
	switch c.format {
	case FormatMeters:
		value = strconv.FormatFloat(s.Meters(), 'f', 3, 64)
	default:
		value = s.String()
	}

	if c.timestamps && s.HasTimestamp() {
		if c.start.IsZero() {
			c.start = s.CapturedAt
		}
		_, err := fmt.Fprintf(c.w, "%.6f\t%s\n", s.CapturedAt.Sub(c.start).Seconds(), value)
		return err
	}

	_, err := fmt.Fprintln(c.w, value)
	return err
}

// Collector keeps every sample in memory. The zero value is ready to use.
type Collector struct {
	samples []teraranger.Sample
	limit   int
	mu      sync.Mutex
}

// NewCollector returns a collector holding at most limit samples (the
// oldest are dropped first). A limit of zero keeps everything.
func NewCollector(limit int) *Collector {
	return &Collector{limit: limit}
}

// Consume implements teraranger.Sink
func (c *Collector) Consume(s teraranger.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, s)
	if c.limit > 0 && len(c.samples) > c.limit {
		c.samples = append(c.samples[:0], c.samples[len(c.samples)-c.limit:]...)
	}
	return nil
}

// Samples returns a copy of the collected samples
func (c *Collector) Samples() []teraranger.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]teraranger.Sample(nil), c.samples...)
}

// Len returns the number of samples held
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Reset drops all samples
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = nil
}

// Multi forwards each sample to every sink in order and stops at the first error
type Multi []teraranger.Sink

// Consume implements teraranger.Sink
func (m Multi) Consume(s teraranger.Sample) error {
	for _, sink := range m {
		if err := sink.Consume(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink that implements io.Closer
func (m Multi) Close() error {
	var errs []error
	for _, sink := range m {
		if c, ok := sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Filter forwards only the samples keep accepts
func Filter(next teraranger.Sink, keep func(teraranger.Sample) bool) teraranger.Sink {
	return teraranger.SinkFunc(func(s teraranger.Sample) error {
		if !keep(s) {
			return nil
		}
		return next.Consume(s)
	})
}

// MeasurementsOnly drops sentinel samples
func MeasurementsOnly(next teraranger.Sink) teraranger.Sink {
	return Filter(next, func(s teraranger.Sample) bool {
		return s.Class == teraranger.Measurement
	})
}
