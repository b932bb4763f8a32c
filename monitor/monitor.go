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

// Package monitor runs a decode pipeline in the background and turns the
// sample stream into range-state transitions.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

// ErrAlreadyStarted is returned when Start is called twice
var ErrAlreadyStarted = errors.New("monitor already started")

// Config configures a Monitor
type Config struct {
	// SignalLossTimeout returns the monitor to idle when no valid sample
	// arrives for this long. Zero disables it.
	SignalLossTimeout time.Duration
	// Hysteresis is how many consecutive samples a new state needs
	Hysteresis int
	// MinDistance and MaxDistance bound the in-range window in millimetres.
	// Zero leaves that side unbounded.
	MinDistance uint16
	MaxDistance uint16
}

// DefaultConfig returns a one-second loss timeout and a hysteresis of three
func DefaultConfig() *Config {
	return &Config{
		SignalLossTimeout: time.Second,
		Hysteresis:        3,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.SignalLossTimeout < 0 {
		return fmt.Errorf("%w: negative signal loss timeout", teraranger.ErrInvalidParameter)
	}
	if c.Hysteresis < 1 {
		return fmt.Errorf("%w: hysteresis must be at least 1", teraranger.ErrInvalidParameter)
	}
	if c.MaxDistance != 0 && c.MinDistance > c.MaxDistance {
		return fmt.Errorf("%w: min distance above max distance", teraranger.ErrInvalidParameter)
	}
	return nil
}

// Monitor watches a pipeline and reports range-state changes
type Monitor struct {
	pipeline *teraranger.Pipeline
	config   *Config
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
	summary  teraranger.Summary

	// OnSample is called for every valid sample
	OnSample func(teraranger.Sample)
	// OnStateChanged is called when the range state changes
	OnStateChanged func(from, to RangeState, s teraranger.Sample)
	// OnSignalLost is called when the loss timeout expires
	OnSignalLost func()

	state State
	mu    sync.Mutex
}

// NewMonitor creates a monitor for pipeline. A nil config means DefaultConfig().
func NewMonitor(pipeline *teraranger.Pipeline, config *Config) (*Monitor, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("%w: nil pipeline", teraranger.ErrInvalidParameter)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Monitor{pipeline: pipeline, config: config}, nil
}

// Start runs the pipeline in a goroutine until ctx is done, Stop is called
// or the transport fails.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.done != nil {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		summary, err := m.pipeline.Run(runCtx, teraranger.SinkFunc(m.handleSample), 0)
		if errors.Is(err, context.Canceled) {
			err = nil
		}

		m.mu.Lock()
		m.summary = summary
		m.err = err
		m.state.TransitionToIdle()
		m.mu.Unlock()
	}()
	return nil
}

// Stop cancels the pipeline and waits for it to finish
func (m *Monitor) Stop() error {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	return m.Wait()
}

// Wait blocks until the pipeline has finished and returns its error
func (m *Monitor) Wait() error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// GetState returns a copy of the current state
func (m *Monitor) GetState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	st.LostTimer = nil
	return st
}

// Latest returns the most recent sample and whether one has been seen
func (m *Monitor) Latest() (teraranger.Sample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Latest, m.state.Samples > 0
}

// Summary returns the pipeline counters once it has finished
func (m *Monitor) Summary() teraranger.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary
}

// classify maps a sample to a range state using the configured window
func (m *Monitor) classify(s teraranger.Sample) RangeState {
	switch s.Class {
	case teraranger.NegativeInfinity:
		return StateTooClose
	case teraranger.PositiveInfinity:
		return StateTooFar
	case teraranger.NegativeOne:
		return StateNoReading
	}
	if m.config.MinDistance != 0 && s.Raw < m.config.MinDistance {
		return StateTooClose
	}
	if m.config.MaxDistance != 0 && s.Raw > m.config.MaxDistance {
		return StateTooFar
	}
	return StateInRange
}

func (m *Monitor) handleSample(s teraranger.Sample) error {
	next := m.classify(s)

	m.mu.Lock()
	from, changed := m.state.observe(s, next, m.config.Hysteresis, time.Now())
	m.state.armLostTimer(m.config.SignalLossTimeout, m.handleSignalLost)
	m.mu.Unlock()

	if m.OnSample != nil {
		m.OnSample(s)
	}
	if changed && m.OnStateChanged != nil {
		m.OnStateChanged(from, next, s)
	}
	return nil
}

func (m *Monitor) handleSignalLost() {
	m.mu.Lock()
	from := m.state.Range
	latest := m.state.Latest
	m.state.TransitionToIdle()
	m.mu.Unlock()

	if from == StateIdle {
		return
	}
	if m.OnSignalLost != nil {
		m.OnSignalLost()
	}
	if m.OnStateChanged != nil {
		m.OnStateChanged(from, StateIdle, latest)
	}
}
