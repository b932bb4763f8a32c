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

package monitor

import (
	"strconv"
	"time"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

// RangeState is the monitor's view of the target
type RangeState int

const (
	// StateIdle means no sample has arrived yet, or the stream went quiet
	StateIdle RangeState = iota
	// StateInRange means the target is inside the configured window
	StateInRange
	// StateTooClose means the target is below the window or the sensor minimum
	StateTooClose
	// StateTooFar means the target is above the window or the sensor maximum
	StateTooFar
	// StateNoReading means the sensor reported that it could not measure
	StateNoReading
)

// String returns the state name
func (s RangeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInRange:
		return "in_range"
	case StateTooClose:
		return "too_close"
	case StateTooFar:
		return "too_far"
	case StateNoReading:
		return "no_reading"
	default:
		return "RangeState(" + strconv.Itoa(int(s)) + ")"
	}
}

// State tracks what the monitor has seen
type State struct {
	LastSeen  time.Time
	LostTimer *time.Timer
	Latest    teraranger.Sample
	Range     RangeState
	candidate RangeState
	streak    int
	Samples   uint64
}

// safeTimerStop safely stops a timer and drains its channel to prevent resource leaks
func safeTimerStop(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

// observe records a sample and returns true when the range state changed.
// A new state must be seen hysteresis times in a row before it is adopted.
func (st *State) observe(s teraranger.Sample, next RangeState, hysteresis int, now time.Time) (RangeState, bool) {
	st.Latest = s
	st.LastSeen = now
	st.Samples++

	if next == st.Range {
		st.candidate = next
		st.streak = 0
		return st.Range, false
	}
	if next != st.candidate {
		st.candidate = next
		st.streak = 0
	}
	st.streak++
	if st.streak < hysteresis && st.Range != StateIdle {
		return st.Range, false
	}

	prev := st.Range
	st.Range = next
	st.streak = 0
	return prev, true
}

// armLostTimer (re)starts the signal loss timer
func (st *State) armLostTimer(timeout time.Duration, callback func()) {
	safeTimerStop(st.LostTimer)
	st.LostTimer = nil
	if timeout > 0 {
		st.LostTimer = time.AfterFunc(timeout, callback)
	}
}

// TransitionToIdle forgets the target and stops the loss timer
func (st *State) TransitionToIdle() {
	st.Range = StateIdle
	st.candidate = StateIdle
	st.streak = 0
	safeTimerStop(st.LostTimer)
	st.LostTimer = nil
}
