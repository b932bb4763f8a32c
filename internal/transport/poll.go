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

// Package transport provides internal helpers shared by transports and detectors
package transport

import (
	"context"
	"errors"
	"time"
)

// ErrPollTimeout is returned when the window closes before the operation finishes
var ErrPollTimeout = errors.New("poll window expired")

// PollOperation represents one attempt of a polled operation
// Returns: result, done, error
// - result: the value to return once done
// - done: true when polling should stop with result
// - error: any permanent error that should stop polling
type PollOperation[T any] func() (T, bool, error)

// Poll runs op until it reports done, fails, ctx ends or window elapses.
// interval is waited between attempts; zero retries immediately, which suits
// operations that already block for a read timeout.
func Poll[T any](ctx context.Context, window, interval time.Duration, op PollOperation[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(window)

	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, done, err := op()
		if err != nil {
			return zero, err
		}
		if done {
			return result, nil
		}

		if !time.Now().Before(deadline) {
			return zero, ErrPollTimeout
		}

		if interval > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
}
