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

package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll(t *testing.T) {
	t.Parallel()

	attempts := 0
	got, err := Poll(context.Background(), time.Second, 0, func() (int, bool, error) {
		attempts++
		return attempts * 10, attempts == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 30, got)
	assert.Equal(t, 3, attempts)
}

func TestPoll_PermanentError(t *testing.T) {
	t.Parallel()

	cause := errors.New("port vanished")
	attempts := 0
	_, err := Poll(context.Background(), time.Second, 0, func() (int, bool, error) {
		attempts++
		return 0, false, cause
	})
	require.ErrorIs(t, err, cause)
	assert.Equal(t, 1, attempts)
}

func TestPoll_WindowExpires(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := Poll(context.Background(), 20*time.Millisecond, 5*time.Millisecond, func() (bool, bool, error) {
		attempts++
		return false, false, nil
	})
	require.ErrorIs(t, err, ErrPollTimeout)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestPoll_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := Poll(ctx, time.Minute, time.Millisecond, func() (bool, bool, error) {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return false, false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}
