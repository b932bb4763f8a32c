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
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ResyncStrategy decides how the read cursor advances after a rejected window
type ResyncStrategy int

const (
	// ResyncWholeFrame discards the entire 4-byte window and reads the next
	// one. Realignment after a dropped or spurious byte only happens by chance.
	ResyncWholeFrame ResyncStrategy = iota
	// ResyncHeaderHunt keeps the tail of a rejected window starting at the
	// next header byte and reads only the missing bytes.
	ResyncHeaderHunt
)

// String returns the flag name of the strategy
func (s ResyncStrategy) String() string {
	switch s {
	case ResyncWholeFrame:
		return "frame"
	case ResyncHeaderHunt:
		return "hunt"
	default:
		return fmt.Sprintf("ResyncStrategy(%d)", int(s))
	}
}

// ParseResyncStrategy parses "frame" or "hunt"
func ParseResyncStrategy(s string) (ResyncStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "frame", "whole", "whole-frame":
		return ResyncWholeFrame, nil
	case "hunt", "header", "header-hunt":
		return ResyncHeaderHunt, nil
	default:
		return 0, fmt.Errorf("%w: unknown resync strategy %q", ErrInvalidParameter, s)
	}
}

// Synchronizer pulls candidate frames from a transport and owns the stream
// cursor. It is not safe for concurrent use.
type Synchronizer struct {
	transport Transport
	carry     []byte
	window    Frame
	cursor    uint64
	strategy  ResyncStrategy
}

// NewSynchronizer returns a synchronizer reading from transport
func NewSynchronizer(transport Transport, strategy ResyncStrategy) *Synchronizer {
	return &Synchronizer{
		transport: transport,
		strategy:  strategy,
		carry:     make([]byte, 0, FrameSize),
	}
}

// Strategy returns the configured resync strategy
func (s *Synchronizer) Strategy() ResyncStrategy {
	return s.strategy
}

// Cursor returns the number of bytes pulled from the transport so far
func (s *Synchronizer) Cursor() uint64 {
	return s.cursor
}

// Pending returns the number of carried bytes waiting to start the next window
func (s *Synchronizer) Pending() int {
	return len(s.carry)
}

// NextFrame reads one candidate window. A short read returns an error
// wrapping ErrTimeout; a transport error returns one wrapping
// ErrTransportFailure, which callers must treat as terminal.
func (s *Synchronizer) NextFrame() (Frame, error) {
	have := copy(s.window[:], s.carry)
	s.carry = s.carry[:0]

	n, err := s.transport.ReadExact(s.window[have:])
	if n < 0 {
		n = 0
	}
	s.cursor += uint64(n)
	got := have + n

	if err != nil {
		if errors.Is(err, ErrTimeout) {
			s.keepPartial(got)
			return Frame{}, err
		}
		s.carry = s.carry[:0]
		if errors.Is(err, ErrTransportFailure) {
			return Frame{}, err
		}
		return Frame{}, NewFailureError("read", portName(s.transport), err)
	}

	if got < FrameSize {
		debugf("short read: %d of %d bytes", got, FrameSize)
		s.keepPartial(got)
		return Frame{}, NewTimeoutError("read", portName(s.transport))
	}

	return s.window, nil
}

// Reject tells the synchronizer that f failed to decode and returns the
// number of bytes discarded from the stream.
func (s *Synchronizer) Reject(f Frame) int {
	if s.strategy != ResyncHeaderHunt {
		return FrameSize
	}
	idx := bytes.IndexByte(f[1:], Header)
	if idx < 0 {
		return FrameSize
	}
	s.carry = append(s.carry[:0], f[1+idx:]...)
	debugf("header hunt: kept %d bytes after rejecting %s", len(s.carry), f)
	return 1 + idx
}

// keepPartial drops a partial window, or in hunt mode keeps it from the first
// header byte.
func (s *Synchronizer) keepPartial(got int) {
	s.carry = s.carry[:0]
	if s.strategy != ResyncHeaderHunt || got == 0 {
		return
	}
	if idx := bytes.IndexByte(s.window[:got], Header); idx >= 0 {
		s.carry = append(s.carry, s.window[idx:got]...)
	}
}
