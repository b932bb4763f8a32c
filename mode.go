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
	"strings"

	"github.com/ZaparooProject/go-teraranger/internal/frame"
)

// Mode selects the sensor's output encoding
type Mode int

const (
	// ModeBinary makes the sensor emit 4-byte distance frames
	ModeBinary Mode = iota
	// ModeText makes the sensor emit ASCII readings
	ModeText
)

// String returns the flag name of the mode
func (m Mode) String() string {
	switch m {
	case ModeBinary:
		return "binary"
	case ModeText:
		return "text"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "binary" or "text". The empty string means binary.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "binary", "bin":
		return ModeBinary, nil
	case "text", "txt":
		return ModeText, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidParameter, s)
	}
}

// Command returns the 4-byte mode-select command
func (m Mode) Command() ([]byte, error) {
	switch m {
	case ModeBinary:
		cmd := frame.BinaryModeCommand
		return cmd[:], nil
	case ModeText:
		// Same bytes as binary; the firmware revisions seen so far do not
		// document a distinct text command.
		cmd := frame.TextModeCommand
		return cmd[:], nil
	default:
		return nil, fmt.Errorf("%w: mode %d", ErrInvalidParameter, int(m))
	}
}

// Initialize sends the mode-select command over t. Pending input is flushed
// first when the transport supports it, so stale frames from a previous
// session are not decoded.
func Initialize(t Transport, mode Mode) error {
	if t == nil {
		return fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	cmd, err := mode.Command()
	if err != nil {
		return err
	}

	if f, ok := t.(InputFlusher); ok {
		if err := f.ResetInputBuffer(); err != nil {
			debugf("input flush failed: %v", err)
		}
	}

	debugf("sending %s mode command % X", mode, cmd)
	if err := t.WriteExact(cmd); err != nil {
		return NewTransportError("init", portName(t), fmt.Errorf("%w: %w", ErrWriteFailed, err), ErrorTypePermanent)
	}
	return nil
}
