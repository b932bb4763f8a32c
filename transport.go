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
	"time"
)

// Transport is the byte link to an Evo sensor. UART is the usual backend; a
// mock backs the tests.
type Transport interface {
	// ReadExact reads until buf is full or the read timeout elapses with no
	// new data. A short count with a nil error is a timeout, not a failure.
	ReadExact(buf []byte) (int, error)

	// WriteExact writes all of data or returns an error
	WriteExact(data []byte) error

	// SetTimeout sets the inactivity window that bounds each read
	SetTimeout(timeout time.Duration) error

	// Close releases the link
	Close() error

	// IsConnected returns true if the transport is open
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// InputFlusher is implemented by transports that can drop unread input.
// Initialize uses it to discard stale bytes before switching output mode.
type InputFlusher interface {
	ResetInputBuffer() error
}

// PortNamer is implemented by transports that know their device path. The
// name is used to annotate errors.
type PortNamer interface {
	PortName() string
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// portName returns a label for t suitable for error messages
func portName(t Transport) string {
	if namer, ok := t.(PortNamer); ok {
		return namer.PortName()
	}
	return string(t.Type())
}
