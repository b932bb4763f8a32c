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

// Package uart provides a serial transport for TeraRanger Evo sensors
package uart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

// DefaultBaudRate is the Evo's output rate in normal operation
const DefaultBaudRate = 115200

// FallbackBaudRate is used when an unsupported rate is requested
const FallbackBaudRate = 9600

// DefaultReadTimeout matches a 100ms inter-byte timeout on the line
const DefaultReadTimeout = 100 * time.Millisecond

var supportedBaudRates = map[int]bool{
	4800:   true,
	9600:   true,
	19200:  true,
	38400:  true,
	115200: true,
}

// port is the subset of serial.Port the transport uses
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// openPort is replaced in tests
var openPort = func(path string, mode *serial.Mode) (port, error) {
	return serial.Open(path, mode)
}

// Option configures a Transport
type Option func(*config)

type config struct {
	baudRate int
	timeout  time.Duration
}

// WithBaudRate sets the line rate. Unsupported rates fall back to 9600.
func WithBaudRate(rate int) Option {
	return func(c *config) {
		c.baudRate = rate
	}
}

// WithReadTimeout sets the inter-byte read timeout
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// Transport implements teraranger.Transport over a serial port
type Transport struct {
	port     port
	portName string
	baudRate int
	timeout  time.Duration
	mu       sync.Mutex
}

// New opens a serial port at 8N1 with the given options
func New(portName string, opts ...Option) (*Transport, error) {
	cfg := config{baudRate: DefaultBaudRate, timeout: DefaultReadTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	rate := normalizeBaudRate(cfg.baudRate)
	mode := &serial.Mode{
		BaudRate: rate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := openPort(portName, mode)
	if err != nil {
		return nil, teraranger.NewFailureError("open", portName, err)
	}

	t := &Transport{
		port:     p,
		portName: portName,
		baudRate: rate,
	}
	if err := t.SetTimeout(cfg.timeout); err != nil {
		_ = p.Close()
		return nil, err
	}
	return t, nil
}

// normalizeBaudRate returns rate if supported, otherwise the fallback
func normalizeBaudRate(rate int) int {
	if supportedBaudRates[rate] {
		return rate
	}
	teraranger.Logger().Warn("unsupported baud rate, falling back", "requested", rate, "using", FallbackBaudRate)
	return FallbackBaudRate
}

// ReadExact reads until buf is full or the line stays quiet for one read
// timeout. A short count with a nil error means the timeout expired.
func (t *Transport) ReadExact(buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return 0, teraranger.ErrTransportClosed
	}

	total := 0
	for total < len(buf) {
		n, err := t.port.Read(buf[total:])
		total += n
		if err != nil {
			return total, teraranger.NewFailureError("read", t.portName, err)
		}
		if n == 0 {
			return total, nil
		}
	}
	return total, nil
}

// WriteExact writes all of data or fails
func (t *Transport) WriteExact(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return teraranger.ErrTransportClosed
	}

	n, err := t.port.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %w", teraranger.ErrWriteFailed, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: wrote %d of %d bytes", teraranger.ErrWriteFailed, n, len(data))
	}
	return nil
}

// ResetInputBuffer drops bytes received but not yet read
func (t *Transport) ResetInputBuffer() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return teraranger.ErrTransportClosed
	}
	return t.port.ResetInputBuffer()
}

// SetTimeout sets the read timeout
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timeout <= 0 {
		return fmt.Errorf("%w: read timeout must be positive", teraranger.ErrInvalidParameter)
	}
	t.timeout = timeout
	if t.port == nil {
		return nil
	}
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set read timeout: %w", err)
	}
	return nil
}

// Close closes the port. Closing twice is a no-op.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil && !isPortClosed(err) {
		return fmt.Errorf("failed to close %s: %w", t.portName, err)
	}
	return nil
}

func isPortClosed(err error) bool {
	var pe *serial.PortError
	return errors.As(err, &pe) && pe.Code() == serial.PortClosed
}

// IsConnected returns true while the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() teraranger.TransportType {
	return teraranger.TransportUART
}

// PortName returns the device path
func (t *Transport) PortName() string {
	return t.portName
}

// BaudRate returns the line rate in use
func (t *Transport) BaudRate() int {
	return t.baudRate
}
