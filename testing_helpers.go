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
	"sync"
	"time"
)

type mockStepKind int

const (
	mockData mockStepKind = iota
	mockShort
	mockError
)

type mockStep struct {
	err  error
	data []byte
	kind mockStepKind
}

// MockTransport replays a scripted byte stream. Each ReadExact fills the
// buffer from queued data until it meets a queued timeout (short read), a
// queued error, or the end of the script. An exhausted script behaves like a
// quiet line: every read comes back short.
type MockTransport struct {
	writeErr   error
	steps      []mockStep
	writes     [][]byte
	timeout    time.Duration
	readCalls  int
	flushes    int
	closeCalls int
	mu         sync.Mutex
	closed     bool
}

// NewMockTransport creates a mock with an empty script
func NewMockTransport() *MockTransport {
	return &MockTransport{timeout: 100 * time.Millisecond}
}

// NewMockTransportWithData creates a mock whose script is the given bytes
func NewMockTransportWithData(data []byte) *MockTransport {
	m := NewMockTransport()
	m.QueueData(data...)
	return m
}

// QueueData appends bytes to the stream
func (m *MockTransport) QueueData(data ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, mockStep{kind: mockData, data: append([]byte(nil), data...)})
}

// QueueFrames appends whole frames to the stream
func (m *MockTransport) QueueFrames(frames ...Frame) {
	for _, f := range frames {
		m.QueueData(f[:]...)
	}
}

// QueueTimeout makes the read in progress return short at this point
func (m *MockTransport) QueueTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, mockStep{kind: mockShort})
}

// QueueError makes the read in progress fail with err at this point
func (m *MockTransport) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, mockStep{kind: mockError, err: err})
}

// SetWriteError makes every WriteExact fail with err
func (m *MockTransport) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// ReadExact implements Transport
func (m *MockTransport) ReadExact(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readCalls++
	if m.closed {
		return 0, ErrTransportClosed
	}

	filled := 0
	for filled < len(buf) {
		if len(m.steps) == 0 {
			return filled, nil
		}
		step := &m.steps[0]
		switch step.kind {
		case mockData:
			n := copy(buf[filled:], step.data)
			filled += n
			step.data = step.data[n:]
			if len(step.data) == 0 {
				m.steps = m.steps[1:]
			}
		case mockShort:
			m.steps = m.steps[1:]
			return filled, nil
		case mockError:
			err := step.err
			m.steps = m.steps[1:]
			return filled, err
		}
	}
	return filled, nil
}

// WriteExact implements Transport and records the written bytes
func (m *MockTransport) WriteExact(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrTransportClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes = append(m.writes, append([]byte(nil), data...))
	return nil
}

// ResetInputBuffer implements InputFlusher. Only the flush is counted; the
// script is left intact.
func (m *MockTransport) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return nil
}

// SetTimeout implements Transport
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// Timeout returns the last timeout set
func (m *MockTransport) Timeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// Close implements Transport
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closeCalls++
	return nil
}

// IsConnected implements Transport
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// PortName implements PortNamer
func (*MockTransport) PortName() string {
	return "mock"
}

// Writes returns copies of every successful write
func (m *MockTransport) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	for i, w := range m.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Flushes returns how many times the input buffer was reset
func (m *MockTransport) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// CloseCalls returns how many times Close was called
func (m *MockTransport) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// ReadCalls returns how many times ReadExact was called
func (m *MockTransport) ReadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCalls
}

// BlockingMockTransport is a live stream fed from another goroutine. A read
// waits for bytes until its timeout expires, like a serial port with an
// inter-byte timeout. Used for testing cancellation and background readers.
type BlockingMockTransport struct {
	dataChan chan []byte
	pending  []byte
	timeout  time.Duration
	mu       sync.Mutex
	closed   bool
	done     chan struct{}
}

// NewBlockingMockTransport creates a new blocking mock transport
func NewBlockingMockTransport() *BlockingMockTransport {
	return &BlockingMockTransport{
		dataChan: make(chan []byte, 64),
		done:     make(chan struct{}),
		timeout:  100 * time.Millisecond,
	}
}

// Feed delivers bytes to the next reader. It does nothing once closed.
func (m *BlockingMockTransport) Feed(data []byte) {
	select {
	case <-m.done:
	case m.dataChan <- append([]byte(nil), data...):
	}
}

// ReadExact blocks until buf is full, the timeout elapses between bytes, or
// the transport is closed.
func (m *BlockingMockTransport) ReadExact(buf []byte) (int, error) {
	m.mu.Lock()
	timeout := m.timeout
	n := copy(buf, m.pending)
	m.pending = m.pending[n:]
	m.mu.Unlock()

	for n < len(buf) {
		timer := time.NewTimer(timeout)
		select {
		case <-m.done:
			timer.Stop()
			return n, ErrTransportClosed
		case <-timer.C:
			return n, nil
		case chunk := <-m.dataChan:
			timer.Stop()
			c := copy(buf[n:], chunk)
			n += c
			if c < len(chunk) {
				m.mu.Lock()
				m.pending = append(m.pending, chunk[c:]...)
				m.mu.Unlock()
			}
		}
	}
	return n, nil
}

// WriteExact accepts and discards data
func (m *BlockingMockTransport) WriteExact([]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrTransportClosed
	}
	return nil
}

// Close unblocks all operations and marks transport as closed
func (m *BlockingMockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// SetTimeout configures the per-read timeout
func (m *BlockingMockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected returns false once closed
func (m *BlockingMockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*BlockingMockTransport) Type() TransportType {
	return TransportMock
}
