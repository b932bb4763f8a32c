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

package uart

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

// fakePort serves reads from a list of chunks; an empty chunk is a timeout
type fakePort struct {
	readErr    error
	writeErr   error
	closeErr   error
	chunks     [][]byte
	written    bytes.Buffer
	timeout    time.Duration
	writeLimit int
	flushes    int
	closes     int
	mu         sync.Mutex
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.chunks) == 0 {
		if p.readErr != nil {
			return 0, p.readErr
		}
		return 0, nil
	}
	n := copy(buf, p.chunks[0])
	p.chunks[0] = p.chunks[0][n:]
	if len(p.chunks[0]) == 0 {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *fakePort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.writeLimit > 0 && len(data) > p.writeLimit {
		data = data[:p.writeLimit]
	}
	return p.written.Write(data)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return p.closeErr
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushes++
	p.chunks = nil
	return nil
}

func newTestTransport(p *fakePort) *Transport {
	return &Transport{port: p, portName: "/dev/ttyACM0", baudRate: DefaultBaudRate, timeout: DefaultReadTimeout}
}

// TestTransportCreation verifies basic transport creation and properties
func TestTransportCreation(t *testing.T) {
	t.Parallel()

	transport := &Transport{portName: "/dev/ttyACM0"}

	if transport.PortName() != "/dev/ttyACM0" {
		t.Errorf("Expected port name /dev/ttyACM0, got %s", transport.PortName())
	}
	if transport.Type() != teraranger.TransportUART {
		t.Errorf("Expected transport type %v, got %v", teraranger.TransportUART, transport.Type())
	}
	if transport.IsConnected() {
		t.Error("Expected IsConnected() to return false for uninitialized transport")
	}
}

//nolint:paralleltest // replaces the package-level openPort hook
func TestNew(t *testing.T) {
	saved := openPort
	t.Cleanup(func() { openPort = saved })

	tests := []struct {
		openErr  error
		name     string
		opts     []Option
		wantRate int
		wantErr  bool
	}{
		{name: "defaults", wantRate: DefaultBaudRate},
		{name: "supported_rate", opts: []Option{WithBaudRate(38400)}, wantRate: 38400},
		{name: "unsupported_rate_falls_back", opts: []Option{WithBaudRate(57600)}, wantRate: FallbackBaudRate},
		{name: "open_failure", openErr: errors.New("no such file"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePort{}
			var gotMode *serial.Mode
			openPort = func(_ string, mode *serial.Mode) (port, error) {
				gotMode = mode
				if tt.openErr != nil {
					return nil, tt.openErr
				}
				return fake, nil
			}

			transport, err := New("/dev/ttyACM0", tt.opts...)
			if tt.wantErr {
				require.ErrorIs(t, err, teraranger.ErrTransportFailure)
				require.ErrorIs(t, err, tt.openErr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantRate, transport.BaudRate())
			assert.Equal(t, tt.wantRate, gotMode.BaudRate)
			assert.Equal(t, 8, gotMode.DataBits)
			assert.Equal(t, serial.NoParity, gotMode.Parity)
			assert.Equal(t, serial.OneStopBit, gotMode.StopBits)
			assert.Equal(t, DefaultReadTimeout, fake.timeout)
			assert.True(t, transport.IsConnected())
		})
	}
}

//nolint:paralleltest // replaces openPort and the shared logger
func TestNew_BaudFallbackLogsThroughLogger(t *testing.T) {
	saved := openPort
	t.Cleanup(func() {
		openPort = saved
		teraranger.SetLogger(nil)
	})
	openPort = func(string, *serial.Mode) (port, error) { return &fakePort{}, nil }

	var buf bytes.Buffer
	teraranger.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	transport, err := New("/dev/ttyACM0", WithBaudRate(57600))
	require.NoError(t, err)
	assert.Equal(t, FallbackBaudRate, transport.BaudRate())

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "requested=57600")
	assert.Contains(t, out, "using=9600")

	buf.Reset()
	_, err = New("/dev/ttyACM0", WithBaudRate(19200))
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

//nolint:paralleltest // replaces the package-level openPort hook
func TestNew_InvalidTimeoutClosesPort(t *testing.T) {
	saved := openPort
	t.Cleanup(func() { openPort = saved })

	fake := &fakePort{}
	openPort = func(string, *serial.Mode) (port, error) { return fake, nil }

	_, err := New("/dev/ttyACM0", WithReadTimeout(0))
	require.ErrorIs(t, err, teraranger.ErrInvalidParameter)
	assert.Equal(t, 1, fake.closes)
}

func TestReadExact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		readErr  error
		name     string
		chunks   [][]byte
		want     []byte
		wantN    int
		wantFail bool
	}{
		{
			name:   "single_chunk",
			chunks: [][]byte{{0x54, 0x64, 0x00, 0x2E}},
			want:   []byte{0x54, 0x64, 0x00, 0x2E},
			wantN:  4,
		},
		{
			name:   "split_chunks",
			chunks: [][]byte{{0x54}, {0x64, 0x00}, {0x2E, 0x54}},
			want:   []byte{0x54, 0x64, 0x00, 0x2E},
			wantN:  4,
		},
		{
			name:   "timeout_is_short_count",
			chunks: [][]byte{{0x54, 0x64}},
			want:   []byte{0x54, 0x64, 0x00, 0x00},
			wantN:  2,
		},
		{
			name:     "read_error",
			chunks:   [][]byte{{0x54}},
			readErr:  errors.New("device reports readiness to read but returned no data"),
			want:     []byte{0x54, 0x00, 0x00, 0x00},
			wantN:    1,
			wantFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := newTestTransport(&fakePort{chunks: tt.chunks, readErr: tt.readErr})
			buf := make([]byte, 4)
			n, err := transport.ReadExact(buf)

			assert.Equal(t, tt.wantN, n)
			assert.Equal(t, tt.want, buf)
			if tt.wantFail {
				require.ErrorIs(t, err, teraranger.ErrTransportFailure)
				require.ErrorIs(t, err, tt.readErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWriteExact(t *testing.T) {
	t.Parallel()

	cmd := []byte{0x00, 0x11, 0x02, 0x4C}

	t.Run("full_write", func(t *testing.T) {
		t.Parallel()
		fake := &fakePort{}
		require.NoError(t, newTestTransport(fake).WriteExact(cmd))
		assert.Equal(t, cmd, fake.written.Bytes())
	})

	t.Run("short_write", func(t *testing.T) {
		t.Parallel()
		fake := &fakePort{writeLimit: 3}
		err := newTestTransport(fake).WriteExact(cmd)
		require.ErrorIs(t, err, teraranger.ErrWriteFailed)
	})

	t.Run("write_error", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("input/output error")
		err := newTestTransport(&fakePort{writeErr: cause}).WriteExact(cmd)
		require.ErrorIs(t, err, teraranger.ErrWriteFailed)
		require.ErrorIs(t, err, cause)
	})
}

func TestInitializeOverUART(t *testing.T) {
	t.Parallel()

	fake := &fakePort{chunks: [][]byte{{0xAA, 0xBB}}}
	transport := newTestTransport(fake)

	require.NoError(t, teraranger.Initialize(transport, teraranger.ModeBinary))
	assert.Equal(t, 1, fake.flushes)
	assert.Equal(t, []byte{0x00, 0x11, 0x02, 0x4C}, fake.written.Bytes())
}

func TestSetTimeout(t *testing.T) {
	t.Parallel()

	fake := &fakePort{}
	transport := newTestTransport(fake)

	require.NoError(t, transport.SetTimeout(250*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, fake.timeout)
	require.ErrorIs(t, transport.SetTimeout(0), teraranger.ErrInvalidParameter)
	require.ErrorIs(t, transport.SetTimeout(-time.Second), teraranger.ErrInvalidParameter)
}

func TestClose(t *testing.T) {
	t.Parallel()

	fake := &fakePort{}
	transport := newTestTransport(fake)

	require.NoError(t, transport.Close())
	require.NoError(t, transport.Close())
	assert.Equal(t, 1, fake.closes)
	assert.False(t, transport.IsConnected())

	_, err := transport.ReadExact(make([]byte, 4))
	require.ErrorIs(t, err, teraranger.ErrTransportClosed)
	require.ErrorIs(t, transport.WriteExact([]byte{0x00}), teraranger.ErrTransportClosed)
	require.ErrorIs(t, transport.ResetInputBuffer(), teraranger.ErrTransportClosed)
}

func TestClose_Error(t *testing.T) {
	t.Parallel()

	transport := newTestTransport(&fakePort{closeErr: errors.New("EBADF")})
	require.Error(t, transport.Close())
	assert.False(t, transport.IsConnected())
}

func TestPipelineOverUART(t *testing.T) {
	t.Parallel()

	fake := &fakePort{chunks: [][]byte{{0x54, 0x64}, {0x00, 0x2E, 0x54, 0xE8}, {0x03, 0x6D}}}
	p, err := teraranger.NewPipeline(newTestTransport(fake), nil)
	require.NoError(t, err)

	var got []uint16
	summary, err := p.Run(t.Context(), teraranger.SinkFunc(func(s teraranger.Sample) error {
		got = append(got, s.Raw)
		return nil
	}), 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{100, 1000}, got)
	assert.Equal(t, 2, summary.Valid)
	assert.Equal(t, 1, fake.closes)
}
