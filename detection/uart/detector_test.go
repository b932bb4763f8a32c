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
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"

	"github.com/ZaparooProject/go-teraranger/detection"
	"github.com/ZaparooProject/go-teraranger/internal/frame"
)

func TestMatchPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		port   *enumerator.PortDetails
		opts   detection.Options
		name   string
		wantID string
		wantOK bool
	}{
		{
			name:   "evo_backboard_by_pid",
			port:   &enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "0483", PID: "5740"},
			opts:   detection.DefaultOptions(),
			wantID: "0483:5740",
			wantOK: true,
		},
		{
			name:   "macos_usbmodem",
			port:   &enumerator.PortDetails{Name: "/dev/cu.usbmodem2071", IsUSB: true, VID: "0483", PID: "5740"},
			opts:   detection.DefaultOptions(),
			wantID: "0483:5740",
			wantOK: true,
		},
		{
			name:   "foreign_vendor_same_pid",
			port:   &enumerator.PortDetails{Name: "/dev/ttyACM2", IsUSB: true, VID: "1209", PID: "5740", Product: "CDC ACM"},
			opts:   detection.DefaultOptions(),
			wantOK: false,
		},
		{
			name:   "product_string_without_ids",
			port:   &enumerator.PortDetails{Name: "/dev/ttyACM3", IsUSB: true, Product: "TeraRanger Evo"},
			opts:   detection.DefaultOptions(),
			wantOK: true,
		},
		{
			name:   "windows_com_port",
			port:   &enumerator.PortDetails{Name: "COM4", IsUSB: true, VID: "0483", PID: "5740"},
			opts:   detection.DefaultOptions(),
			wantID: "0483:5740",
			wantOK: true,
		},
		{
			name:   "product_string",
			port:   &enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10c4", PID: "ea60", Product: "TeraRanger Evo USB"},
			opts:   detection.DefaultOptions(),
			wantID: "10C4:EA60",
			wantOK: true,
		},
		{
			name:   "unrelated_usb_serial",
			port:   &enumerator.PortDetails{Name: "/dev/ttyUSB1", IsUSB: true, VID: "1A86", PID: "7523", Product: "USB Serial"},
			opts:   detection.DefaultOptions(),
			wantOK: false,
		},
		{
			name:   "not_usb",
			port:   &enumerator.PortDetails{Name: "/dev/ttyS0"},
			opts:   detection.DefaultOptions(),
			wantOK: false,
		},
		{
			name:   "blocklisted_stlink",
			port:   &enumerator.PortDetails{Name: "/dev/ttyACM1", IsUSB: true, VID: "0483", PID: "374B", Product: "STM32 STLink Evo board"},
			opts:   detection.DefaultOptions(),
			wantOK: false,
		},
		{
			name: "ignored_path",
			port: &enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "0483", PID: "5740"},
			opts: detection.Options{IgnorePaths: []string{"/dev/ttyACM0"}},
		},
		{
			name: "nil_port",
			opts: detection.DefaultOptions(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info, ok := matchPort(tt.port, &tt.opts)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, "uart", info.Transport)
				assert.Equal(t, tt.port.Name, info.Path)
				assert.Equal(t, tt.wantID, info.Metadata["vidpid"])
			}
		})
	}
}

func TestContainsFrame(t *testing.T) {
	t.Parallel()

	smbus := frame.Encode(1234, frame.SMBus)
	maxim := frame.Encode(1234, frame.Maxim)

	assert.True(t, containsFrame(smbus[:]))
	assert.True(t, containsFrame(maxim[:]))
	assert.True(t, containsFrame(append([]byte{0x01, 0x54, 0x99}, smbus[:]...)))
	assert.False(t, containsFrame([]byte("T1234\r\n")))
	assert.False(t, containsFrame(smbus[:3]))

	corrupt := smbus
	corrupt[frame.OffsetCRC] ^= 0xFF
	if frame.Maxim.Checksum(corrupt[:frame.CoveredSize]) != corrupt[frame.OffsetCRC] {
		assert.False(t, containsFrame(corrupt[:]))
	}
}

// quietReader returns its data once, then reports read timeouts forever
type quietReader struct {
	data []byte
}

func (q *quietReader) Read(p []byte) (int, error) {
	n := copy(p, q.data)
	q.data = q.data[n:]
	return n, nil
}

func TestScanForFrame(t *testing.T) {
	t.Parallel()

	valid := frame.Encode(1234, frame.SMBus)
	noise := bytes.Repeat([]byte{0x11, 0x54, 0x22}, 30)

	tests := []struct {
		reader  io.Reader
		name    string
		want    bool
		wantErr bool
	}{
		{name: "frame_after_noise", reader: &quietReader{data: append(noise[:21:21], valid[:]...)}, want: true},
		{name: "noise_only", reader: &quietReader{data: noise}, want: false},
		{name: "silent_line", reader: &quietReader{}, want: false},
		{name: "read_error", reader: bytes.NewReader(nil), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := scanForFrame(context.Background(), tt.reader)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

//nolint:paralleltest // replaces package-level enumerator hooks
func TestDetect(t *testing.T) {
	origList, origProbe := listPorts, probePort
	t.Cleanup(func() {
		listPorts, probePort = origList, origProbe
	})

	listPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyACM0", IsUSB: true, VID: "0483", PID: "5740", SerialNumber: "207F3591"},
			{Name: "/dev/ttyACM1", IsUSB: true, VID: "0483", PID: "5740"},
		}, nil
	}
	probePort = func(_ context.Context, path string) (bool, error) {
		return path == "/dev/ttyACM1", nil
	}

	d := New()
	assert.Equal(t, "uart", d.Transport())

	passive := detection.DefaultOptions()
	devices, err := d.Detect(context.Background(), &passive)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "207F3591", devices[0].Metadata["serial"])

	safe := detection.DefaultOptions()
	safe.Mode = detection.Safe
	devices, err = d.Detect(context.Background(), &safe)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/ttyACM1", devices[0].Path)
	assert.Equal(t, "frames", devices[0].Metadata["probe"])

	listPorts = func() ([]*enumerator.PortDetails, error) { return nil, nil }
	_, err = d.Detect(context.Background(), &passive)
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)

	listPorts = func() ([]*enumerator.PortDetails, error) { return nil, errors.New("boom") }
	_, err = d.Detect(context.Background(), &passive)
	require.Error(t, err)
	assert.NotErrorIs(t, err, detection.ErrNoDevicesFound)
}
