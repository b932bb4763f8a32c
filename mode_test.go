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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode_Command(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    []byte
		mode    Mode
		wantErr bool
	}{
		{name: "binary", mode: ModeBinary, want: []byte{0x00, 0x11, 0x02, 0x4C}},
		{name: "text", mode: ModeText, want: []byte{0x00, 0x11, 0x02, 0x4C}},
		{name: "unknown", mode: Mode(3), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.mode.Command()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMode_CommandIsACopy(t *testing.T) {
	t.Parallel()

	first, err := ModeBinary.Command()
	require.NoError(t, err)
	first[0] = 0xFF

	second, err := ModeBinary.Command()
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), second[0])
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeBinary},
		{in: "binary", want: ModeBinary},
		{in: "BIN", want: ModeBinary},
		{in: "text", want: ModeText},
		{in: "txt", want: ModeText},
		{in: "hex", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "binary", ModeBinary.String())
	assert.Equal(t, "text", ModeText.String())
	assert.Equal(t, "Mode(4)", Mode(4).String())
}

func TestInitialize(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	require.NoError(t, Initialize(mock, ModeBinary))

	assert.Equal(t, [][]byte{{0x00, 0x11, 0x02, 0x4C}}, mock.Writes())
	assert.Equal(t, 1, mock.Flushes())
	assert.Equal(t, 0, mock.ReadCalls())
}

func TestInitialize_WriteFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("broken pipe")
	mock := NewMockTransport()
	mock.SetWriteError(cause)

	err := Initialize(mock, ModeBinary)
	require.ErrorIs(t, err, ErrWriteFailed)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypePermanent, GetErrorType(err))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "init", te.Op)
	assert.Equal(t, "mock", te.Port)
}

func TestInitialize_InvalidArguments(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Initialize(nil, ModeBinary), ErrInvalidParameter)

	mock := NewMockTransport()
	require.ErrorIs(t, Initialize(mock, Mode(7)), ErrInvalidParameter)
	assert.Empty(t, mock.Writes())
}

func TestInitialize_WithoutFlusher(t *testing.T) {
	t.Parallel()

	mock := NewBlockingMockTransport()
	defer func() { _ = mock.Close() }()
	require.NoError(t, Initialize(mock, ModeText))
}
