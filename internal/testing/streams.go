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

package testing

import "github.com/ZaparooProject/go-teraranger/internal/frame"

// Well-known distance codes used across tests
const (
	RawOneMeter  uint16 = 1000
	RawTwoMeters uint16 = 2000
	RawHundredMM uint16 = 100
)

// BuildFrame creates a valid frame for raw checksummed with the SMBus table
func BuildFrame(raw uint16) []byte {
	return BuildFrameWith(raw, frame.SMBus)
}

// BuildFrameWith creates a valid frame for raw checksummed with table
func BuildFrameWith(raw uint16, table *frame.Table) []byte {
	f := frame.Encode(raw, table)
	return f[:]
}

// BuildStream concatenates valid SMBus frames
func BuildStream(raws ...uint16) []byte {
	out := make([]byte, 0, len(raws)*frame.Size)
	for _, raw := range raws {
		out = append(out, BuildFrame(raw)...)
	}
	return out
}

// BuildCorruptCRCFrame creates a frame whose checksum byte is wrong
func BuildCorruptCRCFrame(raw uint16) []byte {
	f := BuildFrame(raw)
	f[frame.OffsetCRC] ^= 0x5A
	return f
}

// BuildBadHeaderFrame creates a frame with header replaced by b. The
// checksum is computed over the altered bytes so only the header is wrong.
func BuildBadHeaderFrame(raw uint16, b byte) []byte {
	f := []byte{b, byte(raw), byte(raw >> 8), 0}
	f[frame.OffsetCRC] = frame.SMBus.Checksum(f[:frame.CoveredSize])
	return f
}

// InsertAt returns a copy of stream with extra inserted at offset
func InsertAt(stream []byte, offset int, extra ...byte) []byte {
	out := make([]byte, 0, len(stream)+len(extra))
	out = append(out, stream[:offset]...)
	out = append(out, extra...)
	return append(out, stream[offset:]...)
}

// DropAt returns a copy of stream with n bytes removed at offset
func DropAt(stream []byte, offset, n int) []byte {
	out := make([]byte, 0, len(stream)-n)
	out = append(out, stream[:offset]...)
	return append(out, stream[offset+n:]...)
}
