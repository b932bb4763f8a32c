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

// Package frame provides wire constants and CRC-8 tables for the TeraRanger Evo
// binary output protocol
package frame

// Frame layout: [Header][distance low][distance high][CRC-8 of bytes 0..2]
const (
	Header      = 0x54 // 'T', first byte of every distance frame
	Size        = 4    // Bytes per distance frame
	CoveredSize = 3    // Bytes covered by the trailing CRC
)

// Byte offsets inside a frame
const (
	OffsetHeader = 0
	OffsetLow    = 1
	OffsetHigh   = 2
	OffsetCRC    = 3
)

// Reserved distance codes
const (
	RawTooClose  = 0x0000 // Target below minimum range
	RawNoReading = 0x0001 // Sensor could not measure
	RawTooFar    = 0xFFFF // Target beyond maximum range
)

// Mode-select commands. The vendor notes list 00 11 01 45 for text output, but
// the deployed firmware has only been observed with the binary pattern, which
// is sent for both modes.
var (
	BinaryModeCommand = [Size]byte{0x00, 0x11, 0x02, 0x4C}
	TextModeCommand   = [Size]byte{0x00, 0x11, 0x02, 0x4C}
)
