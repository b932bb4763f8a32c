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

// CRCVariant selects the CRC-8 table used to validate frames. The two tables
// are incompatible; pick the one the deployed firmware uses.
type CRCVariant string

const (
	// CRCSMBus is polynomial 0x07 (the default)
	CRCSMBus CRCVariant = "smbus"
	// CRCMaxim is the Dallas/Maxim polynomial 0x31, reflected
	CRCMaxim CRCVariant = "maxim"
)

// DefaultCRCVariant is used when no variant is configured.
//
// Terabee's sample readers disagree: the C ones for macOS and the Raspberry Pi
// use the Maxim table, the Python one crcmod's "crc-8" (SMBus). SMBus is the
// default because the sensor's own command bytes carry SMBus checksums: the
// trailing 0x4C of the mode command 00 11 02 4C is the SMBus CRC of its first
// three bytes, where Maxim would give 0x94. Firmware using the Maxim table is
// read with CRCMaxim.
// The value 0xCB sometimes quoted for the frame 54 64 00 matches neither
// table: SMBus gives 0x2E and Maxim gives 0x84.
const DefaultCRCVariant = CRCSMBus

// ParseCRCVariant parses a variant name, case-insensitively
func ParseCRCVariant(s string) (CRCVariant, error) {
	switch v := CRCVariant(strings.ToLower(strings.TrimSpace(s))); v {
	case CRCSMBus, CRCMaxim:
		return v, nil
	case "":
		return DefaultCRCVariant, nil
	default:
		return "", fmt.Errorf("%w: unknown CRC variant %q", ErrInvalidParameter, s)
	}
}

func (v CRCVariant) table() (*frame.Table, error) {
	switch v {
	case CRCSMBus, "":
		return frame.SMBus, nil
	case CRCMaxim:
		return frame.Maxim, nil
	default:
		return nil, fmt.Errorf("%w: unknown CRC variant %q", ErrInvalidParameter, string(v))
	}
}

// Checksum computes the CRC-8 of data with the variant's table
func (v CRCVariant) Checksum(data []byte) (byte, error) {
	t, err := v.table()
	if err != nil {
		return 0, err
	}
	return t.Checksum(data), nil
}

// Decoder validates and decodes frames. It holds only an immutable table and
// is safe for concurrent use.
type Decoder struct {
	table *frame.Table
}

// NewDecoder returns a decoder for the given CRC variant
func NewDecoder(variant CRCVariant) (*Decoder, error) {
	t, err := variant.table()
	if err != nil {
		return nil, err
	}
	return &Decoder{table: t}, nil
}

var defaultDecoder = &Decoder{table: frame.SMBus}

// Decode decodes f with the default CRC variant
func Decode(f Frame) (Sample, error) {
	return defaultDecoder.Decode(f)
}

// Decode checks the header, then the checksum, then extracts and classifies
// the distance field. Rejections are returned as *FrameError wrapping
// ErrHeaderMismatch or ErrChecksumFailed.
func (d *Decoder) Decode(f Frame) (Sample, error) {
	if f[frame.OffsetHeader] != frame.Header {
		return Sample{}, &FrameError{Frame: f, Err: ErrHeaderMismatch}
	}

	if crc := d.table.Checksum(f[:frame.CoveredSize]); crc != f[frame.OffsetCRC] {
		return Sample{}, &FrameError{
			Frame: f,
			Err:   fmt.Errorf("%w: computed 0x%02X, frame carries 0x%02X", ErrChecksumFailed, crc, f[frame.OffsetCRC]),
		}
	}

	return NewSample(f.RawCode()), nil
}

// Encode builds a valid frame carrying raw, checksummed with the decoder's table
func (d *Decoder) Encode(raw uint16) Frame {
	return Frame(frame.Encode(raw, d.table))
}

// Variant returns the CRC variant the decoder validates with
func (d *Decoder) Variant() CRCVariant {
	return CRCVariant(d.table.Name())
}
