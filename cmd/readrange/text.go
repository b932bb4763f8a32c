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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

// textRecordSize is the length of one ASCII reading in text mode
const textRecordSize = 7

// dumpText copies text-mode records to w unchanged until budget records were
// read (budget <= 0 means unbounded), ctx is done or the transport fails.
// A record split by a read timeout is completed by the next read.
func dumpText(ctx context.Context, t teraranger.Transport, w io.Writer, budget int) error {
	defer func() { _ = t.Close() }()

	buf := make([]byte, textRecordSize)
	filled := 0
	for records := 0; budget <= 0 || records < budget; {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := t.ReadExact(buf[filled:])
		if n > 0 {
			if _, werr := w.Write(buf[filled : filled+n]); werr != nil {
				return fmt.Errorf("write output: %w", werr)
			}
			filled += n
		}
		if err != nil && !errors.Is(err, teraranger.ErrTimeout) {
			return fmt.Errorf("read text record: %w", err)
		}
		if filled == textRecordSize {
			records++
			filled = 0
		}
	}
	return nil
}
