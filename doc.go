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

/*
Package teraranger provides a pure Go library for reading TeraRanger Evo
time-of-flight distance sensors.

In binary mode the Evo streams 4-byte frames with no delimiter: a 0x54
header, the distance in millimetres as a little-endian 16-bit value and a
CRC-8 of the first three bytes. This package finds frame boundaries in that
stream, validates them and turns them into Samples.

Features:
  - CRC-8 validation with the SMBus (0x07) or Dallas/Maxim (0x31) table
  - Sentinel decoding: too close (-inf), no reading (-1), too far (+inf)
  - Whole-frame or header-hunt resynchronization after a bad window
  - Optional capture timestamps
  - Pluggable sinks, plus console, binary log and SQLite sinks in sink and store
  - USB serial auto-detection
  - Range monitoring with hysteresis in monitor

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-teraranger"
	    "github.com/ZaparooProject/go-teraranger/transport/uart"
	)

	// Create a UART transport
	transport, err := uart.New("/dev/ttyACM0")
	if err != nil {
	    log.Fatal(err)
	}

	// Create the device and switch it to binary output
	device, err := teraranger.New(transport,
	    teraranger.WithResync(teraranger.ResyncHeaderHunt),
	    teraranger.WithTimestamps(true),
	)
	if err != nil {
	    log.Fatal(err)
	}
	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	// Read 1000 samples; the transport is closed when Run returns
	summary, err := device.Run(ctx, teraranger.SinkFunc(func(s teraranger.Sample) error {
	    fmt.Println(s)
	    return nil
	}), 1000)

Samples can also be pulled lazily:

	pipeline, err := device.NewPipeline()
	for s := range pipeline.Samples(ctx) {
	    if mm, ok := s.Millimeters(); ok && mm < 300 {
	        break
	    }
	}
	if err := pipeline.Err(); err != nil {
	    log.Fatal(err)
	}

Error Handling:

Bad frames and read timeouts are counted in the Summary and never end a run.
They are reported through Pipeline.OnEvent and can be inspected:

	if errors.Is(ev.Err, teraranger.ErrChecksumFailed) {
	    // wrong CRC table, or line noise
	}

A transport failure or a sink error ends the run and is returned from Run.

Thread Safety:

Device and Pipeline are not thread-safe, apart from Pipeline.Summary which
may be read while a run is in progress. Decoders and CRC tables are
immutable and may be shared.
*/
package teraranger
