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
	"errors"
	"fmt"
	"strings"
	"time"

	teraranger "github.com/ZaparooProject/go-teraranger"
	"github.com/ZaparooProject/go-teraranger/detection"
	"github.com/ZaparooProject/go-teraranger/transport/uart"
)

// transportFactories opens serial transports with the CLI's line settings
type transportFactories struct {
	baudRate    int
	readTimeout time.Duration
}

func (f transportFactories) options() []uart.Option {
	return []uart.Option{uart.WithBaudRate(f.baudRate), uart.WithReadTimeout(f.readTimeout)}
}

// fromPath creates a new transport from a device path.
func (f transportFactories) fromPath(path string) (teraranger.Transport, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}

	transport, err := uart.New(path, f.options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport: %w", err)
	}
	return transport, nil
}

// fromDevice creates a new transport from a detected device.
func (f transportFactories) fromDevice(device detection.DeviceInfo) (teraranger.Transport, error) {
	switch strings.ToLower(device.Transport) {
	case "uart":
		return f.fromPath(device.Path)
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", device.Transport)
	}
}
