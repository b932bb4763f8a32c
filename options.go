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
	"time"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithConfig replaces the whole device configuration
func WithConfig(config *Config) Option {
	return func(d *Device) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidParameter)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		c := *config
		d.config = &c
		return nil
	}
}

// WithCRCVariant selects the CRC table matching the sensor firmware
func WithCRCVariant(variant CRCVariant) Option {
	return func(d *Device) error {
		if _, err := variant.table(); err != nil {
			return err
		}
		d.config.CRC = variant
		return nil
	}
}

// WithResync selects the resynchronization strategy
func WithResync(strategy ResyncStrategy) Option {
	return func(d *Device) error {
		if strategy != ResyncWholeFrame && strategy != ResyncHeaderHunt {
			return fmt.Errorf("%w: resync strategy %d", ErrInvalidParameter, int(strategy))
		}
		d.config.Resync = strategy
		return nil
	}
}

// WithMode sets the output mode requested by Init
func WithMode(mode Mode) Option {
	return func(d *Device) error {
		if _, err := mode.Command(); err != nil {
			return err
		}
		d.config.Mode = mode
		return nil
	}
}

// WithTimestamps attaches capture times to samples
func WithTimestamps(enabled bool) Option {
	return func(d *Device) error {
		d.config.Timestamps = enabled
		return nil
	}
}

// WithTimeout sets the transport read timeout
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		return d.SetTimeout(timeout)
	}
}

// WithProgressInterval sets how often progress is reported during Run
func WithProgressInterval(interval time.Duration) Option {
	return func(d *Device) error {
		if interval < 0 {
			return fmt.Errorf("%w: negative progress interval", ErrInvalidParameter)
		}
		d.config.ProgressInterval = interval
		return nil
	}
}
