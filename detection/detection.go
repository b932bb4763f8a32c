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

// Package detection finds TeraRanger sensors attached to the host.
//
// Transport-specific detectors register themselves on import:
//
//	import _ "github.com/ZaparooProject/go-teraranger/detection/uart"
//
//	devices, err := detection.DetectAll(nil)
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Detection errors
var (
	ErrNoDevicesFound      = errors.New("no sensors found")
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
	ErrDetectionTimeout    = errors.New("detection timed out")
)

// Mode controls how intrusive detection is
type Mode int

const (
	// Passive only matches enumerated port metadata; no port is opened
	Passive Mode = iota
	// Safe opens candidate ports read-only and looks for distance frames.
	// Nothing is written to the device.
	Safe
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Passive:
		return "passive"
	case Safe:
		return "safe"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options configures detection
type Options struct {
	// Blocklist holds VID:PID pairs that must never be matched
	Blocklist []string
	// IgnorePaths holds device paths to skip
	IgnorePaths []string
	// Timeout bounds the whole detection run
	Timeout time.Duration
	// Mode selects passive matching or read-only probing
	Mode Mode
}

// DefaultOptions returns passive detection with a 5 second budget
func DefaultOptions() Options {
	return Options{
		Mode:      Passive,
		Timeout:   5 * time.Second,
		Blocklist: DefaultBlocklist(),
	}
}

// DeviceInfo describes one detected sensor
type DeviceInfo struct {
	Metadata  map[string]string
	Transport string
	Path      string
	Name      string
}

// String returns a human-readable description
func (d DeviceInfo) String() string {
	if d.Name != "" {
		return fmt.Sprintf("%s:%s (%s)", d.Transport, d.Path, d.Name)
	}
	return d.Transport + ":" + d.Path
}

// Detector finds sensors on one kind of transport
type Detector interface {
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
	Transport() string
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Detector{}
)

// RegisterDetector makes a detector available to DetectAll. Registering the
// same transport twice replaces the earlier detector.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Transport()] = d
}

// Detectors returns the registered detectors ordered by transport name
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Detector, 0, len(names))
	for _, name := range names {
		out = append(out, registry[name])
	}
	return out
}

// DetectAll runs every registered detector. A nil opts means DefaultOptions.
// Devices whose path is ignored are dropped. ErrNoDevicesFound is returned
// when nothing matched.
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		o := DefaultOptions()
		opts = &o
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	return DetectAllContext(ctx, opts)
}

// DetectAllContext is DetectAll bounded by ctx instead of opts.Timeout
func DetectAllContext(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		o := DefaultOptions()
		opts = &o
	}

	detectors := Detectors()
	if len(detectors) == 0 {
		return nil, ErrUnsupportedPlatform
	}

	var (
		devices []DeviceInfo
		errs    []error
	)
	for _, d := range detectors {
		if err := ctx.Err(); err != nil {
			return devices, fmt.Errorf("%w: %w", ErrDetectionTimeout, err)
		}

		found, err := d.Detect(ctx, opts)
		if err != nil && !errors.Is(err, ErrNoDevicesFound) && !errors.Is(err, ErrUnsupportedPlatform) {
			errs = append(errs, fmt.Errorf("%s: %w", d.Transport(), err))
		}
		for _, dev := range found {
			if IsPathIgnored(dev.Path, opts.IgnorePaths) {
				continue
			}
			devices = append(devices, dev)
		}
	}

	if len(devices) == 0 {
		if len(errs) > 0 {
			return nil, errors.Join(append([]error{ErrNoDevicesFound}, errs...)...)
		}
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}
