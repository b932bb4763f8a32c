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

// Package uart detects TeraRanger Evo sensors on USB serial ports. Import it
// for its side effect of registering with the detection package.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/ZaparooProject/go-teraranger/detection"
	"github.com/ZaparooProject/go-teraranger/internal/frame"
	"github.com/ZaparooProject/go-teraranger/internal/transport"
)

// USB identifiers of the Evo USB backboard (STMicroelectronics virtual COM port)
const (
	VendorID  = "0483"
	ProductID = "5740"
)

// Probe parameters for detection.Safe mode
const (
	probeBaudRate = 115200
	probeWindow   = 500 * time.Millisecond
	probeLimit    = 64
)

var evoBackboard = detection.USBID{VID: VendorID, PID: ProductID}

// productMarkers are matched case-insensitively against the USB product string
var productMarkers = []string{"teraranger", "evo"}

// Overridable in tests
var (
	listPorts = enumerator.GetDetailedPortsList
	probePort = probeSerialPort
)

// detector implements the Detector interface for USB serial ports
type detector struct{}

// New creates a new UART detector
func New() detection.Detector {
	return &detector{}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect enumerates serial ports and returns the ones that look like a sensor
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return devices, detection.ErrDetectionTimeout
		}

		info, ok := matchPort(port, opts)
		if !ok {
			continue
		}

		if opts.Mode == detection.Safe {
			found, err := probePort(ctx, port.Name)
			if err != nil || !found {
				continue
			}
			info.Metadata["probe"] = "frames"
		}
		devices = append(devices, info)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// matchPort decides whether an enumerated port is a sensor candidate
func matchPort(port *enumerator.PortDetails, opts *detection.Options) (detection.DeviceInfo, bool) {
	if port == nil || !port.IsUSB || detection.IsPathIgnored(port.Name, opts.IgnorePaths) {
		return detection.DeviceInfo{}, false
	}

	id, hasID := detection.ParseUSBID(port.VID + ":" + port.PID)
	if hasID && detection.IsBlocked(id, opts.Blocklist) {
		return detection.DeviceInfo{}, false
	}
	if !(hasID && id == evoBackboard) && !hasProductMarker(port.Product) {
		return detection.DeviceInfo{}, false
	}

	metadata := map[string]string{}
	if hasID {
		metadata["vidpid"] = id.String()
	}
	if port.SerialNumber != "" {
		metadata["serial"] = port.SerialNumber
	}
	if port.Product != "" {
		metadata["product"] = port.Product
	}

	return detection.DeviceInfo{
		Transport: "uart",
		Path:      port.Name,
		Name:      port.Product,
		Metadata:  metadata,
	}, true
}

func hasProductMarker(product string) bool {
	product = strings.ToLower(product)
	for _, marker := range productMarkers {
		if strings.Contains(product, marker) {
			return true
		}
	}
	return false
}

// probeSerialPort opens path and reports whether a valid distance frame
// arrives within a short window. It never writes to the port.
func probeSerialPort(ctx context.Context, path string) (bool, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: probeBaudRate})
	if err != nil {
		return false, err
	}
	defer func() { _ = port.Close() }()

	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		return false, err
	}
	return scanForFrame(ctx, port)
}

// scanForFrame reads r until a frame shows up, probeLimit bytes were seen or
// probeWindow elapses.
func scanForFrame(ctx context.Context, r io.Reader) (bool, error) {
	buf := make([]byte, 0, probeLimit)
	chunk := make([]byte, 16)

	found, err := transport.Poll(ctx, probeWindow, 0, func() (bool, bool, error) {
		n, err := r.Read(chunk)
		if err != nil {
			return false, false, err
		}
		buf = append(buf, chunk[:n]...)
		if containsFrame(buf) {
			return true, true, nil
		}
		return false, len(buf) >= probeLimit, nil
	})
	if errors.Is(err, transport.ErrPollTimeout) {
		return false, nil
	}
	return found, err
}

// containsFrame reports whether data holds a header-aligned window whose CRC
// checks out under either known table.
func containsFrame(data []byte) bool {
	for i := 0; i+frame.Size <= len(data); i++ {
		if data[i] != frame.Header {
			continue
		}
		covered := data[i : i+frame.CoveredSize]
		crc := data[i+frame.OffsetCRC]
		if frame.SMBus.Checksum(covered) == crc || frame.Maxim.Checksum(covered) == crc {
			return true
		}
	}
	return false
}
