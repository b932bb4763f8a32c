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

package detection

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// USBID identifies a USB function by vendor and product id, both held as
// four upper-case hex digits.
type USBID struct {
	VID string
	PID string
}

// ParseUSBID parses "VVVV:PPPP". Ids shorter than four digits are zero
// padded, so "483:5740" and "0483:5740" are the same device.
func ParseUSBID(s string) (USBID, bool) {
	vid, pid, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return USBID{}, false
	}
	v, okV := normalizeHexID(vid)
	p, okP := normalizeHexID(pid)
	if !okV || !okP {
		return USBID{}, false
	}
	return USBID{VID: v, PID: p}, true
}

func normalizeHexID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 4 {
		return "", false
	}
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%04X", n), true
}

// String renders the id as "VVVV:PPPP"
func (id USBID) String() string {
	return id.VID + ":" + id.PID
}

// DefaultBlocklist returns USB serial bridges that share the sensor's
// vendor id but are never a TeraRanger.
func DefaultBlocklist() []string {
	return []string{
		"0483:3748", // ST-LINK/V2 debug probe
		"0483:374B", // ST-LINK/V2-1 virtual COM port
	}
}

// IsBlocked reports whether id appears in blocklist. Entries that do not
// parse as VID:PID are skipped.
func IsBlocked(id USBID, blocklist []string) bool {
	for _, entry := range blocklist {
		if blocked, ok := ParseUSBID(entry); ok && blocked == id {
			return true
		}
	}
	return false
}

// IsPathIgnored reports whether devicePath names one of ignorePaths.
// Symlinks such as /dev/serial/by-id entries are resolved on both sides, and
// the comparison ignores case so COM names match however they are typed.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}

	device := canonicalPath(devicePath)
	for _, ignored := range ignorePaths {
		if ignored == "" {
			continue
		}
		if strings.EqualFold(device, canonicalPath(ignored)) {
			return true
		}
	}
	return false
}

// canonicalPath cleans path and follows symlinks when the target exists.
// Paths that do not resolve, like Windows COM names, are only cleaned.
func canonicalPath(path string) string {
	cleaned := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(cleaned); err == nil {
		return resolved
	}
	return cleaned
}
