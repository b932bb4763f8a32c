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
	"time"

	"github.com/ZaparooProject/go-teraranger/detection"
	"github.com/ZaparooProject/go-teraranger/store"
)

func listDevices(out *Output) int {
	devices, err := detection.DetectAll(nil)
	if err != nil {
		if errors.Is(err, detection.ErrNoDevicesFound) {
			out.Info("No sensors found")
			return 0
		}
		out.Error("detection failed: %v", err)
		return 1
	}

	for i, d := range devices {
		out.Device(i, d)
	}
	return 0
}

func listSessions(out *Output, path string) int {
	if path == "" {
		out.Error("-sessions needs -db")
		return 1
	}

	db, err := store.Open(path)
	if err != nil {
		out.Error("%v", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sessions, err := db.Sessions(ctx)
	if err != nil {
		out.Error("%v", err)
		return 1
	}
	for _, s := range sessions {
		out.Session(s)
	}
	return 0
}
