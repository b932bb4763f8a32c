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

	teraranger "github.com/ZaparooProject/go-teraranger"
	"github.com/ZaparooProject/go-teraranger/monitor"
)

// runWatch reports range-state changes until ctx is done or the link fails
func runWatch(ctx context.Context, device *teraranger.Device, cfg *config, out *Output) error {
	device.OnEvent = out.Rejected
	device.OnProgress = out.Progress

	pipeline, err := device.NewPipeline()
	if err != nil {
		return err
	}

	monitorConfig := monitor.DefaultConfig()
	monitorConfig.MinDistance = uint16(*cfg.minDistance)
	monitorConfig.MaxDistance = uint16(*cfg.maxDistance)

	m, err := monitor.NewMonitor(pipeline, monitorConfig)
	if err != nil {
		return err
	}
	m.OnStateChanged = out.StateChanged
	m.OnSignalLost = func() {
		out.Warning("no valid reading for %s", monitorConfig.SignalLossTimeout)
	}

	if err := m.Start(ctx); err != nil {
		return err
	}
	out.Info("Watching range (min %d mm, max %d mm); press Ctrl-C to stop",
		monitorConfig.MinDistance, monitorConfig.MaxDistance)

	err = m.Wait()
	out.Summary(m.Summary())
	return err
}
