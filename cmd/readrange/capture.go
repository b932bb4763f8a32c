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
	"path/filepath"
	"time"

	teraranger "github.com/ZaparooProject/go-teraranger"
	"github.com/ZaparooProject/go-teraranger/analysis"
	"github.com/ZaparooProject/go-teraranger/sink"
	"github.com/ZaparooProject/go-teraranger/store"
)

// capture holds the sinks of one run and finalizes them afterwards
type capture struct {
	out       *Output
	binlog    *sink.BinaryLog
	db        *store.Store
	session   *store.Session
	collector *sink.Collector
	sinks     sink.Multi
}

func openCapture(ctx context.Context, device *teraranger.Device, cfg *config, s *settings, out *Output) (*capture, error) {
	format := sink.FormatMillimeters
	if *cfg.meters {
		format = sink.FormatMeters
	}
	c := &capture{
		out:   out,
		sinks: sink.Multi{sink.NewConsole(out.Stdout(), format, *cfg.timestamps)},
	}

	if *cfg.logDir != "" {
		prefix := time.Now().Format("20060102-150405")
		binlog, err := sink.CreateBinaryLog(*cfg.logDir, prefix)
		if err != nil {
			return nil, err
		}
		c.binlog = binlog
		c.sinks = append(c.sinks, binlog)
		out.Info("Logging to %s", filepath.Join(*cfg.logDir, prefix)+"{"+sink.TimeSuffix+","+sink.DistanceSuffix+"}")
	}

	if *cfg.dbPath != "" {
		db, err := store.Open(*cfg.dbPath)
		if err != nil {
			c.close()
			return nil, err
		}
		c.db = db
		session, err := db.BeginSession(ctx, store.SessionInfo{
			Device: portLabel(device.Transport()),
			CRC:    s.crc,
			Resync: s.resync,
		})
		if err != nil {
			c.close()
			return nil, err
		}
		c.session = session
		c.sinks = append(c.sinks, session)
	}

	if *cfg.analyze {
		c.collector = sink.NewCollector(0)
		c.sinks = append(c.sinks, c.collector)
	}
	return c, nil
}

// finish flushes logs, records the session and prints the analysis
func (c *capture) finish(summary teraranger.Summary, runErr error) {
	if c.session != nil {
		recorded := runErr
		if isCleanStop(recorded) {
			recorded = nil
		}
		if err := c.session.Finish(context.Background(), summary, recorded); err != nil {
			c.out.Warning("failed to record session: %v", err)
		} else {
			c.out.Info("Session %s stored in database", c.session.ID)
		}
	}

	c.close()

	if c.collector != nil {
		printReport(c.out, c.collector.Samples())
	}
}

func (c *capture) close() {
	if err := c.sinks.Close(); err != nil {
		c.out.Warning("failed to close logs: %v", err)
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.out.Warning("failed to close database: %v", err)
		}
	}
}

func runCapture(ctx context.Context, device *teraranger.Device, cfg *config, s *settings, out *Output) error {
	c, err := openCapture(ctx, device, cfg, s, out)
	if err != nil {
		return err
	}

	device.OnEvent = out.Rejected
	device.OnProgress = out.Progress

	summary, runErr := device.Run(ctx, c.sinks, *cfg.samples)
	out.Summary(summary)
	c.finish(summary, runErr)
	return runErr
}

func printReport(out *Output, samples []teraranger.Sample) {
	report, err := analysis.Analyze(samples)
	switch {
	case err == nil:
		out.Notice(report.String())
	case errors.Is(err, analysis.ErrTooFewSamples), errors.Is(err, analysis.ErrNoTimestamps):
		out.Notice(fmt.Sprintf("samples: %d, mean %.1f mm, stddev %.1f mm",
			report.Count, report.Mean, report.StdDev))
		out.Warning("no frequency analysis: %v", err)
	default:
		out.Warning("analysis failed: %v", err)
	}
}

// portLabel names the transport for session records
func portLabel(t teraranger.Transport) string {
	if namer, ok := t.(teraranger.PortNamer); ok {
		return namer.PortName()
	}
	return string(t.Type())
}
