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

// readrange reads distance samples from a TeraRanger Evo over a serial link
// and prints, logs, stores or analyzes them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	teraranger "github.com/ZaparooProject/go-teraranger"
	// Register the serial port detector for auto-detection
	_ "github.com/ZaparooProject/go-teraranger/detection/uart"
)

type config struct {
	devicePath  *string
	mode        *string
	crc         *string
	resync      *string
	logDir      *string
	dbPath      *string
	samples     *int
	baudRate    *int
	minDistance *uint
	maxDistance *uint
	readTimeout *time.Duration
	duration    *time.Duration
	progress    *time.Duration
	timestamps  *bool
	meters      *bool
	analyze     *bool
	watch       *bool
	list        *bool
	sessions    *bool
	debug       *bool
}

// settings holds the parsed, validated form of the enum flags
type settings struct {
	crc    teraranger.CRCVariant
	resync teraranger.ResyncStrategy
	mode   teraranger.Mode
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Serial device path (e.g., /dev/ttyACM0 or COM3). Leave empty for auto-detection."),
		mode:     flag.String("mode", "binary", "Output mode: binary or text"),
		crc:      flag.String("crc", "smbus", "CRC-8 table used by the firmware: smbus or maxim"),
		resync:   flag.String("resync", "frame", "Resync after a bad frame: frame (discard 4 bytes) or hunt (seek next header)"),
		logDir:   flag.String("log-dir", "", "Write binary time/distance logs into this directory"),
		dbPath:   flag.String("db", "", "Record the session into this SQLite database"),
		samples:  flag.Int("samples", 0, "Stop after this many valid samples (0 = until interrupted)"),
		baudRate: flag.Int("baud", 115200, "Baud rate (4800, 9600, 19200, 38400 or 115200)"),
		minDistance: flag.Uint("min", 0,
			"Watch mode: closest in-range distance in mm (0 = unbounded)"),
		maxDistance: flag.Uint("max", 0,
			"Watch mode: farthest in-range distance in mm (0 = unbounded)"),
		readTimeout: flag.Duration("read-timeout", 100*time.Millisecond, "Serial read timeout"),
		duration:    flag.Duration("duration", 0, "Stop after this long (0 = no limit)"),
		progress:    flag.Duration("progress", 0, "Print running counters at this interval (0 = off)"),
		timestamps:  flag.Bool("timestamps", false, "Prefix each reading with its capture time"),
		meters:      flag.Bool("meters", false, "Print distances in metres instead of millimetres"),
		analyze:     flag.Bool("analyze", false, "Print statistics and the dominant frequency when done"),
		watch:       flag.Bool("watch", false, "Report range-state changes instead of every reading"),
		list:        flag.Bool("list", false, "List detected sensors and exit"),
		sessions:    flag.Bool("sessions", false, "List sessions stored in -db and exit"),
		debug:       flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()

	if *cfg.debug {
		teraranger.SetDebugEnabled(true)
	}

	return cfg
}

func parseSettings(cfg *config) (*settings, error) {
	mode, err := teraranger.ParseMode(*cfg.mode)
	if err != nil {
		return nil, err
	}
	crc, err := teraranger.ParseCRCVariant(*cfg.crc)
	if err != nil {
		return nil, err
	}
	resync, err := teraranger.ParseResyncStrategy(*cfg.resync)
	if err != nil {
		return nil, err
	}
	if *cfg.readTimeout <= 0 {
		return nil, fmt.Errorf("%w: read timeout must be positive", teraranger.ErrInvalidParameter)
	}
	if *cfg.maxDistance > 0xFFFE || *cfg.minDistance > 0xFFFE {
		return nil, fmt.Errorf("%w: distance window out of range", teraranger.ErrInvalidParameter)
	}
	return &settings{mode: mode, crc: crc, resync: resync}, nil
}

func buildConnectOptions(cfg *config, s *settings, out *Output) []teraranger.ConnectOption {
	factories := transportFactories{baudRate: *cfg.baudRate, readTimeout: *cfg.readTimeout}

	var connectOpts []teraranger.ConnectOption
	if *cfg.devicePath == "" {
		connectOpts = append(connectOpts,
			teraranger.WithAutoDetection(),
			teraranger.WithTransportFromDeviceFactory(factories.fromDevice))
		out.Info("Auto-detecting TeraRanger sensors...")
	} else {
		connectOpts = append(connectOpts, teraranger.WithTransportFactory(factories.fromPath))
		out.Info("Opening device: %s", *cfg.devicePath)
	}

	connectOpts = append(connectOpts, teraranger.WithDeviceOptions(
		teraranger.WithMode(s.mode),
		teraranger.WithCRCVariant(s.crc),
		teraranger.WithResync(s.resync),
		teraranger.WithTimestamps(needsTimestamps(cfg)),
		teraranger.WithTimeout(*cfg.readTimeout),
		teraranger.WithProgressInterval(*cfg.progress),
	))
	return connectOpts
}

// needsTimestamps reports whether any requested output uses capture times
func needsTimestamps(cfg *config) bool {
	return *cfg.timestamps || *cfg.analyze || *cfg.logDir != ""
}

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func run() int {
	cfg := parseFlags()
	out := NewOutput(os.Stdout, os.Stderr, *cfg.debug)

	if *cfg.list {
		return listDevices(out)
	}
	if *cfg.sessions {
		return listSessions(out, *cfg.dbPath)
	}

	s, err := parseSettings(cfg)
	if err != nil {
		out.Error("%v", err)
		flag.Usage()
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *cfg.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *cfg.duration)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			out.Notice("\nShutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	device, err := teraranger.ConnectDevice(*cfg.devicePath, buildConnectOptions(cfg, s, out)...)
	if err != nil {
		out.Error("failed to connect to sensor: %v", err)
		return 1
	}
	defer func() { _ = device.Close() }()

	switch {
	case s.mode == teraranger.ModeText:
		err = dumpText(ctx, device.Transport(), out.Stdout(), *cfg.samples)
	case *cfg.watch:
		err = runWatch(ctx, device, cfg, out)
	default:
		err = runCapture(ctx, device, cfg, s, out)
	}

	if err != nil && !isCleanStop(err) {
		out.Error("%v", err)
		return 1
	}
	return 0
}

// isCleanStop reports whether err only says the run was interrupted or timed out
func isCleanStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
