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
	"fmt"
	"io"

	teraranger "github.com/ZaparooProject/go-teraranger"
	"github.com/ZaparooProject/go-teraranger/detection"
	"github.com/ZaparooProject/go-teraranger/monitor"
	"github.com/ZaparooProject/go-teraranger/store"
)

// Output handles consistent formatting of messages. Samples go to stdout so
// they can be piped; everything else goes to stderr.
type Output struct {
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
}

// NewOutput creates a new output handler
func NewOutput(stdout, stderr io.Writer, verbose bool) *Output {
	return &Output{stdout: stdout, stderr: stderr, verbose: verbose}
}

// Stdout returns the writer samples are printed to
func (o *Output) Stdout() io.Writer {
	return o.stdout
}

// Device prints one detected sensor
func (o *Output) Device(i int, d detection.DeviceInfo) {
	_, _ = fmt.Fprintf(o.stdout, "%d: %s\n", i+1, d.String())
	if o.verbose {
		for k, v := range d.Metadata {
			_, _ = fmt.Fprintf(o.stdout, "     %s=%s\n", k, v)
		}
	}
}

// Session prints one stored session
func (o *Output) Session(r store.SessionRecord) {
	status := "ok"
	switch {
	case r.FinishedAt.IsZero():
		status = "unfinished"
	case r.Error != "":
		status = r.Error
	}
	_, _ = fmt.Fprintf(o.stdout, "%s  %s  %s crc=%s resync=%s valid=%d invalid=%d  %s\n",
		r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Device, r.CRC, r.Resync,
		r.Summary.Valid, r.Summary.Invalid(), status)
}

// Summary prints the run counters
func (o *Output) Summary(s teraranger.Summary) {
	_, _ = fmt.Fprintf(o.stderr, "SUMMARY: %s\n", s.String())
}

// Progress prints the running counters
func (o *Output) Progress(s teraranger.Summary) {
	_, _ = fmt.Fprintf(o.stderr, "PROGRESS: valid=%d invalid=%d timeouts=%d\n",
		s.Valid, s.Invalid(), s.Timeouts)
}

// Rejected prints a rejected frame in verbose mode
func (o *Output) Rejected(ev teraranger.Event) {
	if !o.verbose {
		return
	}
	switch ev.Kind {
	case teraranger.EventHeaderMismatch, teraranger.EventChecksumFailed:
		_, _ = fmt.Fprintf(o.stderr, "REJECT: %v\n", ev.Err)
	case teraranger.EventTimeout:
		_, _ = fmt.Fprint(o.stderr, "REJECT: read timeout\n")
	case teraranger.EventSample:
	}
}

// StateChanged prints a range-state transition
func (o *Output) StateChanged(from, to monitor.RangeState, s teraranger.Sample) {
	_, _ = fmt.Fprintf(o.stdout, "STATE: %s -> %s (%s)\n", from, to, s.String())
}

// Error prints an error message
func (o *Output) Error(format string, args ...any) {
	_, _ = fmt.Fprintf(o.stderr, "ERROR: "+format+"\n", args...)
}

// Warning prints a warning message
func (o *Output) Warning(format string, args ...any) {
	_, _ = fmt.Fprintf(o.stderr, "WARNING: "+format+"\n", args...)
}

// Info prints an info message
func (o *Output) Info(format string, args ...any) {
	_, _ = fmt.Fprintf(o.stderr, "INFO: "+format+"\n", args...)
}

// Notice prints a bare message to stderr
func (o *Output) Notice(msg string) {
	_, _ = fmt.Fprintln(o.stderr, msg)
}

// Verbose prints only if verbose mode is enabled
func (o *Output) Verbose(format string, args ...any) {
	if o.verbose {
		_, _ = fmt.Fprintf(o.stderr, format+"\n", args...)
	}
}
