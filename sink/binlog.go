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

package sink

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	teraranger "github.com/ZaparooProject/go-teraranger"
)

// Record sizes of the two binary log streams
const (
	TimeRecordSize     = 4
	DistanceRecordSize = 2
)

// File suffixes used by CreateBinaryLog
const (
	TimeSuffix     = "_time.bin"
	DistanceSuffix = "_dist.bin"
)

// ErrLogMismatch is returned when the two streams hold different record counts
var ErrLogMismatch = errors.New("binary log streams are out of step")

// Record is one entry of a binary log pair
type Record struct {
	// Delta is the time since the previous sample, in microsecond resolution.
	// It is zero for the first sample and when timestamps are off.
	Delta time.Duration
	Raw   uint16
}

// Sample returns the record as an untimed sample
func (r Record) Sample() teraranger.Sample {
	return teraranger.NewSample(r.Raw)
}

// BinaryLog writes two parallel streams, one record pair per sample: a
// 4-byte little-endian microsecond delta and a 2-byte little-endian raw code.
type BinaryLog struct {
	prev    time.Time
	times   *bufio.Writer
	codes   *bufio.Writer
	closers []io.Closer
	records int
	mu      sync.Mutex
}

// NewBinaryLog writes to the given streams. Close flushes but does not close them.
func NewBinaryLog(times, codes io.Writer) *BinaryLog {
	return &BinaryLog{
		times: bufio.NewWriter(times),
		codes: bufio.NewWriter(codes),
	}
}

// CreateBinaryLog creates <dir>/<prefix>_time.bin and <dir>/<prefix>_dist.bin
func CreateBinaryLog(dir, prefix string) (*BinaryLog, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	base := filepath.Join(dir, prefix)
	tf, err := os.Create(base + TimeSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create time log: %w", err)
	}
	df, err := os.Create(base + DistanceSuffix)
	if err != nil {
		_ = tf.Close()
		return nil, fmt.Errorf("failed to create distance log: %w", err)
	}

	l := NewBinaryLog(tf, df)
	l.closers = []io.Closer{tf, df}
	return l, nil
}

// Consume implements teraranger.Sink
func (l *BinaryLog) Consume(s teraranger.Sample) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var delta uint32
	if s.HasTimestamp() {
		if !l.prev.IsZero() {
			us := s.CapturedAt.Sub(l.prev).Microseconds()
			switch {
			case us < 0:
				us = 0
			case us > math.MaxUint32:
				us = math.MaxUint32
			}
			delta = uint32(us)
		}
		l.prev = s.CapturedAt
	}

	var tb [TimeRecordSize]byte
	var db [DistanceRecordSize]byte
	binary.LittleEndian.PutUint32(tb[:], delta)
	binary.LittleEndian.PutUint16(db[:], s.Raw)

	if _, err := l.times.Write(tb[:]); err != nil {
		return fmt.Errorf("failed to write time record: %w", err)
	}
	if _, err := l.codes.Write(db[:]); err != nil {
		return fmt.Errorf("failed to write distance record: %w", err)
	}
	l.records++
	return nil
}

// Records returns the number of record pairs written
func (l *BinaryLog) Records() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records
}

// Flush writes buffered records to the underlying streams
func (l *BinaryLog) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Join(l.times.Flush(), l.codes.Flush())
}

// Close flushes and closes files opened by CreateBinaryLog
func (l *BinaryLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	errs := []error{l.times.Flush(), l.codes.Flush()}
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	l.closers = nil
	return errors.Join(errs...)
}

// ReadBinaryLog decodes a log pair. Both streams must end on a record
// boundary and hold the same number of records.
func ReadBinaryLog(times, codes io.Reader) ([]Record, error) {
	tr := bufio.NewReader(times)
	cr := bufio.NewReader(codes)

	var records []Record
	for {
		var tb [TimeRecordSize]byte
		var db [DistanceRecordSize]byte

		_, terr := io.ReadFull(tr, tb[:])
		_, cerr := io.ReadFull(cr, db[:])

		if errors.Is(terr, io.EOF) && errors.Is(cerr, io.EOF) {
			return records, nil
		}
		if terr != nil || cerr != nil {
			if terr == nil || cerr == nil || errors.Is(terr, io.EOF) || errors.Is(cerr, io.EOF) {
				return records, fmt.Errorf("%w after %d records", ErrLogMismatch, len(records))
			}
			return records, fmt.Errorf("failed to read record %d: %w", len(records), errors.Join(terr, cerr))
		}

		records = append(records, Record{
			Delta: time.Duration(binary.LittleEndian.Uint32(tb[:])) * time.Microsecond,
			Raw:   binary.LittleEndian.Uint16(db[:]),
		})
	}
}

// OpenBinaryLog reads the log pair written by CreateBinaryLog
func OpenBinaryLog(dir, prefix string) ([]Record, error) {
	base := filepath.Join(dir, prefix)
	tf, err := os.Open(base + TimeSuffix)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tf.Close() }()

	df, err := os.Open(base + DistanceSuffix)
	if err != nil {
		return nil, err
	}
	defer func() { _ = df.Close() }()

	return ReadBinaryLog(tf, df)
}
