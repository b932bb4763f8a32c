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
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"
)

// Config holds the decode settings shared by Device and Pipeline
type Config struct {
	// CRC selects the checksum table the firmware uses
	CRC CRCVariant
	// Resync selects how the stream realigns after a rejected window
	Resync ResyncStrategy
	// Mode is the output mode requested during Init
	Mode Mode
	// Timeout is the transport read timeout applied before the first read
	Timeout time.Duration
	// ProgressInterval is how often OnProgress fires; zero disables it
	ProgressInterval time.Duration
	// Timestamps attaches a capture time to every sample
	Timestamps bool
}

// DefaultConfig returns the configuration used by the reference tools:
// SMBus CRC, whole-frame resync, binary mode and a 100ms read timeout.
func DefaultConfig() *Config {
	return &Config{
		CRC:     DefaultCRCVariant,
		Resync:  ResyncWholeFrame,
		Mode:    ModeBinary,
		Timeout: 100 * time.Millisecond,
	}
}

// Validate checks that every field holds a known value
func (c *Config) Validate() error {
	if _, err := c.CRC.table(); err != nil {
		return err
	}
	if c.Resync != ResyncWholeFrame && c.Resync != ResyncHeaderHunt {
		return fmt.Errorf("%w: resync strategy %d", ErrInvalidParameter, int(c.Resync))
	}
	if _, err := c.Mode.Command(); err != nil {
		return err
	}
	if c.Timeout < 0 || c.ProgressInterval < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidParameter)
	}
	return nil
}

// Summary aggregates the outcome of a pipeline run
type Summary struct {
	Valid            int
	HeaderMismatches int
	ChecksumFailures int
	Timeouts         int
	Bytes            uint64
	Elapsed          time.Duration
}

// Invalid returns the number of rejected frames
func (s Summary) Invalid() int {
	return s.HeaderMismatches + s.ChecksumFailures
}

// String returns a one-line report
func (s Summary) String() string {
	return fmt.Sprintf("valid=%d header_mismatch=%d checksum_failed=%d timeouts=%d bytes=%d elapsed=%s",
		s.Valid, s.HeaderMismatches, s.ChecksumFailures, s.Timeouts, s.Bytes, s.Elapsed.Round(time.Millisecond))
}

// Sink receives every valid sample. A non-nil error ends the run.
type Sink interface {
	Consume(Sample) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Sample) error

// Consume calls f(s)
func (f SinkFunc) Consume(s Sample) error {
	return f(s)
}

// EventKind identifies what happened to one read attempt
type EventKind int

const (
	// EventSample is a decoded sample
	EventSample EventKind = iota
	// EventHeaderMismatch is a window rejected for its first byte
	EventHeaderMismatch
	// EventChecksumFailed is a window rejected by the CRC
	EventChecksumFailed
	// EventTimeout is a read that came back short
	EventTimeout
)

// String returns the event name
func (k EventKind) String() string {
	switch k {
	case EventSample:
		return "sample"
	case EventHeaderMismatch:
		return "header_mismatch"
	case EventChecksumFailed:
		return "checksum_failed"
	case EventTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event describes one read attempt. Frame is zero for timeouts, Sample is
// zero for everything but EventSample.
type Event struct {
	Err    error
	Sample Sample
	Frame  Frame
	Kind   EventKind
}

type pipelineState int

const (
	pipelineIdle pipelineState = iota
	pipelineRunning
	pipelineDone
)

// errStopIteration ends a run started by Samples when the consumer breaks out
var errStopIteration = errors.New("sample iteration stopped")

// Pipeline drives a Synchronizer and Decoder over one transport until the
// sample budget is met, the transport fails or the context is cancelled.
// A pipeline runs once. It owns the transport and closes it on return.
type Pipeline struct {
	transport Transport
	sync      *Synchronizer
	decoder   *Decoder
	err       error
	now       func() time.Time

	// OnEvent, when set, is called synchronously for every read attempt
	OnEvent func(Event)
	// OnProgress, when set, is called with the running summary every
	// Config.ProgressInterval
	OnProgress func(Summary)

	config  Config
	summary Summary
	state   pipelineState
	mu      sync.Mutex
}

// NewPipeline creates a pipeline over transport. A nil config means
// DefaultConfig().
func NewPipeline(transport Transport, config *Config) (*Pipeline, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	decoder, err := NewDecoder(config.CRC)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		transport: transport,
		sync:      NewSynchronizer(transport, config.Resync),
		decoder:   decoder,
		config:    *config,
		now:       time.Now,
	}, nil
}

// Summary returns a snapshot of the counters
func (p *Pipeline) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary
}

// Err returns the error that ended the last run, or nil when it ended on its
// budget or because the consumer stopped iterating.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Run decodes frames and forwards valid samples to sink until budget samples
// were produced (budget <= 0 means unbounded). Per-frame errors and timeouts
// are counted and never end the run. The returned error is nil on budget
// completion, ctx.Err() on cancellation, or the transport or sink failure.
func (p *Pipeline) Run(ctx context.Context, sink Sink, budget int) (Summary, error) {
	if err := p.begin(); err != nil {
		return p.Summary(), err
	}

	err := p.loop(ctx, sink, budget)
	if errors.Is(err, errStopIteration) {
		err = nil
	}

	if cerr := p.transport.Close(); cerr != nil {
		debugf("closing transport: %v", cerr)
	}

	p.mu.Lock()
	p.err = err
	p.state = pipelineDone
	summary := p.summary
	p.mu.Unlock()

	debugf("pipeline finished: %s", summary)
	return summary, err
}

// Samples returns a lazy sequence over the decoded samples. Breaking out of
// the loop stops the pipeline; check Err afterwards for the terminal error.
func (p *Pipeline) Samples(ctx context.Context) iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		sink := SinkFunc(func(s Sample) error {
			if !yield(s) {
				return errStopIteration
			}
			return nil
		})
		if _, err := p.Run(ctx, sink, 0); err != nil {
			debugf("sample sequence ended: %v", err)
		}
	}
}

func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != pipelineIdle {
		return ErrPipelineClosed
	}
	p.state = pipelineRunning
	return nil
}

func (p *Pipeline) loop(ctx context.Context, sink Sink, budget int) error {
	start := p.now()
	lastProgress := start

	if p.config.Timeout > 0 {
		if err := p.transport.SetTimeout(p.config.Timeout); err != nil {
			return NewFailureError("set timeout", portName(p.transport), err)
		}
	}

	for budget <= 0 || p.Summary().Valid < budget {
		if err := ctx.Err(); err != nil {
			p.finishElapsed(start)
			return err
		}

		if err := p.step(sink); err != nil {
			p.finishElapsed(start)
			return err
		}

		if p.OnProgress != nil && p.config.ProgressInterval > 0 {
			if now := p.now(); now.Sub(lastProgress) >= p.config.ProgressInterval {
				lastProgress = now
				p.finishElapsed(start)
				p.OnProgress(p.Summary())
			}
		}
	}

	p.finishElapsed(start)
	return nil
}

// step performs one read-decode attempt. Only fatal conditions are returned.
func (p *Pipeline) step(sink Sink) error {
	f, err := p.sync.NextFrame()
	p.mu.Lock()
	p.summary.Bytes = p.sync.Cursor()
	p.mu.Unlock()

	if err != nil {
		if !errors.Is(err, ErrTimeout) {
			return err
		}
		p.count(func(s *Summary) { s.Timeouts++ })
		p.emit(Event{Kind: EventTimeout, Err: err})
		return nil
	}

	var captured time.Time
	if p.config.Timestamps {
		captured = p.now()
	}

	sample, err := p.decoder.Decode(f)
	if err != nil {
		kind := EventChecksumFailed
		if errors.Is(err, ErrHeaderMismatch) {
			kind = EventHeaderMismatch
			p.count(func(s *Summary) { s.HeaderMismatches++ })
		} else {
			p.count(func(s *Summary) { s.ChecksumFailures++ })
		}
		dropped := p.sync.Reject(f)
		debugf("rejected %s (%v), dropped %d bytes", f, err, dropped)
		p.emit(Event{Kind: kind, Frame: f, Err: err})
		return nil
	}

	sample.CapturedAt = captured
	p.count(func(s *Summary) { s.Valid++ })
	p.emit(Event{Kind: EventSample, Frame: f, Sample: sample})

	if sink != nil {
		if err := sink.Consume(sample); err != nil {
			if errors.Is(err, errStopIteration) {
				return err
			}
			return fmt.Errorf("sink: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) count(fn func(*Summary)) {
	p.mu.Lock()
	fn(&p.summary)
	p.mu.Unlock()
}

func (p *Pipeline) emit(ev Event) {
	if p.OnEvent != nil {
		p.OnEvent(ev)
	}
}

func (p *Pipeline) finishElapsed(start time.Time) {
	elapsed := p.now().Sub(start)
	p.mu.Lock()
	p.summary.Elapsed = elapsed
	p.mu.Unlock()
}
