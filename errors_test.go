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
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := getIsRetryableTestCases()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsRetryable(tt.err)
			if got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func getIsRetryableTestCases() []struct {
	err  error
	name string
	want bool
} {
	return []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "timeout retryable", err: ErrTimeout, want: true},
		{name: "header mismatch retryable", err: ErrHeaderMismatch, want: true},
		{name: "checksum failed retryable", err: ErrChecksumFailed, want: true},
		{name: "frame error retryable", err: &FrameError{Err: ErrChecksumFailed}, want: true},
		{name: "transport failure not retryable", err: ErrTransportFailure, want: false},
		{name: "write failed not retryable", err: ErrWriteFailed, want: false},
		{name: "device not found not retryable", err: ErrDeviceNotFound, want: false},
		{name: "invalid parameter not retryable", err: ErrInvalidParameter, want: false},
		{name: "wrapped timeout retryable", err: fmt.Errorf("outer: %w", ErrTimeout), want: true},
		{name: "string lookalike not retryable", err: errors.New("outer: " + ErrTimeout.Error()), want: false},
	}
}

func TestIsRetryable_TransportError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "timeout error", err: NewTimeoutError("read", "/dev/ttyACM0"), want: true},
		{name: "failure error", err: NewFailureError("read", "/dev/ttyACM0", errors.New("EIO")), want: false},
		{name: "transient error", err: NewTransportError("write", "mock", ErrWriteFailed, ErrorTypeTransient), want: true},
		{name: "wrapped timeout error", err: fmt.Errorf("pipeline: %w", NewTimeoutError("read", "")), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "nil", err: nil, want: ErrorTypePermanent},
		{name: "timeout", err: ErrTimeout, want: ErrorTypeTimeout},
		{name: "header mismatch", err: ErrHeaderMismatch, want: ErrorTypeTransient},
		{name: "checksum frame error", err: &FrameError{Err: ErrChecksumFailed}, want: ErrorTypeTransient},
		{name: "transport failure", err: ErrTransportFailure, want: ErrorTypePermanent},
		{name: "timeout transport error", err: NewTimeoutError("read", "mock"), want: ErrorTypeTimeout},
		{name: "failure transport error", err: NewFailureError("read", "mock", errors.New("EIO")), want: ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetErrorType(tt.err); got != tt.want {
				t.Errorf("GetErrorType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorType_String(t *testing.T) {
	t.Parallel()

	if got := ErrorTypeTimeout.String(); got != "timeout" {
		t.Errorf("String() = %q, want timeout", got)
	}
	if got := ErrorType(42).String(); got != "ErrorType(42)" {
		t.Errorf("String() = %q, want ErrorType(42)", got)
	}
}

func TestNewTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("device busy")
	err := NewTransportError("write", "/dev/ttyACM0", cause, ErrorTypeTransient)

	if err.Op != "write" {
		t.Errorf("Op = %q, want write", err.Op)
	}
	if err.Port != "/dev/ttyACM0" {
		t.Errorf("Port = %q, want /dev/ttyACM0", err.Port)
	}
	if !err.Retryable {
		t.Error("transient errors should be retryable")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestTransportError_Error(t *testing.T) {
	t.Parallel()

	withPort := NewTimeoutError("read", "/dev/ttyACM0")
	if got := withPort.Error(); got != "read on /dev/ttyACM0: read timeout" {
		t.Errorf("Error() = %q", got)
	}

	withoutPort := NewTimeoutError("read", "")
	if got := withoutPort.Error(); got != "read: read timeout" {
		t.Errorf("Error() = %q", got)
	}
}

func TestNewFailureError(t *testing.T) {
	t.Parallel()

	cause := errors.New("input/output error")
	err := NewFailureError("read", "mock", cause)

	if !errors.Is(err, ErrTransportFailure) {
		t.Error("expected ErrTransportFailure in chain")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if err.Retryable {
		t.Error("failures must not be retryable")
	}

	var te *TransportError
	if !errors.As(err, &te) || te.Type != ErrorTypePermanent {
		t.Errorf("expected permanent TransportError, got %#v", err)
	}
}

func TestFrameError(t *testing.T) {
	t.Parallel()

	err := &FrameError{Frame: Frame{0x55, 0x64, 0x00, 0x2E}, Err: ErrHeaderMismatch}

	if !errors.Is(err, ErrHeaderMismatch) {
		t.Error("expected ErrHeaderMismatch in chain")
	}
	if errors.Is(err, ErrChecksumFailed) {
		t.Error("unexpected ErrChecksumFailed in chain")
	}
	if !strings.Contains(err.Error(), "55 64 00 2E") {
		t.Errorf("Error() = %q, want frame bytes", err.Error())
	}
}
