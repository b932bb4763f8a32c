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
)

// Frame errors. These are per-frame and recoverable: the pipeline counts them
// and moves on to the next window.
var (
	ErrHeaderMismatch = errors.New("frame header mismatch")
	ErrChecksumFailed = errors.New("frame checksum failed")
)

// Transport errors
var (
	ErrTimeout          = errors.New("read timeout")
	ErrTransportFailure = errors.New("transport failure")
	ErrTransportClosed  = errors.New("transport closed")
	ErrWriteFailed      = errors.New("write failed")
	ErrDeviceNotFound   = errors.New("device not found")
)

// Device and pipeline errors
var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrAlreadyInitialized = errors.New("device already initialized")
	ErrNotInitialized     = errors.New("device not initialized")
	ErrPipelineClosed     = errors.New("pipeline already finished")
)

// ErrorType classifies how an error should be handled
type ErrorType int

const (
	// ErrorTypePermanent errors end the session
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors affect a single frame or write
	ErrorTypeTransient
	// ErrorTypeTimeout errors mean the link went quiet for one read window
	ErrorTypeTimeout
)

// String returns the name of the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError describes a failed transport operation
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error. Timeout and transient errors
// are marked retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError reports a read that returned fewer bytes than requested
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTimeout, ErrorTypeTimeout)
}

// NewFailureError reports an I/O failure that ends the session
func NewFailureError(op, port string, cause error) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %w", ErrTransportFailure, cause), ErrorTypePermanent)
}

// FrameError reports a rejected 4-byte window
type FrameError struct {
	Err   error
	Frame Frame
}

// Error implements the error interface
func (e *FrameError) Error() string {
	return fmt.Sprintf("%v: % X", e.Err, e.Frame[:])
}

// Unwrap returns the underlying sentinel
func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the operation that produced err may be retried
// on the same transport.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrHeaderMismatch),
		errors.Is(err, ErrChecksumFailed):
		return true
	default:
		return false
	}
}

// GetErrorType returns the ErrorType of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrHeaderMismatch), errors.Is(err, ErrChecksumFailed):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
