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
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	debugEnabled atomic.Bool
	logger       atomic.Pointer[slog.Logger]
)

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// SetDebugEnabled turns diagnostic output on or off. It is off by default.
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

// DebugEnabled reports whether diagnostic output is on
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// SetLogger redirects diagnostic output. Passing nil restores the default
// stderr logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	logger.Store(l)
}

// Logger returns the logger diagnostics currently go to. Transport and
// detection packages log through it so SetLogger covers them too.
func Logger() *slog.Logger {
	return logger.Load()
}

func debugf(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	logger.Load().Debug(fmt.Sprintf(format, args...))
}

// warnf is always emitted; it is reserved for conditions the operator should
// see even without debug output.
func warnf(format string, args ...any) {
	logger.Load().Warn(fmt.Sprintf(format, args...))
}
