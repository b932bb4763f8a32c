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
	"time"

	"github.com/ZaparooProject/go-teraranger/detection"
)

// Device represents a TeraRanger Evo sensor on one transport
//
// Thread Safety: Device is NOT thread-safe. Init and Run must be called from
// a single goroutine. A Run owns the transport until it returns and closes it
// on exit.
type Device struct {
	transport   Transport
	config      *Config
	initialized bool
	ran         bool
	// OnEvent and OnProgress are copied into every pipeline the device creates
	OnEvent    func(Event)
	OnProgress func(Summary)
}

// New creates a new device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	device := &Device{
		transport: transport,
		config:    DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// TransportFactory is a function type for creating transports
type TransportFactory func(path string) (Transport, error)

// TransportFromDeviceFactory is a function type for creating transports from detected devices
type TransportFromDeviceFactory func(device detection.DeviceInfo) (Transport, error)

// ConnectOption represents a functional option for ConnectDevice
type ConnectOption func(*connectConfig) error

// connectConfig holds configuration options for device connection
type connectConfig struct {
	detectionOptions       *detection.Options
	transportFactory       TransportFactory
	transportDeviceFactory TransportFromDeviceFactory
	deviceOptions          []Option
	autoDetect             bool
}

// WithAutoDetection enables automatic device detection instead of using a specific path
func WithAutoDetection() ConnectOption {
	return func(c *connectConfig) error {
		c.autoDetect = true
		return nil
	}
}

// WithDetectionOptions overrides the options used for auto-detection
func WithDetectionOptions(opts detection.Options) ConnectOption {
	return func(c *connectConfig) error {
		c.detectionOptions = &opts
		return nil
	}
}

// WithDeviceOptions adds device-level options
func WithDeviceOptions(opts ...Option) ConnectOption {
	return func(c *connectConfig) error {
		c.deviceOptions = append(c.deviceOptions, opts...)
		return nil
	}
}

// WithTransportFactory sets the transport factory function
func WithTransportFactory(factory TransportFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportFactory = factory
		return nil
	}
}

// WithTransportFromDeviceFactory sets the transport from device factory function
func WithTransportFromDeviceFactory(factory TransportFromDeviceFactory) ConnectOption {
	return func(c *connectConfig) error {
		c.transportDeviceFactory = factory
		return nil
	}
}

func applyConnectOptions(opts []ConnectOption) (*connectConfig, error) {
	config := &connectConfig{}
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply connect option: %w", err)
		}
	}
	return config, nil
}

func createTransport(path string, config *connectConfig) (Transport, error) {
	if config.autoDetect || path == "" {
		return createAutoDetectedTransport(config)
	}
	return createManualTransport(path, config.transportFactory)
}

// ConnectDevice opens a transport for path (or the first detected sensor),
// creates a Device and sends the mode-select command. The transport is closed
// if anything after opening it fails.
//
// Example usage:
//
//	// Connect to a specific port
//	device, err := teraranger.ConnectDevice("/dev/ttyACM0",
//		teraranger.WithTransportFactory(openUART))
//
//	// Auto-detect the sensor
//	device, err := teraranger.ConnectDevice("", teraranger.WithAutoDetection(),
//		teraranger.WithTransportFromDeviceFactory(openDetected))
func ConnectDevice(path string, opts ...ConnectOption) (*Device, error) {
	config, err := applyConnectOptions(opts)
	if err != nil {
		return nil, err
	}

	transport, err := createTransport(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	device, err := New(transport, config.deviceOptions...)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	if err := device.Init(); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to initialize device: %w", err)
	}

	return device, nil
}

// createManualTransport handles creation of transport for a specific path
func createManualTransport(path string, factory TransportFactory) (Transport, error) {
	if factory == nil {
		return nil, errors.New("transport factory not provided")
	}

	transport, err := factory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport for path %s: %w", path, err)
	}

	return transport, nil
}

// createAutoDetectedTransport opens the first sensor found by detection
func createAutoDetectedTransport(config *connectConfig) (Transport, error) {
	if config.transportDeviceFactory == nil {
		return nil, errors.New("transport device factory not provided")
	}

	opts := detection.DefaultOptions()
	if config.detectionOptions != nil {
		opts = *config.detectionOptions
	}

	devices, err := detection.DetectAll(&opts)
	if err != nil {
		if errors.Is(err, detection.ErrNoDevicesFound) {
			return nil, fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
		}
		return nil, fmt.Errorf("failed to detect devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrDeviceNotFound
	}

	if len(devices) > 1 {
		warnf("%d sensors detected, using %s", len(devices), devices[0].Path)
	}
	return config.transportDeviceFactory(devices[0])
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Config returns a copy of the device configuration
func (d *Device) Config() Config {
	return *d.config
}

// Initialized reports whether Init has completed
func (d *Device) Initialized() bool {
	return d.initialized
}

// Init sends the mode-select command. It must run exactly once, before Run.
func (d *Device) Init() error {
	if d.initialized {
		return ErrAlreadyInitialized
	}
	if err := Initialize(d.transport, d.config.Mode); err != nil {
		return err
	}
	d.initialized = true
	debugf("device initialized in %s mode", d.config.Mode)
	return nil
}

// SetTimeout sets the transport read timeout
func (d *Device) SetTimeout(timeout time.Duration) error {
	if timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidParameter)
	}
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// NewPipeline creates the device's single pipeline. The device must be
// initialized, and a second call returns ErrPipelineClosed because the first
// pipeline closes the transport when it finishes.
func (d *Device) NewPipeline() (*Pipeline, error) {
	if !d.initialized {
		return nil, ErrNotInitialized
	}
	if d.ran {
		return nil, ErrPipelineClosed
	}
	p, err := NewPipeline(d.transport, d.config)
	if err != nil {
		return nil, err
	}
	p.OnEvent = d.OnEvent
	p.OnProgress = d.OnProgress
	d.ran = true
	return p, nil
}

// Run decodes samples into sink until budget samples were produced
// (budget <= 0 means unbounded), the transport fails or ctx is done. The
// transport is closed when Run returns.
func (d *Device) Run(ctx context.Context, sink Sink, budget int) (Summary, error) {
	p, err := d.NewPipeline()
	if err != nil {
		return Summary{}, err
	}
	return p.Run(ctx, sink, budget)
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}
