// Package sim implements an in-process accelerator: streams are FIFO work
// queues drained by one goroutine each, buffers are host memory with device
// semantics, and every device tracks a fixed memory capacity. It is the
// default backend and the reference target for the engine's tests.
package sim

import (
	"fmt"
	"sync"

	"github.com/quarklabs/radixengine/internal/device"
)

// DefaultDeviceMemory is the per-device capacity unless overridden.
const DefaultDeviceMemory = int64(1) << 30

// Runtime is the simulated backend.
type Runtime struct {
	devices []*Device
}

// Option configures the simulated runtime.
type Option func(*config)

type config struct {
	deviceCount  int
	deviceMemory int64
}

// WithDeviceCount sets the number of simulated devices.
func WithDeviceCount(n int) Option {
	return func(c *config) { c.deviceCount = n }
}

// WithDeviceMemory caps the memory of every simulated device, in bytes.
// Allocations past the cap fail with device.ErrOutOfMemory.
func WithDeviceMemory(bytes int64) Option {
	return func(c *config) { c.deviceMemory = bytes }
}

// NewRuntime creates a simulated runtime. The default is a single device
// with DefaultDeviceMemory bytes.
func NewRuntime(opts ...Option) *Runtime {
	cfg := config{deviceCount: 1, deviceMemory: DefaultDeviceMemory}
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &Runtime{devices: make([]*Device, cfg.deviceCount)}
	for i := range r.devices {
		r.devices[i] = &Device{index: i, capacity: cfg.deviceMemory}
	}
	return r
}

func (r *Runtime) Name() string { return device.Sim }

func (r *Runtime) DeviceCount() (int, error) { return len(r.devices), nil }

func (r *Runtime) Open(index int) (device.Device, error) {
	if index < 0 || index >= len(r.devices) {
		return nil, fmt.Errorf("sim device index %d out of range [0, %d)", index, len(r.devices))
	}
	return r.devices[index], nil
}

// Device is one simulated accelerator.
type Device struct {
	index    int
	mu       sync.Mutex
	capacity int64
	used     int64
	allocs   uint64
}

func (d *Device) Index() int { return d.index }

func (d *Device) NewStream() (device.Stream, error) {
	return newStream(d), nil
}

func (d *Device) Alloc(bytes int64) (device.Buffer, error) {
	if bytes <= 0 {
		return nil, fmt.Errorf("sim alloc size must be > 0, got %d", bytes)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.used+bytes > d.capacity {
		return nil, fmt.Errorf("sim device %d: alloc %d bytes (used %d of %d): %w",
			d.index, bytes, d.used, d.capacity, device.ErrOutOfMemory)
	}
	d.used += bytes
	d.allocs++
	return &Buffer{dev: d, data: make([]byte, bytes)}, nil
}

func (d *Device) MemInfo() (free, total int64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capacity - d.used, d.capacity, nil
}

// AllocationCount reports how many device allocations have been made. Tests
// use it to verify that dry-run lifecycles never touch device memory.
func (d *Device) AllocationCount() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocs
}

func (d *Device) release(bytes int64) {
	d.mu.Lock()
	d.used -= bytes
	d.mu.Unlock()
}
