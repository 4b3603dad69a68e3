package engine

import (
	"fmt"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/logger"
	"github.com/quarklabs/radixengine/internal/transform"
)

// Operands are the uninterpreted device buffers of one execute call. All
// four radix operands must have the shape's ciphertext size; the key blobs
// are forwarded to the kernel untouched. Key material and inputs are read
// only; outputs are valid once the caller synchronizes the stream set.
type Operands struct {
	Quotient  device.Buffer
	Remainder device.Buffer
	Numerator device.Buffer
	Divisor   device.Buffer

	BootstrapKey device.Buffer
	KeySwitchKey device.Buffer

	// Blocks restates the radix block count and must match the shape.
	Blocks int
}

// Option configures Allocate.
type Option func(*allocateConfig)

type allocateConfig struct {
	reserveMemory bool
	timer         PhaseTimer
	log           logger.Logger
}

// WithDryRun computes sizes and derived parameters without reserving any
// device memory. The returned context supports parameter inspection and
// validation-only executes.
func WithDryRun() Option {
	return func(c *allocateConfig) { c.reserveMemory = false }
}

// WithPhaseTimer times each lifecycle phase for diagnostics. Control flow
// never depends on it.
func WithPhaseTimer(t PhaseTimer) Option {
	return func(c *allocateConfig) { c.timer = t }
}

// WithLogger attaches a logger to the context.
func WithLogger(log logger.Logger) Option {
	return func(c *allocateConfig) { c.log = log }
}

// Allocate resolves the transform parameters for the shape and builds an
// execution context anchored on the stream set's primary device.
//
// An unsupported transform size or malformed shape is a configuration error
// and aborts with a *ConfigurationError panic. Device memory exhaustion is
// returned as an error wrapping device.ErrOutOfMemory; retry policy belongs
// to the caller.
func Allocate(streams device.StreamSet, shape ShapeParams, opts ...Option) (*Context, error) {
	cfg := allocateConfig{
		reserveMemory: true,
		timer:         nopTimer{},
		log:           logger.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	stop := cfg.timer.StartPhase("allocate")
	defer stop()

	class, ok := transform.Classify(shape.RingDimension)
	if !ok {
		failConfiguration("unsupported transform size %d (supported sizes: %s)",
			shape.RingDimension, transform.SupportedSetString())
	}
	shape.validate()

	derived := transform.Resolve(class, shape.Variant.Mode())

	c := &Context{
		shape:          shape,
		derived:        derived,
		encoding:       shape.Encoding(),
		fingerprint:    streams.Fingerprint(),
		primaryDevice:  streams.PrimaryDeviceIndex(),
		memoryReserved: cfg.reserveMemory,
		scratchBytes:   shape.scratchBytes(derived),
		timer:          cfg.timer,
		log:            cfg.log,
	}

	exec, err := newExecutor(streams)
	if err != nil {
		return nil, fmt.Errorf("select kernel executor: %w", err)
	}
	c.exec = exec

	if cfg.reserveMemory {
		if err := c.exec.Allocate(streams, c); err != nil {
			return nil, fmt.Errorf("allocate division context (scratch %d bytes on device %d): %w",
				c.scratchBytes, c.primaryDevice, err)
		}
	}

	c.log.Debug("context allocated",
		"degree", derived.Degree,
		"log2_degree", derived.Log2Degree,
		"unroll", derived.UnrollFactor,
		"mode", derived.Mode.String(),
		"blocks", shape.Blocks,
		"scratch_bytes", c.scratchBytes,
		"memory_reserved", cfg.reserveMemory,
		"device", c.primaryDevice,
	)
	return c, nil
}

// Execute issues one division onto the stream set. The stream set must have
// the layout used at allocation; the call never blocks, and the outputs are
// defined once the caller synchronizes the streams. A context may execute
// any number of times without reallocation.
func (c *Context) Execute(streams device.StreamSet, op Operands) error {
	stop := c.timer.StartPhase("execute")
	defer stop()

	if c.released {
		failConfiguration("execute on a released context (device %d)", c.primaryDevice)
	}
	if streams.Fingerprint() != c.fingerprint {
		failConfiguration("stream set layout %v does not match the allocation layout of device %d",
			streams.DeviceIndices(), c.primaryDevice)
	}
	c.validateOperands(op)

	if !c.memoryReserved {
		// Dry-run contexts validate only; no device work is issued.
		c.log.Debug("dry-run execute skipped", "device", c.primaryDevice)
		return nil
	}

	if err := c.dispatch(streams, op); err != nil {
		return fmt.Errorf("issue division on device %d: %w", c.primaryDevice, err)
	}
	c.executions++
	return nil
}

func (c *Context) validateOperands(op Operands) {
	if op.Blocks != c.shape.Blocks {
		failConfiguration("operand block count %d does not match context block count %d",
			op.Blocks, c.shape.Blocks)
	}
	want := c.shape.CiphertextBytes()
	for _, operand := range []struct {
		name string
		buf  device.Buffer
	}{
		{"quotient", op.Quotient},
		{"remainder", op.Remainder},
		{"numerator", op.Numerator},
		{"divisor", op.Divisor},
	} {
		if operand.buf == nil {
			failConfiguration("%s operand is nil", operand.name)
		}
		if operand.buf.Size() != want {
			failConfiguration("%s operand size %d does not match shape ciphertext size %d",
				operand.name, operand.buf.Size(), want)
		}
	}
	if op.BootstrapKey == nil || op.BootstrapKey.Size() != c.shape.BootstrapKeyBytes() {
		failConfiguration("bootstrap key size does not match shape size %d", c.shape.BootstrapKeyBytes())
	}
	if op.KeySwitchKey == nil || op.KeySwitchKey.Size() != c.shape.KeySwitchKeyBytes() {
		failConfiguration("keyswitch key size does not match shape size %d", c.shape.KeySwitchKeyBytes())
	}
}

// Release frees the context's device resources, serialized on the given
// stream, and invalidates the context. It must be called at most once per
// allocation; a second call fails without touching other contexts.
func (c *Context) Release(stream device.Stream, deviceIndex int) error {
	stop := c.timer.StartPhase("release")
	defer stop()

	if c.released {
		return fmt.Errorf("context on device %d is already released", c.primaryDevice)
	}
	if deviceIndex != c.primaryDevice {
		failConfiguration("release on device %d, context is anchored on device %d",
			deviceIndex, c.primaryDevice)
	}
	if stream.DeviceIndex() != deviceIndex {
		failConfiguration("release stream belongs to device %d, not device %d",
			stream.DeviceIndex(), deviceIndex)
	}

	c.released = true
	if !c.memoryReserved {
		return nil
	}
	if err := c.exec.Release(stream, c); err != nil {
		return fmt.Errorf("release division context on device %d: %w", c.primaryDevice, err)
	}
	c.log.Debug("context released", "device", c.primaryDevice, "executions", c.executions)
	return nil
}
