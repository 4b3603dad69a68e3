package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/device/sim"
	"github.com/quarklabs/radixengine/internal/engine"
	"github.com/quarklabs/radixengine/pkg/radix"
)

func testShape(ring, blocks int, variant engine.PBSVariant) engine.ShapeParams {
	return engine.ShapeParams{
		RingDimension:  ring,
		LWEDimension:   4,
		GLWEDimension:  1,
		KSBaseLog:      3,
		KSLevel:        5,
		PBSBaseLog:     15,
		PBSLevel:       2,
		MessageModulus: 4,
		CarryModulus:   4,
		Blocks:         blocks,
		Variant:        variant,
	}
}

func newSimSet(t *testing.T, rt *sim.Runtime, indices ...int) device.StreamSet {
	t.Helper()
	devices := make([]device.Device, len(indices))
	for i, idx := range indices {
		dev, err := rt.Open(idx)
		require.NoError(t, err)
		devices[i] = dev
	}
	ss, err := device.NewStreamSet(devices...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Destroy() })
	return ss
}

// newTestOperands encrypts numerator and divisor under a fresh key, stages
// them with the key material on dev, and leaves the outputs zeroed.
func newTestOperands(t *testing.T, dev device.Device, shape engine.ShapeParams, numerator, divisor uint64) (engine.Operands, *radix.Encryptor) {
	t.Helper()
	enc, err := radix.NewEncryptor(shape.Encoding(), []byte("engine-test-key"))
	require.NoError(t, err)

	alloc := func(bytes int64) device.Buffer {
		buf, err := dev.Alloc(bytes)
		require.NoError(t, err)
		t.Cleanup(func() { _ = buf.Free() })
		return buf
	}
	upload := func(buf device.Buffer, value uint64) {
		ct, err := enc.Encrypt(value)
		require.NoError(t, err)
		require.NoError(t, buf.Upload(ct.Bytes()))
	}

	op := engine.Operands{
		Quotient:     alloc(shape.CiphertextBytes()),
		Remainder:    alloc(shape.CiphertextBytes()),
		Numerator:    alloc(shape.CiphertextBytes()),
		Divisor:      alloc(shape.CiphertextBytes()),
		BootstrapKey: alloc(shape.BootstrapKeyBytes()),
		KeySwitchKey: alloc(shape.KeySwitchKeyBytes()),
		Blocks:       shape.Blocks,
	}
	upload(op.Numerator, numerator)
	upload(op.Divisor, divisor)

	evalKey, err := enc.EvaluationKey(shape.BootstrapKeyBytes())
	require.NoError(t, err)
	require.NoError(t, op.BootstrapKey.Upload(evalKey))
	return op, enc
}

func decryptBuffer(t *testing.T, enc *radix.Encryptor, buf device.Buffer) uint64 {
	t.Helper()
	raw := make([]byte, buf.Size())
	require.NoError(t, buf.Download(raw))
	ct, err := radix.CiphertextFromBytes(enc.Encoding(), raw)
	require.NoError(t, err)
	value, err := enc.Decrypt(ct)
	require.NoError(t, err)
	return value
}

func catchConfigurationError(t *testing.T, fn func()) (cerr *engine.ConfigurationError) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a configuration error panic")
		}
		var ok bool
		cerr, ok = r.(*engine.ConfigurationError)
		if !ok {
			t.Fatalf("panic value %v (%T) is not a *engine.ConfigurationError", r, r)
		}
	}()
	fn()
	return nil
}

func TestDivRemEndToEnd2048Amortized(t *testing.T) {
	rt := sim.NewRuntime()
	ss := newSimSet(t, rt, 0)
	shape := testShape(2048, 4, engine.PBSAmortized)

	ctx, err := engine.Allocate(ss, shape)
	require.NoError(t, err)
	require.Equal(t, 8, ctx.Derived().UnrollFactor)
	require.Equal(t, 11, ctx.Derived().Log2Degree)
	require.Equal(t, 2048, ctx.Derived().Degree)

	op, enc := newTestOperands(t, ss.PrimaryDevice(), shape, 200, 7)
	require.NoError(t, ctx.Execute(ss, op))
	require.NoError(t, ss.Synchronize())

	require.Equal(t, uint64(28), decryptBuffer(t, enc, op.Quotient))
	require.Equal(t, uint64(4), decryptBuffer(t, enc, op.Remainder))

	require.NoError(t, ctx.Release(ss.Primary(), ss.PrimaryDeviceIndex()))
	require.NoError(t, ss.Synchronize())
}

func TestResolves16384Classical(t *testing.T) {
	rt := sim.NewRuntime()
	ss := newSimSet(t, rt, 0)
	shape := testShape(16384, 4, engine.PBSClassical)

	ctx, err := engine.Allocate(ss, shape, engine.WithDryRun())
	require.NoError(t, err)
	require.Equal(t, 16, ctx.Derived().UnrollFactor)
	require.Equal(t, 14, ctx.Derived().Log2Degree)
	require.Equal(t, 16384, ctx.Derived().Degree)
}

func TestUnsupportedSizeAborts(t *testing.T) {
	rt := sim.NewRuntime()
	ss := newSimSet(t, rt, 0)
	shape := testShape(3000, 4, engine.PBSClassical)

	cerr := catchConfigurationError(t, func() {
		_, _ = engine.Allocate(ss, shape)
	})
	require.Contains(t, cerr.Error(), "3000")
	for _, size := range []string{"512", "1024", "2048", "4096", "8192", "16384"} {
		require.Contains(t, cerr.Error(), size)
	}
}

func TestDryRunTouchesNoDeviceMemory(t *testing.T) {
	rt := sim.NewRuntime()
	dev, err := rt.Open(0)
	require.NoError(t, err)
	simDev := dev.(*sim.Device)
	ss := newSimSet(t, rt, 0)
	shape := testShape(2048, 4, engine.PBSAmortized)

	ctx, err := engine.Allocate(ss, shape, engine.WithDryRun())
	require.NoError(t, err)
	require.False(t, ctx.MemoryReserved())
	require.Positive(t, ctx.ScratchBytes())
	require.Zero(t, simDev.AllocationCount())

	// Validation-only execute: operands are checked but nothing is issued.
	op, enc := newTestOperands(t, dev, shape, 200, 7)
	allocsBefore := simDev.AllocationCount()
	require.NoError(t, ctx.Execute(ss, op))
	require.NoError(t, ss.Synchronize())
	require.Equal(t, allocsBefore, simDev.AllocationCount())
	require.Equal(t, uint64(0), decryptBuffer(t, enc, op.Quotient))

	require.NoError(t, ctx.Release(ss.Primary(), ss.PrimaryDeviceIndex()))
	require.Equal(t, allocsBefore, simDev.AllocationCount())
}

func TestAllocateOutOfMemory(t *testing.T) {
	rt := sim.NewRuntime(sim.WithDeviceMemory(1024))
	ss := newSimSet(t, rt, 0)
	shape := testShape(2048, 4, engine.PBSClassical)

	_, err := engine.Allocate(ss, shape)
	require.ErrorIs(t, err, device.ErrOutOfMemory)
}

func TestRepeatedExecutesAreIndependent(t *testing.T) {
	rt := sim.NewRuntime()
	ss := newSimSet(t, rt, 0)
	shape := testShape(512, 4, engine.PBSClassical)

	ctx, err := engine.Allocate(ss, shape)
	require.NoError(t, err)

	op, enc := newTestOperands(t, ss.PrimaryDevice(), shape, 200, 7)
	require.NoError(t, ctx.Execute(ss, op))
	require.NoError(t, ss.Synchronize())
	require.Equal(t, uint64(28), decryptBuffer(t, enc, op.Quotient))
	require.Equal(t, uint64(4), decryptBuffer(t, enc, op.Remainder))

	// New inputs through the same context.
	ct, err := enc.Encrypt(99)
	require.NoError(t, err)
	require.NoError(t, op.Numerator.Upload(ct.Bytes()))
	ct, err = enc.Encrypt(5)
	require.NoError(t, err)
	require.NoError(t, op.Divisor.Upload(ct.Bytes()))

	require.NoError(t, ctx.Execute(ss, op))
	require.NoError(t, ss.Synchronize())
	require.Equal(t, uint64(19), decryptBuffer(t, enc, op.Quotient))
	require.Equal(t, uint64(4), decryptBuffer(t, enc, op.Remainder))
	require.Equal(t, uint64(2), ctx.Executions())

	require.NoError(t, ctx.Release(ss.Primary(), ss.PrimaryDeviceIndex()))
	require.NoError(t, ss.Synchronize())
}

func TestDivisionByZeroSaturates(t *testing.T) {
	rt := sim.NewRuntime()
	ss := newSimSet(t, rt, 0)
	shape := testShape(1024, 4, engine.PBSClassical)

	ctx, err := engine.Allocate(ss, shape)
	require.NoError(t, err)

	op, enc := newTestOperands(t, ss.PrimaryDevice(), shape, 123, 0)
	require.NoError(t, ctx.Execute(ss, op))
	require.NoError(t, ss.Synchronize())

	require.Equal(t, shape.Encoding().MaxValue(), decryptBuffer(t, enc, op.Quotient))
	require.Equal(t, uint64(123), decryptBuffer(t, enc, op.Remainder))
}

func TestReleaseIsolation(t *testing.T) {
	rt := sim.NewRuntime()
	ss := newSimSet(t, rt, 0)
	shape := testShape(512, 4, engine.PBSClassical)

	ctxA, err := engine.Allocate(ss, shape)
	require.NoError(t, err)
	ctxB, err := engine.Allocate(ss, shape)
	require.NoError(t, err)

	require.NoError(t, ctxA.Release(ss.Primary(), ss.PrimaryDeviceIndex()))
	require.True(t, ctxA.Released())

	// ctxB is untouched by ctxA's release.
	op, enc := newTestOperands(t, ss.PrimaryDevice(), shape, 200, 7)
	require.NoError(t, ctxB.Execute(ss, op))
	require.NoError(t, ss.Synchronize())
	require.Equal(t, uint64(28), decryptBuffer(t, enc, op.Quotient))

	// A second release fails without disturbing anything else.
	require.Error(t, ctxA.Release(ss.Primary(), ss.PrimaryDeviceIndex()))

	require.NoError(t, ctxB.Release(ss.Primary(), ss.PrimaryDeviceIndex()))
	require.NoError(t, ss.Synchronize())
}

func TestExecuteAfterReleaseAborts(t *testing.T) {
	rt := sim.NewRuntime()
	ss := newSimSet(t, rt, 0)
	shape := testShape(512, 4, engine.PBSClassical)

	ctx, err := engine.Allocate(ss, shape)
	require.NoError(t, err)
	op, _ := newTestOperands(t, ss.PrimaryDevice(), shape, 200, 7)

	require.NoError(t, ctx.Release(ss.Primary(), ss.PrimaryDeviceIndex()))
	require.NoError(t, ss.Synchronize())

	cerr := catchConfigurationError(t, func() {
		_ = ctx.Execute(ss, op)
	})
	require.Contains(t, cerr.Error(), "released")
}

func TestMismatchedStreamSetAborts(t *testing.T) {
	rt := sim.NewRuntime(sim.WithDeviceCount(2))
	ssA := newSimSet(t, rt, 0)
	ssB := newSimSet(t, rt, 0, 1)
	shape := testShape(512, 4, engine.PBSClassical)

	ctx, err := engine.Allocate(ssA, shape)
	require.NoError(t, err)
	op, _ := newTestOperands(t, ssA.PrimaryDevice(), shape, 200, 7)

	cerr := catchConfigurationError(t, func() {
		_ = ctx.Execute(ssB, op)
	})
	require.Contains(t, cerr.Error(), "layout")

	require.NoError(t, ctx.Release(ssA.Primary(), ssA.PrimaryDeviceIndex()))
	require.NoError(t, ssA.Synchronize())
}

func TestMultiDeviceStreamSet(t *testing.T) {
	rt := sim.NewRuntime(sim.WithDeviceCount(3))
	ss := newSimSet(t, rt, 0, 1, 2)
	shape := testShape(2048, 8, engine.PBSAmortized)

	ctx, err := engine.Allocate(ss, shape)
	require.NoError(t, err)
	require.Equal(t, 0, ctx.PrimaryDeviceIndex())

	op, enc := newTestOperands(t, ss.PrimaryDevice(), shape, 40001, 13)
	require.NoError(t, ctx.Execute(ss, op))
	require.NoError(t, ss.Synchronize())

	require.Equal(t, uint64(40001/13), decryptBuffer(t, enc, op.Quotient))
	require.Equal(t, uint64(40001%13), decryptBuffer(t, enc, op.Remainder))

	require.NoError(t, ctx.Release(ss.Primary(), ss.PrimaryDeviceIndex()))
	require.NoError(t, ss.Synchronize())
}

func TestReleaseOnWrongDeviceAborts(t *testing.T) {
	rt := sim.NewRuntime(sim.WithDeviceCount(2))
	ss := newSimSet(t, rt, 0)
	other := newSimSet(t, rt, 1)
	shape := testShape(512, 2, engine.PBSClassical)

	ctx, err := engine.Allocate(ss, shape)
	require.NoError(t, err)

	cerr := catchConfigurationError(t, func() {
		_ = ctx.Release(other.Primary(), other.PrimaryDeviceIndex())
	})
	require.Contains(t, cerr.Error(), "anchored")

	require.NoError(t, ctx.Release(ss.Primary(), ss.PrimaryDeviceIndex()))
	require.NoError(t, ss.Synchronize())
}

func TestOpenRuntimeBackends(t *testing.T) {
	rt, err := engine.OpenRuntime("sim")
	require.NoError(t, err)
	require.Equal(t, device.Sim, rt.Name())

	rt, err = engine.OpenRuntime("", sim.WithDeviceCount(2))
	require.NoError(t, err)
	n, err := rt.DeviceCount()
	require.NoError(t, err)
	if rt.Name() == device.Sim {
		require.Equal(t, 2, n)
	}

	_, err = engine.OpenRuntime("tpu")
	require.Error(t, err)
}
