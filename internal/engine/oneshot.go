package engine

import (
	"fmt"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/transform"
	"github.com/quarklabs/radixengine/pkg/radix"
)

// DivRemResult is the decoded outcome of a one-shot encrypted division.
type DivRemResult struct {
	Quotient  uint64
	Remainder uint64
	Derived   transform.DerivedParameters
}

// DefaultShape fills demonstration shape parameters around the transform
// size, radix block count and bootstrap variant. The fixed dimensions are
// sized for the simulator; real deployments supply their own calibrated
// shape.
func DefaultShape(ring, blocks int, variant PBSVariant) ShapeParams {
	return ShapeParams{
		RingDimension:  ring,
		LWEDimension:   64,
		GLWEDimension:  1,
		KSBaseLog:      3,
		KSLevel:        5,
		PBSBaseLog:     15,
		PBSLevel:       2,
		GroupingFactor: 3,
		MessageModulus: 4,
		CarryModulus:   4,
		Blocks:         blocks,
		Variant:        variant,
	}
}

// DivRemOnce runs one full encrypted division round trip on the given
// devices: encrypt the inputs under a fresh key, allocate a context, issue
// the division, synchronize, decrypt the outputs and release everything.
// It is the loopback path behind the CLI and the HTTP service; long-lived
// callers manage contexts and keys themselves.
func DivRemOnce(devices []device.Device, shape ShapeParams, numerator, divisor uint64, seed []byte, opts ...Option) (DivRemResult, error) {
	var result DivRemResult

	enc, err := radix.NewEncryptor(shape.Encoding(), seed)
	if err != nil {
		return result, fmt.Errorf("build encryptor: %w", err)
	}
	if max := shape.Encoding().MaxValue(); numerator > max || divisor > max {
		return result, fmt.Errorf("operands %d / %d exceed the %d-block capacity %d",
			numerator, divisor, shape.Blocks, max)
	}

	streams, err := device.NewStreamSet(devices...)
	if err != nil {
		return result, fmt.Errorf("create stream set: %w", err)
	}
	defer func() { _ = streams.Destroy() }()

	primary := streams.PrimaryDevice()
	var buffers []device.Buffer
	defer func() {
		for _, buf := range buffers {
			_ = buf.Free()
		}
	}()
	alloc := func(bytes int64) (device.Buffer, error) {
		buf, err := primary.Alloc(bytes)
		if err != nil {
			return nil, err
		}
		buffers = append(buffers, buf)
		return buf, nil
	}
	stage := func(value uint64) (device.Buffer, error) {
		buf, err := alloc(shape.CiphertextBytes())
		if err != nil {
			return nil, err
		}
		ct, err := enc.Encrypt(value)
		if err != nil {
			return nil, err
		}
		return buf, buf.Upload(ct.Bytes())
	}

	op := Operands{Blocks: shape.Blocks}
	if op.Numerator, err = stage(numerator); err != nil {
		return result, fmt.Errorf("stage numerator: %w", err)
	}
	if op.Divisor, err = stage(divisor); err != nil {
		return result, fmt.Errorf("stage divisor: %w", err)
	}
	if op.Quotient, err = alloc(shape.CiphertextBytes()); err != nil {
		return result, fmt.Errorf("stage quotient: %w", err)
	}
	if op.Remainder, err = alloc(shape.CiphertextBytes()); err != nil {
		return result, fmt.Errorf("stage remainder: %w", err)
	}
	if op.KeySwitchKey, err = alloc(shape.KeySwitchKeyBytes()); err != nil {
		return result, fmt.Errorf("stage keyswitch key: %w", err)
	}
	if op.BootstrapKey, err = alloc(shape.BootstrapKeyBytes()); err != nil {
		return result, fmt.Errorf("stage bootstrap key: %w", err)
	}
	evalKey, err := enc.EvaluationKey(shape.BootstrapKeyBytes())
	if err != nil {
		return result, fmt.Errorf("pack evaluation key: %w", err)
	}
	if err := op.BootstrapKey.Upload(evalKey); err != nil {
		return result, fmt.Errorf("upload evaluation key: %w", err)
	}

	ctx, err := Allocate(streams, shape, opts...)
	if err != nil {
		return result, err
	}
	if err := ctx.Execute(streams, op); err != nil {
		return result, err
	}
	if err := streams.Synchronize(); err != nil {
		return result, fmt.Errorf("synchronize division: %w", err)
	}

	decode := func(buf device.Buffer) (uint64, error) {
		raw := make([]byte, buf.Size())
		if err := buf.Download(raw); err != nil {
			return 0, err
		}
		ct, err := radix.CiphertextFromBytes(shape.Encoding(), raw)
		if err != nil {
			return 0, err
		}
		return enc.Decrypt(ct)
	}
	if result.Quotient, err = decode(op.Quotient); err != nil {
		return result, fmt.Errorf("decode quotient: %w", err)
	}
	if result.Remainder, err = decode(op.Remainder); err != nil {
		return result, fmt.Errorf("decode remainder: %w", err)
	}
	result.Derived = ctx.Derived()

	if err := ctx.Release(streams.Primary(), streams.PrimaryDeviceIndex()); err != nil {
		return result, err
	}
	if err := streams.Synchronize(); err != nil {
		return result, fmt.Errorf("synchronize release: %w", err)
	}
	return result, nil
}
