//go:build cuda

package engine

import (
	"fmt"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/device/cuda"
)

// cudaExecutor forwards the context lifecycle to the external kernel
// library. The scratch handle is owned by the library between the scratch
// and cleanup calls.
type cudaExecutor struct {
	scratch *cuda.Scratch
}

func newCUDAExecutor(streams device.StreamSet) (executor, error) {
	if _, err := cudaStreams(streams); err != nil {
		return nil, err
	}
	return &cudaExecutor{}, nil
}

func (e *cudaExecutor) Allocate(streams device.StreamSet, c *Context) error {
	target, err := cudaStreams(streams)
	if err != nil {
		return err
	}
	e.scratch = cuda.ScratchDivRem(target, kernelShape(c.shape), true)
	return nil
}

func (e *cudaExecutor) DivRem(streams device.StreamSet, c *Context, op Operands, launch kernelLaunch) error {
	target, err := cudaStreams(streams)
	if err != nil {
		return err
	}
	quotient, err := cudaBuffer("quotient", op.Quotient)
	if err != nil {
		return err
	}
	remainder, err := cudaBuffer("remainder", op.Remainder)
	if err != nil {
		return err
	}
	numerator, err := cudaBuffer("numerator", op.Numerator)
	if err != nil {
		return err
	}
	divisor, err := cudaBuffer("divisor", op.Divisor)
	if err != nil {
		return err
	}
	bsk, err := cudaBuffer("bootstrap key", op.BootstrapKey)
	if err != nil {
		return err
	}
	ksk, err := cudaBuffer("keyswitch key", op.KeySwitchKey)
	if err != nil {
		return err
	}

	c.log.Debug("cuda division issued",
		"degree", launch.Degree,
		"log2_degree", launch.Log2Degree,
		"unroll", launch.UnrollFactor,
		"blocks", op.Blocks,
		"streams", streams.Len(),
	)
	cuda.DivRem(target, quotient, remainder, numerator, divisor, e.scratch, bsk, ksk, uint32(op.Blocks))
	return nil
}

func (e *cudaExecutor) Release(stream device.Stream, c *Context) error {
	scratch := e.scratch
	e.scratch = nil
	if scratch == nil {
		return nil
	}
	s, ok := stream.(*cuda.Stream)
	if !ok {
		return fmt.Errorf("release stream does not belong to the %s backend", device.CUDA)
	}
	cuda.CleanupDivRem([]*cuda.Stream{s}, scratch)
	return nil
}

func kernelShape(p ShapeParams) cuda.KernelShape {
	return cuda.KernelShape{
		RingDimension:  uint32(p.RingDimension),
		LWEDimension:   uint32(p.LWEDimension),
		GLWEDimension:  uint32(p.GLWEDimension),
		KSBaseLog:      uint32(p.KSBaseLog),
		KSLevel:        uint32(p.KSLevel),
		PBSBaseLog:     uint32(p.PBSBaseLog),
		PBSLevel:       uint32(p.PBSLevel),
		GroupingFactor: uint32(p.GroupingFactor),
		Blocks:         uint32(p.Blocks),
		MessageModulus: uint32(p.MessageModulus),
		CarryModulus:   uint32(p.CarryModulus),
		PBSVariant:     uint32(p.Variant),
	}
}

func cudaStreams(streams device.StreamSet) ([]*cuda.Stream, error) {
	out := make([]*cuda.Stream, streams.Len())
	for i := 0; i < streams.Len(); i++ {
		s, ok := streams.Stream(i).(*cuda.Stream)
		if !ok {
			return nil, mismatchedStreamBackend(streams)
		}
		out[i] = s
	}
	return out, nil
}

func cudaBuffer(name string, buf device.Buffer) (*cuda.Buffer, error) {
	b, ok := buf.(*cuda.Buffer)
	if !ok {
		return nil, fmt.Errorf("%s operand does not live on the %s backend", name, device.CUDA)
	}
	return b, nil
}
