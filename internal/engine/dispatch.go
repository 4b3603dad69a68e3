package engine

import (
	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/transform"
)

// kernelLaunch carries the compile-time constants of one kernel
// specialization to the executor.
type kernelLaunch struct {
	Degree       int
	Log2Degree   int
	UnrollFactor int
}

// dispatch routes to the kernel specialization whose size class equals the
// context's resolved class. The switch is exhaustive over the supported set;
// the default re-checks what Allocate already validated and aborts rather
// than scale to a neighboring size.
func (c *Context) dispatch(streams device.StreamSet, op Operands) error {
	switch c.derived.Class {
	case transform.Size512:
		return launchDivRem[transform.P512](c, streams, op)
	case transform.Size1024:
		return launchDivRem[transform.P1024](c, streams, op)
	case transform.Size2048:
		return launchDivRem[transform.P2048](c, streams, op)
	case transform.Size4096:
		return launchDivRem[transform.P4096](c, streams, op)
	case transform.Size8192:
		return launchDivRem[transform.P8192](c, streams, op)
	case transform.Size16384:
		return launchDivRem[transform.P16384](c, streams, op)
	default:
		failConfiguration("no kernel specialization for transform size %d (supported sizes: %s)",
			c.derived.Degree, transform.SupportedSetString())
		return nil
	}
}

// launchDivRem is instantiated once per size class; P's constants fold into
// each specialization at compile time.
func launchDivRem[P transform.ClassParams](c *Context, streams device.StreamSet, op Operands) error {
	var p P
	if p.Degree() != c.derived.Degree {
		failConfiguration("kernel specialization degree %d does not match resolved degree %d",
			p.Degree(), c.derived.Degree)
	}
	launch := kernelLaunch{
		Degree:       p.Degree(),
		Log2Degree:   p.Log2Degree(),
		UnrollFactor: c.derived.UnrollFactor,
	}
	return c.exec.DivRem(streams, c, op, launch)
}
