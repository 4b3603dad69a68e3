package engine

import (
	"github.com/quarklabs/radixengine/internal/logger"
	"github.com/quarklabs/radixengine/internal/transform"
	"github.com/quarklabs/radixengine/pkg/radix"
)

// Context is the opaque per-operation execution context. It owns the
// device-side scratch of one division pipeline, the resolved transform
// parameters and a copy of the shape. A context is exclusively owned by its
// caller: allocate it once, execute against it any number of times, release
// it exactly once. Executing after release is a precondition violation; the
// engine guards it in this implementation but callers must not rely on that.
type Context struct {
	shape    ShapeParams
	derived  transform.DerivedParameters
	encoding radix.Encoding

	// fingerprint pins the stream-set layout the context was allocated
	// against; every execute must present the same layout.
	fingerprint   [32]byte
	primaryDevice int

	memoryReserved bool
	scratchBytes   int64
	released       bool
	executions     uint64

	exec  executor
	timer PhaseTimer
	log   logger.Logger
}

// Shape returns the immutable shape parameters.
func (c *Context) Shape() ShapeParams { return c.shape }

// Derived returns the resolved transform parameters.
func (c *Context) Derived() transform.DerivedParameters { return c.derived }

// ScratchBytes reports the size of the device workspace the context uses
// (or would use, for a dry-run context).
func (c *Context) ScratchBytes() int64 { return c.scratchBytes }

// MemoryReserved reports whether device memory is actually held. A dry-run
// context answers false and only supports parameter inspection.
func (c *Context) MemoryReserved() bool { return c.memoryReserved }

// PrimaryDeviceIndex returns the device anchoring allocation and release.
func (c *Context) PrimaryDeviceIndex() int { return c.primaryDevice }

// Released reports whether the context has been torn down.
func (c *Context) Released() bool { return c.released }

// Executions reports how many executes have been issued on the context.
func (c *Context) Executions() uint64 { return c.executions }
