package engine

import (
	"fmt"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/device/sim"
)

// executor binds a context to one backend's kernel entry points. Each
// context owns its executor instance, which in turn owns the backend's
// scratch handle.
type executor interface {
	// Allocate reserves the context's scratch on the primary device.
	Allocate(streams device.StreamSet, c *Context) error
	// DivRem issues one division asynchronously onto the streams.
	DivRem(streams device.StreamSet, c *Context, op Operands, launch kernelLaunch) error
	// Release frees the scratch, serialized on the given stream.
	Release(stream device.Stream, c *Context) error
}

// newExecutor selects the executor matching the stream set's backend.
func newExecutor(streams device.StreamSet) (executor, error) {
	switch streams.Primary().(type) {
	case *sim.Stream:
		return &simExecutor{}, nil
	default:
		return newCUDAExecutor(streams)
	}
}

func mismatchedStreamBackend(streams device.StreamSet) error {
	return fmt.Errorf("stream set of device(s) %v does not belong to an available backend (%s)",
		streams.DeviceIndices(), Available())
}
