//go:build !cuda

package engine

import (
	"github.com/quarklabs/radixengine/internal/device"
)

func newCUDAExecutor(streams device.StreamSet) (executor, error) {
	return nil, mismatchedStreamBackend(streams)
}
