//go:build !cuda

package engine

import (
	"fmt"

	"github.com/quarklabs/radixengine/internal/device"
)

const cudaEnabled = false

func openCUDARuntime() (device.Runtime, error) {
	return nil, fmt.Errorf("backend %q is not compiled into this binary", device.CUDA)
}
