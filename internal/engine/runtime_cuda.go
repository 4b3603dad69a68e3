//go:build cuda

package engine

import (
	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/device/cuda"
)

const cudaEnabled = true

func openCUDARuntime() (device.Runtime, error) {
	rt, err := cuda.NewRuntime()
	if err != nil {
		return nil, err
	}
	return rt, nil
}
