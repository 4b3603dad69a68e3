package engine

import (
	"fmt"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/device/sim"
)

// OpenRuntime resolves a backend name to a runtime. "auto" prefers CUDA
// when the binary carries it and a device is present, and falls back to the
// simulator otherwise. The simulator options apply only when the simulator
// is selected.
func OpenRuntime(name string, simOpts ...sim.Option) (device.Runtime, error) {
	backend, err := device.Normalize(name)
	if err != nil {
		return nil, err
	}
	switch backend {
	case device.Sim:
		return sim.NewRuntime(simOpts...), nil
	case device.CUDA:
		if !cudaEnabled {
			return nil, fmt.Errorf("backend %q is not compiled into this binary", device.CUDA)
		}
		return openCUDARuntime()
	case device.Auto:
		if cudaEnabled {
			if rt, err := openCUDARuntime(); err == nil {
				if n, err := rt.DeviceCount(); err == nil && n > 0 {
					return rt, nil
				}
			}
		}
		return sim.NewRuntime(simOpts...), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// Available names the backends compiled into the binary.
func Available() string {
	if cudaEnabled {
		return device.Sim + ", " + device.CUDA
	}
	return device.Sim
}
