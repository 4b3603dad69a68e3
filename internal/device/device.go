// Package device abstracts the accelerator runtimes the engine issues work
// onto. A Runtime enumerates and opens devices; a Device allocates buffers
// and creates streams; a Stream executes issued work in issue order. The
// concrete implementations live in the sim and cuda subpackages.
package device

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by the engine and the CLI.
const (
	Sim  = "sim"
	CUDA = "cuda"
	Auto = "auto"
)

// ErrOutOfMemory reports that a device allocation failed because the device
// memory is exhausted. Callers own the recovery policy; the engine never
// retries on its own.
var ErrOutOfMemory = errors.New("device out of memory")

// Normalize canonicalizes a backend name from flags or config.
func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return Auto, nil
	}
	switch backend {
	case Sim, CUDA, Auto:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, sim, or cuda)", backend)
	}
}

// Runtime is one accelerator backend.
type Runtime interface {
	Name() string
	DeviceCount() (int, error)
	Open(index int) (Device, error)
}

// Device is a single accelerator. Buffers allocated on a device must be
// freed on the same device.
type Device interface {
	Index() int
	NewStream() (Stream, error)
	Alloc(bytes int64) (Buffer, error)
	MemInfo() (free, total int64, err error)
}

// Stream is an ordered execution queue on one device. Work issued on the
// same stream runs in issue order; there is no ordering across streams
// unless the caller synchronizes. Destroy must not be called while work is
// in flight.
type Stream interface {
	DeviceIndex() int
	Synchronize() error
	Destroy() error
}

// Buffer is an uninterpreted device memory region. Upload and Download are
// host-synchronous and are not ordered with respect to in-flight stream
// work; callers synchronize the relevant streams first. Free is safe to
// call once; a nil-initialized buffer frees to a no-op.
type Buffer interface {
	Size() int64
	Upload(src []byte) error
	Download(dst []byte) error
	Free() error
}
