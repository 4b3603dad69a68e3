//go:build cuda

// Package cuda binds the engine's device abstraction to the CUDA runtime.
// Only forward declarations are used so no CUDA headers are needed at
// compile time; the linker resolves them against libcudart.
package cuda

import (
	"fmt"

	"github.com/quarklabs/radixengine/internal/device"
)

/*
#cgo LDFLAGS: -lcudart

#include <stdint.h>

typedef void* cudaStream_t;
typedef int cudaError_t;

extern const char* cudaGetErrorString(cudaError_t err);
extern cudaError_t cudaGetDeviceCount(int* count);
extern cudaError_t cudaSetDevice(int dev);
extern cudaError_t cudaStreamCreate(cudaStream_t* stream);
extern cudaError_t cudaStreamDestroy(cudaStream_t stream);
extern cudaError_t cudaStreamSynchronize(cudaStream_t stream);
extern cudaError_t cudaMalloc(void** ptr, unsigned long long size);
extern cudaError_t cudaFree(void* ptr);
extern cudaError_t cudaMemcpy(void* dst, const void* src, unsigned long long size, int kind);
extern cudaError_t cudaMemGetInfo(unsigned long long* free, unsigned long long* total);

#define RADIX_CUDA_MEMCPY_HOST_TO_DEVICE 1
#define RADIX_CUDA_MEMCPY_DEVICE_TO_HOST 2

// cudaErrorMemoryAllocation
#define RADIX_CUDA_ERR_OOM 2

static int radixCudaGetDeviceCount(int* out) {
	return (int)cudaGetDeviceCount(out);
}

static int radixCudaSetDevice(int dev) {
	return (int)cudaSetDevice(dev);
}

static int radixCudaStreamCreate(cudaStream_t* out) {
	return (int)cudaStreamCreate(out);
}

static int radixCudaStreamDestroy(cudaStream_t stream) {
	return (int)cudaStreamDestroy(stream);
}

static int radixCudaStreamSynchronize(cudaStream_t stream) {
	return (int)cudaStreamSynchronize(stream);
}

static int radixCudaMalloc(void** ptr, unsigned long long size) {
	return (int)cudaMalloc(ptr, size);
}

static int radixCudaFree(void* ptr) {
	return (int)cudaFree(ptr);
}

static int radixCudaMemcpy(void* dst, const void* src, unsigned long long size, int kind) {
	return (int)cudaMemcpy(dst, src, size, kind);
}

static int radixCudaMemGetInfo(unsigned long long* freeBytes, unsigned long long* totalBytes) {
	return (int)cudaMemGetInfo(freeBytes, totalBytes);
}

static const char* radixCudaGetErrorString(cudaError_t err) {
	return cudaGetErrorString(err);
}
*/
import "C"

import "unsafe"

// Runtime is the CUDA backend.
type Runtime struct {
	count int
}

// NewRuntime queries the driver for devices; it fails when none are present.
func NewRuntime() (*Runtime, error) {
	var count C.int
	if err := cudaErr(C.radixCudaGetDeviceCount(&count)); err != nil {
		return nil, fmt.Errorf("cuda device query failed: %w", err)
	}
	if count < 1 {
		return nil, fmt.Errorf("no cuda devices detected")
	}
	return &Runtime{count: int(count)}, nil
}

func (r *Runtime) Name() string { return device.CUDA }

func (r *Runtime) DeviceCount() (int, error) { return r.count, nil }

func (r *Runtime) Open(index int) (device.Device, error) {
	if index < 0 || index >= r.count {
		return nil, fmt.Errorf("cuda device index %d out of range [0, %d)", index, r.count)
	}
	return &Device{index: index}, nil
}

// Device is one CUDA device. Operations set the device current before
// touching the driver.
type Device struct {
	index int
}

func (d *Device) Index() int { return d.index }

func (d *Device) setCurrent() error {
	return cudaErr(C.radixCudaSetDevice(C.int(d.index)))
}

func (d *Device) NewStream() (device.Stream, error) {
	if err := d.setCurrent(); err != nil {
		return nil, err
	}
	var stream C.cudaStream_t
	if err := cudaErr(C.radixCudaStreamCreate(&stream)); err != nil {
		return nil, err
	}
	return &Stream{dev: d, ptr: stream}, nil
}

func (d *Device) Alloc(bytes int64) (device.Buffer, error) {
	if bytes <= 0 {
		return nil, fmt.Errorf("cuda alloc size must be > 0, got %d", bytes)
	}
	if err := d.setCurrent(); err != nil {
		return nil, err
	}
	var ptr unsafe.Pointer
	code := C.radixCudaMalloc((*unsafe.Pointer)(&ptr), C.ulonglong(bytes))
	if code == C.RADIX_CUDA_ERR_OOM {
		return nil, fmt.Errorf("cuda device %d: alloc %d bytes: %w", d.index, bytes, device.ErrOutOfMemory)
	}
	if err := cudaErr(code); err != nil {
		return nil, err
	}
	return &Buffer{dev: d, ptr: ptr, size: bytes}, nil
}

func (d *Device) MemInfo() (free, total int64, err error) {
	if err := d.setCurrent(); err != nil {
		return 0, 0, err
	}
	var f, t C.ulonglong
	if err := cudaErr(C.radixCudaMemGetInfo(&f, &t)); err != nil {
		return 0, 0, err
	}
	return int64(f), int64(t), nil
}

// Stream wraps a cudaStream_t.
type Stream struct {
	dev *Device
	ptr C.cudaStream_t
}

func (s *Stream) DeviceIndex() int { return s.dev.index }

// Device returns the owning CUDA device.
func (s *Stream) Device() *Device { return s.dev }

func (s *Stream) Synchronize() error {
	if s.ptr == nil {
		return nil
	}
	return cudaErr(C.radixCudaStreamSynchronize(s.ptr))
}

func (s *Stream) Destroy() error {
	if s.ptr == nil {
		return nil
	}
	err := cudaErr(C.radixCudaStreamDestroy(s.ptr))
	s.ptr = nil
	return err
}

// Ptr exposes the raw stream handle for kernel launches.
func (s *Stream) Ptr() unsafe.Pointer { return unsafe.Pointer(s.ptr) }

// Buffer wraps a device allocation.
type Buffer struct {
	dev  *Device
	ptr  unsafe.Pointer
	size int64
}

func (b *Buffer) Size() int64 { return b.size }

func (b *Buffer) Upload(src []byte) error {
	if int64(len(src)) != b.size {
		return fmt.Errorf("cuda upload size %d does not match buffer size %d", len(src), b.size)
	}
	if b.size == 0 {
		return nil
	}
	return cudaErr(C.radixCudaMemcpy(b.ptr, unsafe.Pointer(&src[0]), C.ulonglong(b.size), C.RADIX_CUDA_MEMCPY_HOST_TO_DEVICE))
}

func (b *Buffer) Download(dst []byte) error {
	if int64(len(dst)) != b.size {
		return fmt.Errorf("cuda download size %d does not match buffer size %d", len(dst), b.size)
	}
	if b.size == 0 {
		return nil
	}
	return cudaErr(C.radixCudaMemcpy(unsafe.Pointer(&dst[0]), b.ptr, C.ulonglong(b.size), C.RADIX_CUDA_MEMCPY_DEVICE_TO_HOST))
}

func (b *Buffer) Free() error {
	if b.ptr == nil {
		return nil
	}
	if err := b.dev.setCurrent(); err != nil {
		return err
	}
	err := cudaErr(C.radixCudaFree(b.ptr))
	b.ptr = nil
	b.size = 0
	return err
}

// Ptr exposes the raw device pointer for kernel launches.
func (b *Buffer) Ptr() unsafe.Pointer { return b.ptr }

func cudaErr(code C.int) error {
	if code == 0 {
		return nil
	}
	msg := C.GoString(C.radixCudaGetErrorString(C.cudaError_t(code)))
	return fmt.Errorf("cuda runtime error %d: %s", int(code), msg)
}
