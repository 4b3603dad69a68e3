package sim

import (
	"fmt"
	"sync"
)

// Buffer is a host-backed device memory region. Kernel tasks access the
// backing slice through Data; host code uses Upload and Download with the
// same synchronization obligations as a real device buffer.
type Buffer struct {
	dev  *Device
	mu   sync.Mutex
	data []byte
}

func (b *Buffer) Size() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.data))
}

func (b *Buffer) Upload(src []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return fmt.Errorf("sim buffer is freed")
	}
	if len(src) != len(b.data) {
		return fmt.Errorf("sim upload size %d does not match buffer size %d", len(src), len(b.data))
	}
	copy(b.data, src)
	return nil
}

func (b *Buffer) Download(dst []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return fmt.Errorf("sim buffer is freed")
	}
	if len(dst) != len(b.data) {
		return fmt.Errorf("sim download size %d does not match buffer size %d", len(dst), len(b.data))
	}
	copy(dst, b.data)
	return nil
}

// Data exposes the backing slice to kernel tasks running on this device's
// streams. The caller must hold stream ordering: no host access while tasks
// that touch the buffer are in flight.
func (b *Buffer) Data() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Free returns the buffer's bytes to the device. Freeing twice is a no-op.
func (b *Buffer) Free() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil
	}
	b.dev.release(int64(len(b.data)))
	b.data = nil
	return nil
}
