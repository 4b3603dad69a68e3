package device

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
)

// StreamSet is an ordered sequence of execution streams, one per
// participating device. The stream at position 0 belongs to the primary
// device, which anchors context allocation and release; secondary devices
// receive size-partitioned delegated work. The engine never retains a
// stream set past a single call.
type StreamSet struct {
	devices []Device
	streams []Stream
}

// NewStreamSet creates one stream per device, in order. The first device is
// the primary. The returned set owns its streams; Destroy releases them.
func NewStreamSet(devices ...Device) (StreamSet, error) {
	if len(devices) == 0 {
		return StreamSet{}, fmt.Errorf("stream set needs at least one device")
	}
	ss := StreamSet{
		devices: make([]Device, 0, len(devices)),
		streams: make([]Stream, 0, len(devices)),
	}
	for _, dev := range devices {
		stream, err := dev.NewStream()
		if err != nil {
			_ = ss.Destroy()
			return StreamSet{}, fmt.Errorf("create stream on device %d: %w", dev.Index(), err)
		}
		ss.devices = append(ss.devices, dev)
		ss.streams = append(ss.streams, stream)
	}
	return ss, nil
}

// Len returns the number of participating devices.
func (ss StreamSet) Len() int { return len(ss.streams) }

// Primary returns the stream of the primary device.
func (ss StreamSet) Primary() Stream { return ss.streams[0] }

// PrimaryDevice returns the primary device.
func (ss StreamSet) PrimaryDevice() Device { return ss.devices[0] }

// PrimaryDeviceIndex returns the device index anchoring the set.
func (ss StreamSet) PrimaryDeviceIndex() int { return ss.devices[0].Index() }

// Stream returns the i-th stream.
func (ss StreamSet) Stream(i int) Stream { return ss.streams[i] }

// Device returns the i-th device.
func (ss StreamSet) Device(i int) Device { return ss.devices[i] }

// DeviceIndices returns the device index of every stream, in order.
func (ss StreamSet) DeviceIndices() []int {
	out := make([]int, len(ss.streams))
	for i, s := range ss.streams {
		out[i] = s.DeviceIndex()
	}
	return out
}

// Fingerprint hashes the layout of the set: stream count and per-stream
// device indices. A context allocated against one layout refuses to execute
// against another.
func (ss StreamSet) Fingerprint() [32]byte {
	buf := make([]byte, 0, 8+8*len(ss.streams))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(ss.streams)))
	for _, s := range ss.streams {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(s.DeviceIndex()))
	}
	return blake3.Sum256(buf)
}

// Synchronize blocks until all issued work on every stream has completed.
func (ss StreamSet) Synchronize() error {
	for _, s := range ss.streams {
		if err := s.Synchronize(); err != nil {
			return fmt.Errorf("synchronize stream on device %d: %w", s.DeviceIndex(), err)
		}
	}
	return nil
}

// Destroy releases every stream in the set. Outstanding work must have been
// synchronized first.
func (ss StreamSet) Destroy() error {
	var firstErr error
	for _, s := range ss.streams {
		if err := s.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
