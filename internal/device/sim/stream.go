package sim

import (
	"fmt"
	"sync"
)

const streamQueueDepth = 1024

// Stream executes submitted tasks in issue order on a dedicated goroutine.
// Submit returns as soon as the task is queued; Synchronize blocks until the
// queue has drained and returns the first task error since the previous
// synchronization point.
type Stream struct {
	dev   *Device
	tasks chan func()

	mu       sync.Mutex
	closed   bool
	firstErr error

	done chan struct{}
}

func newStream(dev *Device) *Stream {
	s := &Stream{
		dev:   dev,
		tasks: make(chan func(), streamQueueDepth),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Stream) run() {
	defer close(s.done)
	for task := range s.tasks {
		task()
	}
}

// DeviceIndex returns the index of the owning device.
func (s *Stream) DeviceIndex() int { return s.dev.index }

// Device returns the owning simulated device.
func (s *Stream) Device() *Device { return s.dev }

// Submit queues work on the stream. The error returned by work is surfaced
// by the next Synchronize call.
func (s *Stream) Submit(work func() error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("sim stream on device %d is destroyed", s.dev.index)
	}
	s.mu.Unlock()

	s.tasks <- func() {
		if err := work(); err != nil {
			s.mu.Lock()
			if s.firstErr == nil {
				s.firstErr = err
			}
			s.mu.Unlock()
		}
	}
	return nil
}

// Synchronize waits for all queued work, then reports and clears the first
// task error.
func (s *Stream) Synchronize() error {
	fence := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.takeErr()
	}
	s.mu.Unlock()

	s.tasks <- func() { close(fence) }
	<-fence
	return s.takeErr()
}

func (s *Stream) takeErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.firstErr
	s.firstErr = nil
	return err
}

// Destroy stops the stream after draining queued work. Submitting after
// Destroy fails.
func (s *Stream) Destroy() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.tasks)
	<-s.done
	return s.takeErr()
}
