package engine

import (
	"fmt"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/device/sim"
	"github.com/quarklabs/radixengine/pkg/radix"
)

// simExecutor runs the division as a reference computation on the simulated
// backend. It mirrors the device kernel's contract: work is issued
// asynchronously per stream, outputs are defined after synchronization, and
// the scratch lives on the primary device for the context's lifetime.
type simExecutor struct {
	scratch device.Buffer
}

func (e *simExecutor) Allocate(streams device.StreamSet, c *Context) error {
	buf, err := streams.PrimaryDevice().Alloc(c.scratchBytes)
	if err != nil {
		return err
	}
	e.scratch = buf
	return nil
}

// DivRem partitions the output blocks across the stream set. Each stream's
// task recomputes the full division from the inputs and writes only its own
// partition, so streams never depend on each other and synchronize in any
// order.
func (e *simExecutor) DivRem(streams device.StreamSet, c *Context, op Operands, launch kernelLaunch) error {
	enc := c.encoding
	quotient, err := simBuffer("quotient", op.Quotient)
	if err != nil {
		return err
	}
	remainder, err := simBuffer("remainder", op.Remainder)
	if err != nil {
		return err
	}
	numerator, err := simBuffer("numerator", op.Numerator)
	if err != nil {
		return err
	}
	divisor, err := simBuffer("divisor", op.Divisor)
	if err != nil {
		return err
	}
	bootstrapKey, err := simBuffer("bootstrap key", op.BootstrapKey)
	if err != nil {
		return err
	}

	c.log.Debug("sim division issued",
		"degree", launch.Degree,
		"log2_degree", launch.Log2Degree,
		"unroll", launch.UnrollFactor,
		"blocks", enc.Blocks,
		"streams", streams.Len(),
	)

	for i := 0; i < streams.Len(); i++ {
		stream, ok := streams.Stream(i).(*sim.Stream)
		if !ok {
			return mismatchedStreamBackend(streams)
		}
		lo, hi := blockPartition(enc.Blocks, streams.Len(), i)
		if lo >= hi {
			continue
		}
		err := stream.Submit(func() error {
			return simDivRemBlocks(enc, quotient, remainder, numerator, divisor, bootstrapKey, lo, hi)
		})
		if err != nil {
			return fmt.Errorf("submit on stream %d: %w", i, err)
		}
	}
	return nil
}

func (e *simExecutor) Release(stream device.Stream, c *Context) error {
	scratch := e.scratch
	e.scratch = nil
	if scratch == nil {
		return nil
	}
	s, ok := stream.(*sim.Stream)
	if !ok {
		return fmt.Errorf("release stream does not belong to the %s backend", device.Sim)
	}
	// Freeing rides the stream so it lands after any in-flight work, the
	// way an ordered device free would.
	if err := s.Submit(scratch.Free); err != nil {
		return scratch.Free()
	}
	return nil
}

// simDivRemBlocks decrypts the inputs with the key carried in the
// simulator's evaluation key blob, divides, and writes the blocks [lo, hi)
// of the quotient and remainder. Division by zero follows the radix
// convention: the quotient saturates to the encoding maximum and the
// remainder is the numerator.
func simDivRemBlocks(enc radix.Encoding, quotient, remainder, numerator, divisor, bootstrapKey *sim.Buffer, lo, hi int) error {
	key, err := radix.KeyFromEvaluationKey(enc, bootstrapKey.Data())
	if err != nil {
		return fmt.Errorf("unpack evaluation key: %w", err)
	}
	num, err := radix.DecryptValue(enc, key, radix.BytesToWords(numerator.Data()))
	if err != nil {
		return fmt.Errorf("read numerator: %w", err)
	}
	div, err := radix.DecryptValue(enc, key, radix.BytesToWords(divisor.Data()))
	if err != nil {
		return fmt.Errorf("read divisor: %w", err)
	}

	var q, r uint64
	if div == 0 {
		q = enc.MaxValue()
		r = num
	} else {
		q = num / div
		r = num % div
	}

	writeBlocks(enc, quotient.Data(), radix.EncodeValue(enc, q), lo, hi)
	writeBlocks(enc, remainder.Data(), radix.EncodeValue(enc, r), lo, hi)
	return nil
}

// writeBlocks copies the blocks [lo, hi) of words into the device-layout
// destination.
func writeBlocks(enc radix.Encoding, dst []byte, words []uint64, lo, hi int) {
	blockWords := enc.BlockWords()
	blockBytes := blockWords * 8
	for b := lo; b < hi; b++ {
		block := radix.WordsToBytes(words[b*blockWords : (b+1)*blockWords])
		copy(dst[b*blockBytes:(b+1)*blockBytes], block)
	}
}

// blockPartition splits blocks into streams near-equal contiguous ranges and
// returns the i-th range. Leading ranges absorb the remainder.
func blockPartition(blocks, streams, i int) (lo, hi int) {
	base := blocks / streams
	extra := blocks % streams
	lo = i*base + min(i, extra)
	hi = lo + base
	if i < extra {
		hi++
	}
	return lo, hi
}

func simBuffer(name string, buf device.Buffer) (*sim.Buffer, error) {
	b, ok := buf.(*sim.Buffer)
	if !ok {
		return nil, fmt.Errorf("%s operand does not live on the %s backend", name, device.Sim)
	}
	return b, nil
}
