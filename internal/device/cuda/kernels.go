//go:build cuda

package cuda

/*
#cgo LDFLAGS: -lradix_cuda_kernels

#include <stdint.h>

// Host entry points of the external kernels library. The engine treats the
// scratch area as an opaque int8_t* owned by the library between scratch and
// cleanup.

extern void scratch_cuda_integer_div_rem_radix_kb_64(
	void *const *streams, uint32_t const *gpu_indexes, uint32_t gpu_count,
	int8_t **mem_ptr,
	uint32_t ring_dimension, uint32_t lwe_dimension, uint32_t glwe_dimension,
	uint32_t ks_base_log, uint32_t ks_level,
	uint32_t pbs_base_log, uint32_t pbs_level,
	uint32_t grouping_factor, uint32_t num_blocks,
	uint32_t message_modulus, uint32_t carry_modulus,
	uint32_t pbs_variant, uint32_t allocate_gpu_memory);

extern void cuda_integer_div_rem_radix_kb_64(
	void *const *streams, uint32_t const *gpu_indexes, uint32_t gpu_count,
	void *quotient, void *remainder,
	void const *numerator, void const *divisor,
	int8_t *mem_ptr, void const *bsk, void const *ksk,
	uint32_t num_blocks);

extern void cleanup_cuda_integer_div_rem(
	void *const *streams, uint32_t const *gpu_indexes, uint32_t gpu_count,
	int8_t **mem_ptr);
*/
import "C"

import "unsafe"

// KernelShape carries the configuration forwarded to the kernel library's
// scratch entry point.
type KernelShape struct {
	RingDimension  uint32
	LWEDimension   uint32
	GLWEDimension  uint32
	KSBaseLog      uint32
	KSLevel        uint32
	PBSBaseLog     uint32
	PBSLevel       uint32
	GroupingFactor uint32
	Blocks         uint32
	MessageModulus uint32
	CarryModulus   uint32
	PBSVariant     uint32
}

// Scratch is the opaque per-context workspace handle returned by the kernel
// library.
type Scratch struct {
	mem *C.int8_t
}

type launchTarget struct {
	streams []unsafe.Pointer
	indexes []C.uint32_t
}

func newLaunchTarget(streams []*Stream) launchTarget {
	t := launchTarget{
		streams: make([]unsafe.Pointer, len(streams)),
		indexes: make([]C.uint32_t, len(streams)),
	}
	for i, s := range streams {
		t.streams[i] = unsafe.Pointer(s.ptr)
		t.indexes[i] = C.uint32_t(s.dev.index)
	}
	return t
}

// ScratchDivRem sizes (and, when allocate is true, reserves) the workspace
// of one division context across the given streams.
func ScratchDivRem(streams []*Stream, shape KernelShape, allocate bool) *Scratch {
	t := newLaunchTarget(streams)
	sc := &Scratch{}
	var allocFlag C.uint32_t
	if allocate {
		allocFlag = 1
	}
	C.scratch_cuda_integer_div_rem_radix_kb_64(
		&t.streams[0], &t.indexes[0], C.uint32_t(len(streams)),
		&sc.mem,
		C.uint32_t(shape.RingDimension), C.uint32_t(shape.LWEDimension), C.uint32_t(shape.GLWEDimension),
		C.uint32_t(shape.KSBaseLog), C.uint32_t(shape.KSLevel),
		C.uint32_t(shape.PBSBaseLog), C.uint32_t(shape.PBSLevel),
		C.uint32_t(shape.GroupingFactor), C.uint32_t(shape.Blocks),
		C.uint32_t(shape.MessageModulus), C.uint32_t(shape.CarryModulus),
		C.uint32_t(shape.PBSVariant), allocFlag)
	return sc
}

// DivRem issues the division onto the streams. Outputs are valid once the
// caller synchronizes the stream set.
func DivRem(streams []*Stream, quotient, remainder, numerator, divisor *Buffer, sc *Scratch, bsk, ksk *Buffer, blocks uint32) {
	t := newLaunchTarget(streams)
	C.cuda_integer_div_rem_radix_kb_64(
		&t.streams[0], &t.indexes[0], C.uint32_t(len(streams)),
		quotient.ptr, remainder.ptr,
		numerator.ptr, divisor.ptr,
		sc.mem, bsk.ptr, ksk.ptr,
		C.uint32_t(blocks))
}

// CleanupDivRem releases the workspace, serialized on the given streams.
func CleanupDivRem(streams []*Stream, sc *Scratch) {
	if sc == nil || sc.mem == nil {
		return
	}
	t := newLaunchTarget(streams)
	C.cleanup_cuda_integer_div_rem(&t.streams[0], &t.indexes[0], C.uint32_t(len(streams)), &sc.mem)
	sc.mem = nil
}
