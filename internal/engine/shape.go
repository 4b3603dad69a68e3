package engine

import (
	"fmt"
	"math/bits"

	"github.com/quarklabs/radixengine/internal/transform"
	"github.com/quarklabs/radixengine/pkg/radix"
)

// PBSVariant selects the programmable-bootstrap algorithm family. The
// amortized family resolves a different transform unroll than the others.
type PBSVariant int

const (
	PBSClassical PBSVariant = iota
	PBSMultiBit
	PBSAmortized
)

func (v PBSVariant) String() string {
	switch v {
	case PBSClassical:
		return "classical"
	case PBSMultiBit:
		return "multibit"
	case PBSAmortized:
		return "amortized"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Mode maps the variant to the resolver mode of its kernel family.
func (v PBSVariant) Mode() transform.Mode {
	if v == PBSAmortized {
		return transform.Amortized
	}
	return transform.Standard
}

// ShapeParams are the operation shape supplied at allocation time and
// immutable for the context's lifetime.
type ShapeParams struct {
	// RingDimension is the transform size (polynomial degree) of the
	// bootstrap kernels. Must be one of the supported set.
	RingDimension int
	// LWEDimension is the small secret key dimension.
	LWEDimension int
	// GLWEDimension is the large secret key dimension.
	GLWEDimension int
	// Keyswitch decomposition.
	KSBaseLog int
	KSLevel   int
	// Bootstrap decomposition.
	PBSBaseLog int
	PBSLevel   int
	// GroupingFactor applies to the multibit bootstrap family.
	GroupingFactor int
	// MessageModulus is the radix base; CarryModulus the carry room.
	MessageModulus uint64
	CarryModulus   uint64
	// Blocks is the radix block count of every operand.
	Blocks int
	// Variant selects the bootstrap algorithm family.
	Variant PBSVariant
}

// validate checks every field except the ring dimension, which Allocate
// checks against the supported transform set first. Violations are
// configuration errors and abort.
func (p ShapeParams) validate() {
	if p.LWEDimension <= 0 {
		failConfiguration("lwe dimension must be > 0, got %d", p.LWEDimension)
	}
	if p.GLWEDimension <= 0 {
		failConfiguration("glwe dimension must be > 0, got %d", p.GLWEDimension)
	}
	if p.KSBaseLog <= 0 || p.KSLevel <= 0 {
		failConfiguration("keyswitch decomposition must be positive, got base_log=%d level=%d", p.KSBaseLog, p.KSLevel)
	}
	if p.PBSBaseLog <= 0 || p.PBSLevel <= 0 {
		failConfiguration("bootstrap decomposition must be positive, got base_log=%d level=%d", p.PBSBaseLog, p.PBSLevel)
	}
	if p.Variant == PBSMultiBit && p.GroupingFactor <= 0 {
		failConfiguration("multibit bootstrap needs a grouping factor > 0, got %d", p.GroupingFactor)
	}
	if p.Blocks <= 0 {
		failConfiguration("block count must be > 0, got %d", p.Blocks)
	}
	if !isPowerOfTwo(p.MessageModulus) || p.MessageModulus < 2 {
		failConfiguration("message modulus must be a power of two >= 2, got %d", p.MessageModulus)
	}
	if !isPowerOfTwo(p.CarryModulus) {
		failConfiguration("carry modulus must be a power of two >= 1, got %d", p.CarryModulus)
	}
}

// Encoding returns the radix block layout of the shape's operands.
func (p ShapeParams) Encoding() radix.Encoding {
	return radix.Encoding{
		LWEDimension:   p.LWEDimension,
		MessageModulus: p.MessageModulus,
		CarryModulus:   p.CarryModulus,
		Blocks:         p.Blocks,
	}
}

// CiphertextBytes is the device size of one radix operand.
func (p ShapeParams) CiphertextBytes() int64 {
	return p.Encoding().Bytes()
}

// BootstrapKeyBytes is the device size of the bootstrap key blob.
func (p ShapeParams) BootstrapKeyBytes() int64 {
	glwe := int64(p.GLWEDimension + 1)
	return int64(p.LWEDimension) * int64(p.PBSLevel) * glwe * glwe * int64(p.RingDimension) * 8
}

// KeySwitchKeyBytes is the device size of the keyswitch key blob.
func (p ShapeParams) KeySwitchKeyBytes() int64 {
	return int64(p.GLWEDimension) * int64(p.RingDimension) * int64(p.KSLevel) * int64(p.LWEDimension+1) * 8
}

// scratchBytes sizes the context's device workspace: the radix temporaries
// of the division pipeline plus the transform workspace of the resolved
// class and its half-length companion.
func (p ShapeParams) scratchBytes(d transform.DerivedParameters) int64 {
	blockWords := int64(p.LWEDimension + 1)
	glweWords := int64(p.GLWEDimension+1) * int64(d.Degree)

	half := d.Half()
	halfWords := int64(p.GLWEDimension+1) * int64(half.Degree)

	words := int64(p.Blocks)*blockWords*divRemTemporaries +
		glweWords*int64(d.UnrollFactor) +
		halfWords*int64(half.UnrollFactor)
	return words * 8
}

// divRemTemporaries counts the per-block working ciphertexts the division
// pipeline keeps live at once (running remainder, trial products,
// comparison masks and the partial quotient).
const divRemTemporaries = 9

func isPowerOfTwo(v uint64) bool { return v != 0 && bits.OnesCount64(v) == 1 }
