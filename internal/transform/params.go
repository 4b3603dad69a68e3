// Package transform resolves the per-size tuning constants of the numeric
// transform used by the bootstrapping and keyswitching kernels. The mapping
// from a size class to its derived parameters is total, deterministic and
// free of runtime state; the dispatcher relies on it to select a statically
// specialized kernel variant.
package transform

import (
	"fmt"
	"math/bits"
)

// SizeClass identifies one of the supported transform lengths (polynomial
// degrees). The value of a class is its degree. Degrees outside the
// supported set have no class and must be rejected by callers, never
// coerced to a neighbor.
type SizeClass uint32

const (
	Size512   SizeClass = 512
	Size1024  SizeClass = 1024
	Size2048  SizeClass = 2048
	Size4096  SizeClass = 4096
	Size8192  SizeClass = 8192
	Size16384 SizeClass = 16384
)

// sizeClasses is ordered; dispatch and validation iterate it.
var sizeClasses = []SizeClass{
	Size512, Size1024, Size2048, Size4096, Size8192, Size16384,
}

// Classify maps a transform degree to its size class. The second return is
// false when the degree is unsupported.
func Classify(degree int) (SizeClass, bool) {
	for _, c := range sizeClasses {
		if int(c) == degree {
			return c, true
		}
	}
	return 0, false
}

// SupportedDegrees returns the supported transform degrees in ascending
// order. The returned slice is a copy.
func SupportedDegrees() []int {
	out := make([]int, len(sizeClasses))
	for i, c := range sizeClasses {
		out[i] = int(c)
	}
	return out
}

// SupportedSetString renders the supported degrees for diagnostics,
// e.g. "512, 1024, 2048, 4096, 8192, 16384".
func SupportedSetString() string {
	s := ""
	for i, c := range sizeClasses {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d", int(c))
	}
	return s
}

// Degree returns the transform length of the class.
func (c SizeClass) Degree() int { return int(c) }

// Log2 returns the integer log2 of the transform length.
func (c SizeClass) Log2() int { return bits.Len32(uint32(c)) - 1 }

// Valid reports whether the class belongs to the supported set.
func (c SizeClass) Valid() bool {
	_, ok := Classify(int(c))
	return ok
}

func (c SizeClass) String() string { return fmt.Sprintf("%d", int(c)) }

// Mode selects between the two kernel families sharing a size class. The
// amortized family batches several blind rotations per transform pass and
// wants a finer unroll; the standard family keeps register pressure low on
// large degrees.
type Mode int

const (
	Standard Mode = iota
	Amortized
)

func (m Mode) String() string {
	switch m {
	case Standard:
		return "standard"
	case Amortized:
		return "amortized"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DerivedParameters are the tuning constants resolved from a (class, mode)
// pair. Two values with the same inputs are always identical.
type DerivedParameters struct {
	Class        SizeClass
	Mode         Mode
	Degree       int
	Log2Degree   int
	UnrollFactor int
}

// Resolve computes the derived parameters for a supported size class. It is
// total over the supported set; an invalid class is a programming error and
// panics (callers validate degrees with Classify before resolving).
func Resolve(c SizeClass, m Mode) DerivedParameters {
	if !c.Valid() {
		panic(fmt.Sprintf("transform: resolve called with unsupported size %d (supported: %s)",
			int(c), SupportedSetString()))
	}
	return DerivedParameters{
		Class:        c,
		Mode:         m,
		Degree:       c.Degree(),
		Log2Degree:   c.Log2(),
		UnrollFactor: unrollFactor(c, m),
	}
}

// unrollFactor is the per-thread batch width of the transform kernel.
// Standard kernels coarsen slowly with the degree; amortized kernels scale
// linearly so that halving a parameter set lands on the resolved parameters
// of the half degree.
func unrollFactor(c SizeClass, m Mode) int {
	if m == Amortized {
		return c.Degree() / 256
	}
	switch c {
	case Size512, Size1024, Size2048, Size4096:
		return 4
	case Size8192:
		return 8
	default: // Size16384
		return 16
	}
}

// Half derives the companion half-length parameter set: the unroll factor is
// halved (never below 1) and the log2 decremented. Algorithms that need an
// internal transform of half length use this instead of resolving a second
// class.
func (p DerivedParameters) Half() DerivedParameters {
	half := p
	half.Degree = p.Degree / 2
	half.Log2Degree = p.Log2Degree - 1
	if half.UnrollFactor = p.UnrollFactor / 2; half.UnrollFactor < 1 {
		half.UnrollFactor = 1
	}
	if c, ok := Classify(half.Degree); ok {
		half.Class = c
	} else {
		half.Class = 0
	}
	return half
}
