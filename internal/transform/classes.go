package transform

// ClassParams is the constraint satisfied by the monomorphization anchors
// below. Kernel launch functions take an anchor as a type parameter, so the
// compiler emits one specialization per supported size with the degree and
// log2 as constants rather than loads.
type ClassParams interface {
	P512 | P1024 | P2048 | P4096 | P8192 | P16384
	Degree() int
	Log2Degree() int
}

// One zero-size anchor type per supported size class. Adding or removing a
// class is a compile-visible change: the constraint above and the
// dispatcher's switch must both be updated.
type (
	P512   struct{}
	P1024  struct{}
	P2048  struct{}
	P4096  struct{}
	P8192  struct{}
	P16384 struct{}
)

func (P512) Degree() int       { return 512 }
func (P512) Log2Degree() int   { return 9 }
func (P1024) Degree() int      { return 1024 }
func (P1024) Log2Degree() int  { return 10 }
func (P2048) Degree() int      { return 2048 }
func (P2048) Log2Degree() int  { return 11 }
func (P4096) Degree() int      { return 4096 }
func (P4096) Log2Degree() int  { return 12 }
func (P8192) Degree() int      { return 8192 }
func (P8192) Log2Degree() int  { return 13 }
func (P16384) Degree() int     { return 16384 }
func (P16384) Log2Degree() int { return 14 }
