package api

type DivRemRequest struct {
	Numerator uint64 `json:"numerator"`
	Divisor   uint64 `json:"divisor"`

	// RingDimension selects the transform size. Defaults to 2048.
	RingDimension int `json:"ring_dimension,omitempty"`
	// Blocks is the radix block count. Defaults to 4.
	Blocks int `json:"blocks,omitempty"`
	// Variant is the bootstrap family: classical, multibit or amortized.
	Variant string `json:"variant,omitempty"`
}

type DivRemResponse struct {
	ID        string `json:"id"`
	Quotient  uint64 `json:"quotient"`
	Remainder uint64 `json:"remainder"`

	Params  ParamsResponse `json:"params"`
	Backend string         `json:"backend"`
	Elapsed string         `json:"elapsed"`
}

type ParamsResponse struct {
	Degree       int    `json:"degree"`
	Log2Degree   int    `json:"log2_degree"`
	UnrollFactor int    `json:"unroll_factor"`
	Mode         string `json:"mode"`
}

type DeviceInfo struct {
	Index       int   `json:"index"`
	MemoryFree  int64 `json:"memory_free"`
	MemoryTotal int64 `json:"memory_total"`
}

type DevicesResponse struct {
	Backend string       `json:"backend"`
	Devices []DeviceInfo `json:"devices"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
