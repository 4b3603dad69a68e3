package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/engine"
	"github.com/quarklabs/radixengine/internal/transform"
)

const (
	defaultRingDimension = 2048
	defaultBlocks        = 4
)

func (s *Server) handleDivRem(c *echo.Context) error {
	req, err := decodeJSON[DivRemRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Divisor == 0 {
		return writeBadRequest(c, "divisor must be non-zero")
	}
	if req.RingDimension == 0 {
		req.RingDimension = defaultRingDimension
	}
	if req.Blocks == 0 {
		req.Blocks = defaultBlocks
	}
	variant, err := parseVariant(req.Variant)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	id := "div_" + uuid.NewString()
	shape := engine.DefaultShape(req.RingDimension, req.Blocks, variant)
	seed := []byte(id)

	devices, err := s.openDevices()
	if err != nil {
		return writeServerError(c, err.Error())
	}

	start := s.clock()
	result, err := runDivRem(devices, shape, req.Numerator, req.Divisor, seed)
	if err != nil {
		if _, ok := err.(*engine.ConfigurationError); ok {
			return writeBadRequest(c, err.Error())
		}
		s.log.Error("division failed", "id", id, "error", err)
		return writeServerError(c, err.Error())
	}

	s.log.Info("division served",
		"id", id,
		"degree", result.Derived.Degree,
		"unroll", result.Derived.UnrollFactor,
		"blocks", req.Blocks,
	)
	return c.JSON(http.StatusOK, DivRemResponse{
		ID:        id,
		Quotient:  result.Quotient,
		Remainder: result.Remainder,
		Params:    paramsResponse(result.Derived),
		Backend:   s.runtime.Name(),
		Elapsed:   time.Since(start).String(),
	})
}

// runDivRem converts configuration panics into errors: over HTTP a bad
// request must not take the server down.
func runDivRem(devices []device.Device, shape engine.ShapeParams, numerator, divisor uint64, seed []byte) (result engine.DivRemResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			cerr, ok := r.(*engine.ConfigurationError)
			if !ok {
				panic(r)
			}
			err = cerr
		}
	}()
	return engine.DivRemOnce(devices, shape, numerator, divisor, seed)
}

func (s *Server) handleParams(c *echo.Context) error {
	size, err := strconv.Atoi(c.QueryParam("size"))
	if err != nil {
		return writeBadRequest(c, "size must be an integer")
	}
	class, ok := transform.Classify(size)
	if !ok {
		return writeBadRequest(c, fmt.Sprintf("unsupported transform size %d (supported sizes: %s)",
			size, transform.SupportedSetString()))
	}
	mode, err := parseMode(c.QueryParam("mode"))
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	return c.JSON(http.StatusOK, paramsResponse(transform.Resolve(class, mode)))
}

func (s *Server) handleDevices(c *echo.Context) error {
	count, err := s.runtime.DeviceCount()
	if err != nil {
		return writeServerError(c, err.Error())
	}
	resp := DevicesResponse{
		Backend: s.runtime.Name(),
		Devices: make([]DeviceInfo, 0, count),
	}
	for i := 0; i < count; i++ {
		dev, err := s.runtime.Open(i)
		if err != nil {
			return writeServerError(c, err.Error())
		}
		free, total, err := dev.MemInfo()
		if err != nil {
			return writeServerError(c, err.Error())
		}
		resp.Devices = append(resp.Devices, DeviceInfo{
			Index:       dev.Index(),
			MemoryFree:  free,
			MemoryTotal: total,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) openDevices() ([]device.Device, error) {
	count, err := s.runtime.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	devices := make([]device.Device, 0, count)
	for i := 0; i < count; i++ {
		dev, err := s.runtime.Open(i)
		if err != nil {
			return nil, fmt.Errorf("open device %d: %w", i, err)
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func paramsResponse(d transform.DerivedParameters) ParamsResponse {
	return ParamsResponse{
		Degree:       d.Degree,
		Log2Degree:   d.Log2Degree,
		UnrollFactor: d.UnrollFactor,
		Mode:         d.Mode.String(),
	}
}

func parseVariant(name string) (engine.PBSVariant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "classical":
		return engine.PBSClassical, nil
	case "multibit":
		return engine.PBSMultiBit, nil
	case "amortized":
		return engine.PBSAmortized, nil
	default:
		return 0, fmt.Errorf("unknown bootstrap variant %q (expected classical, multibit, or amortized)", name)
	}
}

func parseMode(name string) (transform.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard":
		return transform.Standard, nil
	case "amortized":
		return transform.Amortized, nil
	default:
		return 0, fmt.Errorf("unknown resolver mode %q (expected standard or amortized)", name)
	}
}
