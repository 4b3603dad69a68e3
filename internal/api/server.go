// Package api exposes the division engine as a small coprocessor service.
// It is a loopback surface: the server encrypts the request operands under
// a per-request key, runs the division on its runtime and returns the
// decoded outputs, so a client can exercise the full pipeline without
// holding key material.
package api

import (
	"time"

	"github.com/labstack/echo/v5"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/logger"
)

type Server struct {
	runtime device.Runtime
	log     logger.Logger
	clock   func() time.Time
}

func NewServer(runtime device.Runtime, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		runtime: runtime,
		log:     log,
		clock:   time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/divrem", s.handleDivRem)
	e.GET("/v1/params", s.handleParams)
	e.GET("/v1/devices", s.handleDevices)
}
