package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/engine"
	"github.com/quarklabs/radixengine/internal/logger"
)

var (
	backend    string
	deviceSpec string
	ringSize   int64
	blocks     int64
	variant    string
	logLevel   string
	logFormat  string
	debug      bool
)

func commonEngineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "execution backend (auto, sim, cuda)",
			Value:       device.Auto,
			Destination: &backend,
		},
		&cli.StringFlag{
			Name:        "devices",
			Usage:       "comma-separated device indices, or \"all\"",
			Value:       "0",
			Destination: &deviceSpec,
		},
		&cli.Int64Flag{
			Name:        "size",
			Usage:       "transform size (512, 1024, 2048, 4096, 8192, 16384)",
			Value:       2048,
			Destination: &ringSize,
		},
		&cli.Int64Flag{
			Name:        "blocks",
			Aliases:     []string{"b"},
			Usage:       "radix block count",
			Value:       4,
			Destination: &blocks,
		},
		&cli.StringFlag{
			Name:        "variant",
			Usage:       "bootstrap variant (classical, multibit, amortized)",
			Value:       "classical",
			Destination: &variant,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func newLog() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = logger.ParseLevel("debug")
	}
	if logFormat == "json" {
		return logger.JSON(os.Stderr, level)
	}
	return logger.Pretty(os.Stderr, level)
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

// parseDeviceSpec expands a --devices value against the runtime's device
// count.
func parseDeviceSpec(spec string, count int) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "all") {
		indices := make([]int, count)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}
	parts := strings.Split(spec, ",")
	indices := make([]int, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid device index %q", part)
		}
		if idx < 0 || idx >= count {
			return nil, fmt.Errorf("device index %d out of range [0, %d)", idx, count)
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

func openDevices(rt device.Runtime, spec string) ([]device.Device, error) {
	count, err := rt.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("enumerate %s devices: %w", rt.Name(), err)
	}
	indices, err := parseDeviceSpec(spec, count)
	if err != nil {
		return nil, err
	}
	devices := make([]device.Device, 0, len(indices))
	for _, idx := range indices {
		dev, err := rt.Open(idx)
		if err != nil {
			return nil, fmt.Errorf("open %s device %d: %w", rt.Name(), idx, err)
		}
		devices = append(devices, dev)
	}
	return devices, nil
}
