package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quarklabs/radixengine/internal/device/sim"
	"github.com/quarklabs/radixengine/internal/engine"
)

func devicesCmd() *cli.Command {
	var count int64

	return &cli.Command{
		Name:  "devices",
		Usage: "List the devices of the selected backend",
		Flags: append(loggingFlags(),
			&cli.StringFlag{
				Name:        "backend",
				Usage:       "execution backend (auto, sim, cuda)",
				Value:       "auto",
				Destination: &backend,
			},
			&cli.Int64Flag{
				Name:        "sim-devices",
				Usage:       "device count of the simulated backend",
				Value:       1,
				Destination: &count,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyEngineConfig(cmd, LoadConfig())

			rt, err := engine.OpenRuntime(backend, sim.WithDeviceCount(int(count)))
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			n, err := rt.DeviceCount()
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			fmt.Printf("backend: %s (compiled: %s)\n", rt.Name(), engine.Available())
			if free, total, ok := hostMemory(); ok {
				fmt.Printf("host:    %s free / %s\n", formatBytes(free), formatBytes(total))
			}
			for i := 0; i < n; i++ {
				dev, err := rt.Open(i)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: open device %d: %v", i, err), 1)
				}
				free, total, err := dev.MemInfo()
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: query device %d: %v", i, err), 1)
				}
				fmt.Printf("device %d: %s free / %s\n", dev.Index(), formatBytes(free), formatBytes(total))
			}
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
