package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/quarklabs/radixengine/internal/device"
	"github.com/quarklabs/radixengine/internal/device/sim"
	"github.com/quarklabs/radixengine/internal/engine"
)

func divremCmd() *cli.Command {
	var (
		seed   string
		dryRun bool
	)

	flags := append(commonEngineFlags(), loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "seed",
			Usage:       "encryption key seed (any string)",
			Value:       "radixengine-demo",
			Destination: &seed,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "resolve parameters and sizes without touching device memory",
			Destination: &dryRun,
		},
	)

	return &cli.Command{
		Name:      "divrem",
		Usage:     "Divide two integers homomorphically and print quotient and remainder",
		ArgsUsage: "NUMERATOR DIVISOR",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLog()
			applyEngineConfig(cmd, LoadConfig())

			if cmd.Args().Len() != 2 {
				return cli.Exit("error: expected NUMERATOR and DIVISOR arguments", 1)
			}
			numerator, err := strconv.ParseUint(cmd.Args().Get(0), 10, 64)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: invalid numerator %q", cmd.Args().Get(0)), 1)
			}
			divisor, err := strconv.ParseUint(cmd.Args().Get(1), 10, 64)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: invalid divisor %q", cmd.Args().Get(1)), 1)
			}

			pbsVariant, err := parseVariant(variant)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			shape := engine.DefaultShape(int(ringSize), int(blocks), pbsVariant)

			rt, err := engine.OpenRuntime(backend, sim.WithDeviceCount(simDeviceCount(deviceSpec)))
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}
			devices, err := openDevices(rt, deviceSpec)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			opts := []engine.Option{engine.WithLogger(log)}
			if debug {
				opts = append(opts, engine.WithPhaseTimer(engine.NewLogPhaseTimer(log)))
			}

			if dryRun {
				streams, err := device.NewStreamSet(devices...)
				if err != nil {
					return cli.Exit("error: "+err.Error(), 1)
				}
				defer func() { _ = streams.Destroy() }()
				dctx, err := engine.Allocate(streams, shape, append(opts, engine.WithDryRun())...)
				if err != nil {
					return cli.Exit("error: "+err.Error(), 1)
				}
				fmt.Printf("degree:   %d (log2 %d, unroll %d, %s)\n",
					dctx.Derived().Degree, dctx.Derived().Log2Degree,
					dctx.Derived().UnrollFactor, dctx.Derived().Mode)
				fmt.Printf("scratch:  %d bytes (not reserved)\n", dctx.ScratchBytes())
				return dctx.Release(streams.Primary(), streams.PrimaryDeviceIndex())
			}

			log.Info("running encrypted division",
				"backend", rt.Name(),
				"devices", len(devices),
				"size", ringSize,
				"blocks", blocks,
				"variant", pbsVariant.String(),
			)
			result, err := engine.DivRemOnce(devices, shape, numerator, divisor, []byte(seed), opts...)
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			fmt.Printf("degree:   %d (log2 %d, unroll %d, %s)\n",
				result.Derived.Degree, result.Derived.Log2Degree,
				result.Derived.UnrollFactor, result.Derived.Mode)
			fmt.Printf("%d / %d = %d remainder %d\n", numerator, divisor, result.Quotient, result.Remainder)
			return nil
		},
	}
}

// simDeviceCount sizes the simulated runtime so every requested index
// exists. Real backends report their own count.
func simDeviceCount(spec string) int {
	count := 1
	indices, err := parseDeviceSpec(spec, 64)
	if err != nil {
		return count
	}
	for _, idx := range indices {
		if idx+1 > count {
			count = idx + 1
		}
	}
	return count
}
