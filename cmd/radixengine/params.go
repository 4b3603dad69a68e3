package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/quarklabs/radixengine/internal/transform"
)

func paramsCmd() *cli.Command {
	var mode string

	return &cli.Command{
		Name:      "params",
		Usage:     "Print the derived transform parameters for a size",
		ArgsUsage: "SIZE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "resolver mode (standard, amortized)",
				Value:       "standard",
				Destination: &mode,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("error: expected a SIZE argument", 1)
			}
			size, err := strconv.Atoi(cmd.Args().Get(0))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: invalid size %q", cmd.Args().Get(0)), 1)
			}
			class, ok := transform.Classify(size)
			if !ok {
				return cli.Exit(fmt.Sprintf("error: unsupported transform size %d (supported sizes: %s)",
					size, transform.SupportedSetString()), 1)
			}

			var m transform.Mode
			switch mode {
			case "standard":
				m = transform.Standard
			case "amortized":
				m = transform.Amortized
			default:
				return cli.Exit(fmt.Sprintf("error: unknown mode %q (expected standard or amortized)", mode), 1)
			}

			d := transform.Resolve(class, m)
			fmt.Printf("degree:       %d\n", d.Degree)
			fmt.Printf("log2 degree:  %d\n", d.Log2Degree)
			fmt.Printf("unroll:       %d\n", d.UnrollFactor)
			fmt.Printf("mode:         %s\n", d.Mode)
			return nil
		},
	}
}
