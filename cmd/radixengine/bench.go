package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	json "github.com/goccy/go-json"
	"github.com/montanaflynn/stats"
	"github.com/urfave/cli/v3"

	"github.com/quarklabs/radixengine/internal/device/sim"
	"github.com/quarklabs/radixengine/internal/engine"
)

type benchReport struct {
	Backend      string  `json:"backend"`
	Devices      int     `json:"devices"`
	Size         int     `json:"size"`
	Blocks       int     `json:"blocks"`
	Variant      string  `json:"variant"`
	UnrollFactor int     `json:"unroll_factor"`
	Warmup       int     `json:"warmup"`
	Runs         int     `json:"runs"`
	MeanMS       float64 `json:"mean_ms"`
	MedianMS     float64 `json:"median_ms"`
	P95MS        float64 `json:"p95_ms"`
	MinMS        float64 `json:"min_ms"`
	MaxMS        float64 `json:"max_ms"`
}

func benchCmd() *cli.Command {
	var (
		warmupRuns int64
		benchRuns  int64
		numerator  uint64
		divisor    uint64
		asJSON     bool
	)

	flags := append(commonEngineFlags(), loggingFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "number of warmup runs",
			Value:       1,
			Destination: &warmupRuns,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of measured runs",
			Value:       10,
			Destination: &benchRuns,
		},
		&cli.Uint64Flag{
			Name:        "numerator",
			Usage:       "numerator of the benchmarked division",
			Value:       200,
			Destination: &numerator,
		},
		&cli.Uint64Flag{
			Name:        "divisor",
			Usage:       "divisor of the benchmarked division",
			Value:       7,
			Destination: &divisor,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "emit the report as JSON",
			Destination: &asJSON,
		},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Measure encrypted division latency",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLog()
			applyEngineConfig(cmd, LoadConfig())

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

			run := func() (engine.DivRemResult, time.Duration, error) {
				start := time.Now()
				result, err := engine.DivRemOnce(devices, shape, numerator, divisor, []byte("bench"), engine.WithLogger(log))
				return result, time.Since(start), err
			}

			var unroll int
			for i := int64(0); i < warmupRuns; i++ {
				result, _, err := run()
				if err != nil {
					return cli.Exit("error: warmup run: "+err.Error(), 1)
				}
				unroll = result.Derived.UnrollFactor
			}

			samples := make([]float64, 0, benchRuns)
			for i := int64(0); i < benchRuns; i++ {
				result, elapsed, err := run()
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: run %d: %v", i+1, err), 1)
				}
				unroll = result.Derived.UnrollFactor
				samples = append(samples, float64(elapsed.Microseconds())/1000.0)
			}

			mean, _ := stats.Mean(samples)
			median, _ := stats.Median(samples)
			p95, _ := stats.Percentile(samples, 95)
			minMS, _ := stats.Min(samples)
			maxMS, _ := stats.Max(samples)

			report := benchReport{
				Backend:      rt.Name(),
				Devices:      len(devices),
				Size:         int(ringSize),
				Blocks:       int(blocks),
				Variant:      pbsVariant.String(),
				UnrollFactor: unroll,
				Warmup:       int(warmupRuns),
				Runs:         int(benchRuns),
				MeanMS:       mean,
				MedianMS:     median,
				P95MS:        p95,
				MinMS:        minMS,
				MaxMS:        maxMS,
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Println("=== radixengine bench ===")
			fmt.Printf("Backend:  %s (%d device(s))\n", report.Backend, report.Devices)
			fmt.Printf("CPUs:     %d (GOMAXPROCS %d)\n", runtime.NumCPU(), runtime.GOMAXPROCS(0))
			fmt.Printf("Shape:    size=%d blocks=%d variant=%s unroll=%d\n",
				report.Size, report.Blocks, report.Variant, report.UnrollFactor)
			fmt.Printf("Runs:     %d (+%d warmup)\n", report.Runs, report.Warmup)
			fmt.Println()
			fmt.Printf("mean:     %.3f ms\n", report.MeanMS)
			fmt.Printf("median:   %.3f ms\n", report.MedianMS)
			fmt.Printf("p95:      %.3f ms\n", report.P95MS)
			fmt.Printf("min/max:  %.3f / %.3f ms\n", report.MinMS, report.MaxMS)
			return nil
		},
	}
}
