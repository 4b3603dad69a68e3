package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/quarklabs/radixengine/internal/api"
	"github.com/quarklabs/radixengine/internal/device/sim"
	"github.com/quarklabs/radixengine/internal/engine"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		simDevices  int64
	)

	flags := append(commonEngineFlags(), loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
		&cli.Int64Flag{
			Name:        "sim-devices",
			Usage:       "device count of the simulated backend",
			Value:       1,
			Destination: &simDevices,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the division coprocessor REST API",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLog()
			applyServeConfig(cmd, LoadConfig(), &addr)

			rt, err := engine.OpenRuntime(backend, sim.WithDeviceCount(int(simDevices)))
			if err != nil {
				return cli.Exit("error: "+err.Error(), 1)
			}

			server := api.NewServer(rt, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr, "backend", rt.Name())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
