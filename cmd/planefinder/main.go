// Plane finder server.
// Polls an ADS-B feed, predicts short-term flight paths and serves the
// tracker over a REST API plus a websocket op stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/unklstewy/planefinder/internal/api"
	"github.com/unklstewy/planefinder/internal/logging"
	"github.com/unklstewy/planefinder/internal/maplayer"
	"github.com/unklstewy/planefinder/internal/scan"
	"github.com/unklstewy/planefinder/pkg/adsb"
	"github.com/unklstewy/planefinder/pkg/config"
	"github.com/unklstewy/planefinder/pkg/coordinates"
	"github.com/unklstewy/planefinder/pkg/metadata"
	"github.com/unklstewy/planefinder/pkg/tracking"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file (.yaml or .json)")
	port       = flag.String("port", "", "HTTP server port (overrides config)")
	writeCfg   = flag.Bool("write-config", false, "Write the effective configuration to -config and exit")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "planefinder: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *writeCfg {
		return cfg.Save(*configPath)
	}

	logger, err := logging.Init(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	src, err := cfg.ADSB.ActiveSource()
	if err != nil {
		return err
	}
	source, err := adsb.NewDataSource(src)
	if err != nil {
		return err
	}
	defer source.Close()

	area := cfg.ADSB.Area
	center := coordinates.Point{Lat: area.Latitude, Lon: area.Longitude}
	tracker := tracking.NewTracker(tracking.ConfigFromSettings(cfg.Prediction), center, area.RadiusKm)
	layer := maplayer.New()

	opts := scan.Options{
		Source:   source,
		Tracker:  tracker,
		Layer:    layer,
		Interval: cfg.ADSB.UpdateInterval(),
		Retry:    adsb.RetryFromConfig(cfg.ADSB.Retry),
		Logger:   logger.Logger,
	}
	if cfg.Metadata.Enabled {
		opts.Metadata = metadata.NewClient(cfg.Metadata)
	}
	scanner, err := scan.New(opts)
	if err != nil {
		return err
	}

	hub := api.NewHub(layer, logger.Logger, nil)
	scanner.OnTick(hub.Publish)
	server := api.NewServer(cfg, tracker, layer, scanner, hub, source.Name(), logger.Logger)

	logger.Info("plane finder starting",
		slog.String("source", source.Name()),
		slog.String("area", area.Name),
		slog.Float64("lat", area.Latitude),
		slog.Float64("lon", area.Longitude),
		slog.Float64("radius_km", area.RadiusKm),
		slog.Duration("interval", cfg.ADSB.UpdateInterval()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scanner.Run(ctx) })
	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error { return server.ListenAndServe(ctx) })

	if err := g.Wait(); err != nil {
		logger.Error("shutdown with error", slog.Any("error", err))
		return err
	}
	logger.Info("plane finder stopped")
	return nil
}
