// focuscam: camera capture demo with a focus-sweep auto camera page.
// Serves the page shell, live preview and capture API over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/focuscam/internal/config"
	"github.com/teslashibe/focuscam/internal/log"
	"github.com/teslashibe/focuscam/pkg/camera"
	"github.com/teslashibe/focuscam/pkg/capture"
	"github.com/teslashibe/focuscam/pkg/preview"
	"github.com/teslashibe/focuscam/pkg/web"
	"golang.org/x/sync/errgroup"
)

var version = "0.1.0"

func main() {
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port")
	device := flag.String("device", cfg.Device, "Camera device id (e.g. 0 for /dev/video0)")
	preset := flag.String("preset", cfg.Preset, "Camera preset: "+fmt.Sprint(camera.PresetNames()))
	backend := flag.String("backend", cfg.Backend, "Camera backend: gocv or mock")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.Init(level, cfg.LogFormat)
	logger := log.L()

	cfg.Port, cfg.Device, cfg.Preset, cfg.Backend = *port, *device, *preset, *backend

	if err := run(cfg, *debug); err != nil {
		logger.Error("focuscam exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, debug bool) error {
	logger := log.L()
	logger.Info("focuscam starting", "version", version, "backend", cfg.Backend,
		"device", cfg.Device, "preset", cfg.Preset)

	cameras, err := camera.NewManagerWithPreset(cfg.Preset)
	if err != nil {
		return err
	}
	camCfg := cameras.GetConfig()
	logger.Info("camera config", "width", camCfg.Width, "height", camCfg.Height,
		"fps", camCfg.Framerate, "af_mode", camCfg.AfMode)

	var opener camera.Opener
	if cfg.IsMock() {
		opener = camera.NewMockOpener()
	} else {
		opener = camera.NewGocvOpener(log.Component("camera"))
	}

	session := capture.NewSession(opener, cameras, cfg.Device, log.Component("session"))
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reopen the live track so new settings take effect.
	cameras.OnConfigChange = func(c camera.Config) error {
		if !session.Active() {
			return nil
		}
		return session.Open(ctx, "")
	}

	if err := session.Open(ctx, cfg.Device); err != nil {
		// The shell still works without a camera; devices can be picked later.
		logger.Warn("initial camera open failed", "device", cfg.Device, "error", err)
	}

	server := web.NewServer(web.Options{
		Port:           cfg.Port,
		StaticDir:      cfg.StaticDir,
		CaptureTimeout: cfg.CaptureTimeout,
		Debug:          debug,
		Logger:         logger,
	}, opener, cameras, session)

	streamer := preview.NewStreamer(preview.Config{
		Interval: cfg.PreviewInterval,
		Width:    camCfg.PreviewWidth,
		Quality:  70,
	}, session, server.PreviewHub(), logger)
	streamer.WidthFunc = func() int { return cameras.GetConfig().PreviewOrDefaultWidth() }

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error { return streamer.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("focuscam stopped")
	return nil
}
