package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"modes_radar/internal/config"
	"modes_radar/internal/daemon"
)

func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}

	// the radar scope owns stdout while the display is enabled
	var w io.Writer = os.Stdout
	if cfg.Log.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	} else if cfg.Display.Enabled {
		w = os.Stderr
	}

	var handler slog.Handler
	if cfg.Log.JSON() {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("MODES_RADAR_CONFIG_PATH", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		// logger isn't initialized yet
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	d, err := daemon.New(cfg, os.Stdout)
	if err != nil {
		slog.Error("Failed to initialize daemon", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	if err := d.Start(); err != nil {
		slog.Error("Failed to start daemon", "error", err)
		os.Exit(1)
	}

	slog.Info("Polling receiver", "url", cfg.Receiver.URL, "interval", cfg.Tracker.PollInterval)

	// SIGHUP resets the aircraft list and re-reads the display settings
	for sig := range sigChan {
		if sig != syscall.SIGHUP {
			break
		}
		reload(d)
	}
	slog.Info("Received interrupt signal, shutting down...")

	if err := d.Stop(); err != nil {
		slog.Error("Error stopping daemon", "error", err)
	}

	slog.Info("Shutdown complete")
}

func reload(d *daemon.Daemon) {
	slog.Info("Received hangup signal, resetting")
	d.Reset()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to reload configuration", "error", err)
		return
	}
	if err := d.ApplyDisplay(cfg.Display); err != nil {
		slog.Error("Failed to apply display settings", "error", err)
	}
}
