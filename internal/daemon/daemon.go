package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"modes_radar/internal/config"
	"modes_radar/internal/database"
	"modes_radar/internal/display"
	"modes_radar/internal/dump1090"
	"modes_radar/internal/geo"
	"modes_radar/internal/registry"
	"modes_radar/internal/scheduler"
	"modes_radar/internal/tasks"
	"modes_radar/internal/tracker"
)

// Daemon wires the receiver client, tracker, registry and display together
type Daemon struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *scheduler.Scheduler
	database  *database.DB
	tracker   *tracker.Tracker
	renderer  *display.Renderer
	done      chan struct{}
}

// New creates a daemon from cfg. Frames are written to out when the display is enabled.
func New(cfg *config.Config, out io.Writer) (*Daemon, error) {
	if cfg.Receiver.URL == "" {
		return nil, fmt.Errorf("receiver URL is required")
	}

	db, err := database.New(cfg.Registry.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := db.RegistryRepository()
	if err := loadRegistry(repo, cfg.Registry); err != nil {
		db.Close()
		return nil, err
	}

	lookup := registry.NewLookup(repo, cfg.Registry.CacheSize, cfg.Registry.CacheTTL)
	trk := tracker.New(lookup, tracker.WithSeenLimit(cfg.Tracker.SeenLimit))
	client := dump1090.NewClient(cfg.Receiver.URL, cfg.Receiver.Timeout, cfg.Receiver.RateLimit)

	var renderer *display.Renderer
	var sink tasks.FrameSink
	if cfg.Display.Enabled {
		scope, err := newScope(cfg.Display)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create radar scope: %w", err)
		}
		renderer = display.NewRenderer(out, scope, client.URL(), lookup)
		sink = renderer
	}

	ctx, cancel := context.WithCancel(context.Background())

	sched := scheduler.New(ctx)
	sched.AddTask(tasks.NewRadarTask(trk, client, sink, cfg.Tracker.PollInterval))

	return &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		scheduler: sched,
		database:  db,
		tracker:   trk,
		renderer:  renderer,
		done:      make(chan struct{}),
	}, nil
}

func newScope(cfg config.DisplayConfig) (*display.Scope, error) {
	unit, err := geo.ParseUnit(cfg.Unit)
	if err != nil {
		return nil, err
	}
	return display.NewScope(display.View{
		CenterLat:      cfg.CenterLat,
		CenterLon:      cfg.CenterLon,
		Unit:           unit,
		Range:          cfg.Range,
		RadiusRows:     cfg.RadiusRows,
		Locked:         cfg.Locked,
		OnlyPositioned: cfg.OnlyPositioned,
		OnlyFlight:     cfg.OnlyFlight,
	})
}

// loadRegistry fills an empty registry from the configured FAA files. Without files the
// radar still runs and every aircraft resolves to a placeholder type.
func loadRegistry(repo database.RegistryRepository, cfg config.RegistryConfig) error {
	populated, err := repo.IsTablePopulated()
	if err != nil {
		return fmt.Errorf("failed to check registry table: %w", err)
	}
	if populated {
		slog.Info("FAA registry is already populated")
		return nil
	}
	if cfg.MasterPath == "" {
		slog.Warn("FAA registry is empty and no master file is configured, aircraft types will be unknown")
		return nil
	}

	slog.Info("FAA registry is empty, loading from files",
		"master_path", cfg.MasterPath,
		"acftref_path", cfg.AcftRefPath,
	)

	n, err := repo.LoadMasterFile(cfg.MasterPath, cfg.LoadBatchSize)
	if err != nil {
		return fmt.Errorf("failed to load FAA master file: %w", err)
	}
	slog.Info("Loaded FAA master records", "count", n)

	if cfg.AcftRefPath == "" {
		return nil
	}
	n, err = repo.LoadReferenceFile(cfg.AcftRefPath, cfg.LoadBatchSize)
	if err != nil {
		return fmt.Errorf("failed to load FAA aircraft reference file: %w", err)
	}
	slog.Info("Loaded FAA aircraft reference records", "count", n)

	return nil
}

// Tracker exposes the live tracker
func (d *Daemon) Tracker() *tracker.Tracker {
	return d.tracker
}

// Scope returns the radar scope, or nil when the display is disabled
func (d *Daemon) Scope() *display.Scope {
	if d.renderer == nil {
		return nil
	}
	return d.renderer.Scope()
}

// Reset drops every tracked aircraft. Live aircraft reappear from the next snapshot.
func (d *Daemon) Reset() {
	d.tracker.Clear()
	slog.Info("Cleared tracked aircraft")
}

// ApplyDisplay moves the running scope to the unit, centre and range in cfg.
// Each change is validated on its own; an invalid one leaves that setting unchanged.
func (d *Daemon) ApplyDisplay(cfg config.DisplayConfig) error {
	scope := d.Scope()
	if scope == nil {
		return nil
	}

	unit, err := geo.ParseUnit(cfg.Unit)
	if err != nil {
		return err
	}
	if err := scope.SetUnit(unit); err != nil {
		return fmt.Errorf("failed to set unit: %w", err)
	}
	if err := scope.SetCenter(cfg.CenterLat, cfg.CenterLon); err != nil {
		return fmt.Errorf("failed to set centre: %w", err)
	}
	if err := scope.SetRange(cfg.Range); err != nil {
		return fmt.Errorf("failed to set range: %w", err)
	}

	slog.Info("Applied display settings",
		"unit", unit,
		"center_lat", cfg.CenterLat,
		"center_lon", cfg.CenterLon,
		"range", cfg.Range,
	)
	return nil
}

func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	d.scheduler.Start()

	go func() {
		<-d.ctx.Done()
		close(d.done)
	}()

	slog.Info("Daemon started successfully")
	return nil
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")
	d.cancel()
	<-d.done

	d.scheduler.Stop()

	if err := d.database.Close(); err != nil {
		slog.Error("Error closing database", "error", err)
	}

	slog.Info("Daemon stopped")
	return nil
}
