package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"modes_radar/internal/geo"
)

// Config holds all configuration for the radar
type Config struct {
	Receiver ReceiverConfig
	Tracker  TrackerConfig
	Registry RegistryConfig
	Display  DisplayConfig
	Log      LogConfig
}

// ReceiverConfig describes the dump1090 JSON endpoint
type ReceiverConfig struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables pacing
}

// TrackerConfig holds reconciliation settings
type TrackerConfig struct {
	SeenLimit    float64
	PollInterval time.Duration
}

// RegistryConfig locates the FAA registry database and its source files
type RegistryConfig struct {
	DBPath        string
	MasterPath    string // MASTER.txt, loaded when the registry table is empty
	AcftRefPath   string // ACFTREF.txt
	LoadBatchSize int
	CacheSize     int
	CacheTTL      time.Duration
}

// DisplayConfig holds the radar scope settings
type DisplayConfig struct {
	Enabled        bool
	CenterLat      float64
	CenterLon      float64
	Unit           string
	Range          float64
	RadiusRows     int
	Locked         []string
	OnlyPositioned bool
	OnlyFlight     bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	File   string // rotated log file; stdout when empty
}

// SlogLevel maps the configured level onto slog, ignoring case. Unknown levels are info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// JSON reports whether log lines are written as JSON
func (l LogConfig) JSON() bool {
	return strings.EqualFold(l.Format, "json")
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/modes_radar")
	v.AddConfigPath(".")

	if configPath := os.Getenv("MODES_RADAR_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// a missing config file is fine, defaults and env vars still apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MODES_RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("receiver.url", "http://127.0.0.1:8080/data.json")
	v.SetDefault("receiver.timeout", "2s")
	v.SetDefault("receiver.rate_limit", 4)

	v.SetDefault("tracker.seen_limit", 60)
	v.SetDefault("tracker.poll_interval", "500ms")

	v.SetDefault("registry.db_path", "faa_database.db")
	v.SetDefault("registry.master_path", "")
	v.SetDefault("registry.acftref_path", "")
	v.SetDefault("registry.load_batch_size", 5000)
	v.SetDefault("registry.cache_size", 512)
	v.SetDefault("registry.cache_ttl", "1h")

	v.SetDefault("display.enabled", true)
	v.SetDefault("display.center_lat", 30.033706)
	v.SetDefault("display.center_lon", -90.053415)
	v.SetDefault("display.unit", "miles")
	v.SetDefault("display.range", 60)
	v.SetDefault("display.radius_rows", 15)
	v.SetDefault("display.locked", []string{})
	v.SetDefault("display.only_positioned", false)
	v.SetDefault("display.only_flight", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Receiver: ReceiverConfig{
			URL:       v.GetString("receiver.url"),
			Timeout:   v.GetDuration("receiver.timeout"),
			RateLimit: v.GetFloat64("receiver.rate_limit"),
		},
		Tracker: TrackerConfig{
			SeenLimit:    v.GetFloat64("tracker.seen_limit"),
			PollInterval: v.GetDuration("tracker.poll_interval"),
		},
		Registry: RegistryConfig{
			DBPath:        v.GetString("registry.db_path"),
			MasterPath:    v.GetString("registry.master_path"),
			AcftRefPath:   v.GetString("registry.acftref_path"),
			LoadBatchSize: v.GetInt("registry.load_batch_size"),
			CacheSize:     v.GetInt("registry.cache_size"),
			CacheTTL:      v.GetDuration("registry.cache_ttl"),
		},
		Display: DisplayConfig{
			Enabled:        v.GetBool("display.enabled"),
			CenterLat:      v.GetFloat64("display.center_lat"),
			CenterLon:      v.GetFloat64("display.center_lon"),
			Unit:           v.GetString("display.unit"),
			Range:          v.GetFloat64("display.range"),
			RadiusRows:     v.GetInt("display.radius_rows"),
			Locked:         v.GetStringSlice("display.locked"),
			OnlyPositioned: v.GetBool("display.only_positioned"),
			OnlyFlight:     v.GetBool("display.only_flight"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
	}
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.Receiver.URL == "" {
		return fmt.Errorf("receiver.url is required")
	}
	if cfg.Receiver.Timeout <= 0 {
		return fmt.Errorf("receiver.timeout must be greater than 0")
	}
	if cfg.Receiver.RateLimit < 0 {
		return fmt.Errorf("receiver.rate_limit must not be negative")
	}

	if cfg.Tracker.SeenLimit <= 0 {
		return fmt.Errorf("tracker.seen_limit must be greater than 0")
	}
	if cfg.Tracker.PollInterval <= 0 {
		return fmt.Errorf("tracker.poll_interval must be greater than 0")
	}

	if cfg.Registry.DBPath == "" {
		return fmt.Errorf("registry.db_path is required")
	}
	if cfg.Registry.LoadBatchSize <= 0 {
		return fmt.Errorf("registry.load_batch_size must be greater than 0")
	}
	if cfg.Registry.CacheSize <= 0 {
		return fmt.Errorf("registry.cache_size must be greater than 0")
	}

	if _, err := geo.ParseUnit(cfg.Display.Unit); err != nil {
		return fmt.Errorf("display.unit: %w", err)
	}
	if cfg.Display.CenterLat < -90 || cfg.Display.CenterLat > 90 {
		return fmt.Errorf("display.center_lat must be between -90 and 90")
	}
	if cfg.Display.CenterLon < -180 || cfg.Display.CenterLon > 180 {
		return fmt.Errorf("display.center_lon must be between -180 and 180")
	}
	if cfg.Display.Range <= 0 {
		return fmt.Errorf("display.range must be greater than 0")
	}
	if cfg.Display.RadiusRows <= 0 {
		return fmt.Errorf("display.radius_rows must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
