package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DataDir string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for the SQLite storage database"`

	// Application configuration
	SitesDir     string `long:"sites-dir" env:"SITES_DIR" default:"./sites" description:"Directory containing site adapter configuration files"`
	Port         string `long:"port" env:"PORT" default:"8742" description:"HTTP server port"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for signal processing"`
	QueueSize    int    `long:"queue-size" env:"QUEUE_SIZE" default:"300" description:"Pipeline task queue capacity"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`

	// Detection tuning
	ClickWindowMs   int `long:"click-window" env:"CLICK_WINDOW_MS" default:"5000" description:"Window after a qualifying click during which a network add signal is trusted (ms)"`
	DebounceMs      int `long:"debounce" env:"DEBOUNCE_MS" default:"400" description:"Window for coalescing identical add signals (ms)"`
	SettleTimeoutMs int `long:"settle-timeout" env:"SETTLE_TIMEOUT_MS" default:"1500" description:"Maximum wait for the page DOM to settle after an add (ms)"`
	NotifyWindowMs  int `long:"notify-window" env:"NOTIFY_WINDOW_MS" default:"6000" description:"Suppression window for repeated add notifications per product (ms)"`
	NudgeTTLMs      int `long:"nudge-ttl" env:"NUDGE_TTL_MS" default:"4000" description:"Lifetime of an undelivered per-tab nudge (ms)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DataDir:         raw.DataDir,
		SitesDir:        raw.SitesDir,
		Port:            raw.Port,
		WorkerCount:     raw.WorkerCount,
		QueueSize:       raw.QueueSize,
		APIAccessKey:    raw.APIAccessKey,
		ClickWindowMs:   raw.ClickWindowMs,
		DebounceMs:      raw.DebounceMs,
		SettleTimeoutMs: raw.SettleTimeoutMs,
		NotifyWindowMs:  raw.NotifyWindowMs,
		NudgeTTLMs:      raw.NudgeTTLMs,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// SetForTesting installs a configuration without going through flag parsing.
func SetForTesting(c *Cfg) {
	globalCfg = c
}

func (c *Cfg) ClickWindow() time.Duration   { return time.Duration(c.ClickWindowMs) * time.Millisecond }
func (c *Cfg) Debounce() time.Duration      { return time.Duration(c.DebounceMs) * time.Millisecond }
func (c *Cfg) SettleTimeout() time.Duration { return time.Duration(c.SettleTimeoutMs) * time.Millisecond }
func (c *Cfg) NotifyWindow() time.Duration  { return time.Duration(c.NotifyWindowMs) * time.Millisecond }
func (c *Cfg) NudgeTTL() time.Duration      { return time.Duration(c.NudgeTTLMs) * time.Millisecond }

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
