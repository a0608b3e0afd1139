// Package config provides TOML configuration loading for aprsinjector.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Defaults used when the config file leaves a value unset.
const (
	DefaultServer    = "euro.aprs2.net"
	DefaultPort      = 14580
	DefaultCallsign  = "NOCALL"
	DefaultDBPath    = "/var/lib/aprsinjector/beacons.db"
	DefaultRPCSocket = "/run/aprsinjector/admin.sock"
)

// Config is the top-level configuration structure.
type Config struct {
	Daemon DaemonConfig `toml:"daemon"`
	APRSIS APRSISConfig `toml:"aprsis"`
	Admin  AdminConfig  `toml:"admin"`
}

// DaemonConfig holds settings for the beacon daemon.
type DaemonConfig struct {
	DBPath    string `toml:"db_path"`
	RPCSocket string `toml:"rpc_socket"`
	Interval  string `toml:"interval"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// APRSISConfig holds the APRS-IS connection settings. Server and Port are
// only defaults: the station record in the database takes precedence.
type APRSISConfig struct {
	Server      string `toml:"server"`
	Port        int    `toml:"port"`
	DialTimeout string `toml:"dial_timeout"`
	IOTimeout   string `toml:"io_timeout"`
	Proxy       string `toml:"proxy"`
	Software    string `toml:"software"`
}

// AdminConfig holds settings for the admin subcommands.
type AdminConfig struct {
	RPCSocket string `toml:"rpc_socket"`
}

// ParseInterval parses the beacon interval string to a time.Duration.
func (d *DaemonConfig) ParseInterval() (time.Duration, error) {
	return parseDuration(d.Interval, 5*time.Minute)
}

// ParseDialTimeout parses the connect timeout.
func (a *APRSISConfig) ParseDialTimeout() (time.Duration, error) {
	return parseDuration(a.DialTimeout, 10*time.Second)
}

// ParseIOTimeout parses the login and write timeout.
func (a *APRSISConfig) ParseIOTimeout() (time.Duration, error) {
	return parseDuration(a.IOTimeout, 10*time.Second)
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

// Load reads and parses a TOML config file, applying defaults for unset values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	cfg.expandPaths()
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.expandPaths()
		return cfg, nil
	}
	return Load(path)
}

func (cfg *Config) expandPaths() {
	cfg.Daemon.DBPath = ExpandPath(cfg.Daemon.DBPath)
	cfg.Daemon.RPCSocket = ExpandPath(cfg.Daemon.RPCSocket)
	cfg.Admin.RPCSocket = ExpandPath(cfg.Admin.RPCSocket)
}

// ExpandPath expands tilde (~) to the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}

func applyDefaults(cfg *Config) {

	// Daemon defaults
	if cfg.Daemon.DBPath == "" {
		cfg.Daemon.DBPath = DefaultDBPath
	}
	if cfg.Daemon.RPCSocket == "" {
		cfg.Daemon.RPCSocket = DefaultRPCSocket
	}
	if cfg.Daemon.Interval == "" {
		cfg.Daemon.Interval = "5m"
	}
	if cfg.Daemon.LogLevel == "" {
		cfg.Daemon.LogLevel = "info"
	}
	if cfg.Daemon.LogFormat == "" {
		cfg.Daemon.LogFormat = "console"
	}

	// APRS-IS defaults
	if cfg.APRSIS.Server == "" {
		cfg.APRSIS.Server = DefaultServer
	}
	if cfg.APRSIS.Port == 0 {
		cfg.APRSIS.Port = DefaultPort
	}
	if cfg.APRSIS.DialTimeout == "" {
		cfg.APRSIS.DialTimeout = "10s"
	}
	if cfg.APRSIS.IOTimeout == "" {
		cfg.APRSIS.IOTimeout = "10s"
	}
	if cfg.APRSIS.Software == "" {
		cfg.APRSIS.Software = "aprsinjector"
	}

	// Admin defaults to the daemon's socket
	if cfg.Admin.RPCSocket == "" {
		cfg.Admin.RPCSocket = cfg.Daemon.RPCSocket
	}
}
