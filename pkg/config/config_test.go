package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")

	content := `
[daemon]
  db_path = "/tmp/test.db"
  rpc_socket = "/tmp/test.sock"
  interval = "10m"
  log_level = "debug"
  log_format = "json"

[aprsis]
  server = "rotate.aprs2.net"
  port = 10152
  dial_timeout = "5s"
  io_timeout = "3s"
  proxy = "socks5://127.0.0.1:1080"
  software = "injector"

[admin]
  rpc_socket = "/tmp/admin.sock"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Daemon.DBPath != "/tmp/test.db" {
		t.Errorf("Daemon.DBPath: got %s, want /tmp/test.db", cfg.Daemon.DBPath)
	}
	if cfg.Daemon.LogFormat != "json" {
		t.Errorf("Daemon.LogFormat: got %s, want json", cfg.Daemon.LogFormat)
	}
	if cfg.APRSIS.Server != "rotate.aprs2.net" {
		t.Errorf("APRSIS.Server: got %s, want rotate.aprs2.net", cfg.APRSIS.Server)
	}
	if cfg.APRSIS.Port != 10152 {
		t.Errorf("APRSIS.Port: got %d, want 10152", cfg.APRSIS.Port)
	}
	if cfg.APRSIS.Proxy != "socks5://127.0.0.1:1080" {
		t.Errorf("APRSIS.Proxy: got %s, want socks5://127.0.0.1:1080", cfg.APRSIS.Proxy)
	}
	if cfg.Admin.RPCSocket != "/tmp/admin.sock" {
		t.Errorf("Admin.RPCSocket: got %s, want /tmp/admin.sock", cfg.Admin.RPCSocket)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")

	// Minimal config, defaults apply
	content := `
[daemon]
  rpc_socket = "/tmp/only.sock"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Daemon.Interval != "5m" {
		t.Errorf("default Interval: got %s, want 5m", cfg.Daemon.Interval)
	}
	if cfg.Daemon.DBPath != DefaultDBPath {
		t.Errorf("default DBPath: got %s, want %s", cfg.Daemon.DBPath, DefaultDBPath)
	}
	if cfg.APRSIS.Server != DefaultServer {
		t.Errorf("default Server: got %s, want %s", cfg.APRSIS.Server, DefaultServer)
	}
	if cfg.APRSIS.Port != DefaultPort {
		t.Errorf("default Port: got %d, want %d", cfg.APRSIS.Port, DefaultPort)
	}
	if cfg.Daemon.LogLevel != "info" {
		t.Errorf("default LogLevel: got %s, want info", cfg.Daemon.LogLevel)
	}
	if cfg.Admin.RPCSocket != "/tmp/only.sock" {
		t.Errorf("Admin.RPCSocket should follow daemon socket: got %s", cfg.Admin.RPCSocket)
	}
}

func TestLoad_NonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Daemon.RPCSocket != DefaultRPCSocket {
		t.Errorf("RPCSocket: got %s, want %s", cfg.Daemon.RPCSocket, DefaultRPCSocket)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(cfgPath, []byte("invalid [[[ toml"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(cfgPath)
	if err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestParseInterval(t *testing.T) {
	cfg := &DaemonConfig{Interval: "90s"}
	d, err := cfg.ParseInterval()
	if err != nil {
		t.Fatalf("parse interval: %v", err)
	}
	if d.Seconds() != 90 {
		t.Errorf("Interval: got %v, want 90s", d)
	}
}

func TestParseInterval_Default(t *testing.T) {
	cfg := &DaemonConfig{}
	d, err := cfg.ParseInterval()
	if err != nil {
		t.Fatalf("parse interval: %v", err)
	}
	if d.Seconds() != 300 {
		t.Errorf("Default interval: got %v, want 5m0s", d)
	}
}

func TestParseInterval_Invalid(t *testing.T) {
	for _, s := range []string{"soon", "-1m", "0s"} {
		cfg := &DaemonConfig{Interval: s}
		if _, err := cfg.ParseInterval(); err == nil {
			t.Errorf("expected error for interval %q", s)
		}
	}
}

func TestParseTimeouts(t *testing.T) {
	cfg := &APRSISConfig{DialTimeout: "3s"}
	d, err := cfg.ParseDialTimeout()
	if err != nil {
		t.Fatalf("parse dial timeout: %v", err)
	}
	if d.Seconds() != 3 {
		t.Errorf("DialTimeout: got %v, want 3s", d)
	}

	d, err = cfg.ParseIOTimeout()
	if err != nil {
		t.Fatalf("parse io timeout: %v", err)
	}
	if d.Seconds() != 10 {
		t.Errorf("Default IOTimeout: got %v, want 10s", d)
	}
}
