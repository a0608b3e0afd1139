// Package daemon implements the aprsinjector run command: the periodic
// beacon scheduler plus the admin RPC socket.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"aprsinjector/internal/aprsis"
	"aprsinjector/internal/beacon"
	"aprsinjector/internal/rpc"
	"aprsinjector/internal/store"
	"aprsinjector/pkg/config"
	"aprsinjector/pkg/logger"
)

// Run starts the daemon and blocks until SIGINT or SIGTERM.
func Run(configPath, version string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.Init(cfg.Daemon.LogLevel, cfg.Daemon.LogFormat)

	interval, err := cfg.Daemon.ParseInterval()
	if err != nil {
		return fmt.Errorf("parsing interval: %w", err)
	}
	dialTimeout, err := cfg.APRSIS.ParseDialTimeout()
	if err != nil {
		return fmt.Errorf("parsing dial timeout: %w", err)
	}
	ioTimeout, err := cfg.APRSIS.ParseIOTimeout()
	if err != nil {
		return fmt.Errorf("parsing io timeout: %w", err)
	}

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Daemon.DBPath)
	if err := os.MkdirAll(dbDir, 0700); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dbDir, err)
	}

	// Ensure RPC socket directory exists
	sockDir := filepath.Dir(cfg.Daemon.RPCSocket)
	if err := os.MkdirAll(sockDir, 0700); err != nil {
		return fmt.Errorf("creating socket directory %s: %w", sockDir, err)
	}

	defaults := beacon.TransmitConfig{
		Callsign: config.DefaultCallsign,
		Server:   cfg.APRSIS.Server,
		Port:     cfg.APRSIS.Port,
	}
	db, err := store.New(cfg.Daemon.DBPath, defaults, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	if station, err := db.LoadConfig(); err == nil && station.Callsign == config.DefaultCallsign {
		log.Warn().Msg("Station callsign is not set, use 'aprsinjector station --callsign'")
	}

	dialer := &aprsis.Dialer{
		Software:    cfg.APRSIS.Software,
		Version:     version,
		DialTimeout: dialTimeout,
		IOTimeout:   ioTimeout,
		Proxy:       cfg.APRSIS.Proxy,
		Log:         log,
	}
	dispatcher := beacon.NewDispatcher(aprsis.NewClient(dialer), log)
	scheduler := beacon.NewScheduler(db, dispatcher, interval, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start RPC server (for the admin subcommands)
	if err := rpc.StartServer(ctx, cfg.Daemon.RPCSocket, db, scheduler, log); err != nil {
		return fmt.Errorf("starting RPC server: %w", err)
	}
	defer os.Remove(cfg.Daemon.RPCSocket)

	log.Info().
		Str("db_path", cfg.Daemon.DBPath).
		Str("rpc_socket", cfg.Daemon.RPCSocket).
		Str("version", version).
		Msg("Starting aprsinjector")

	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	log.Info().Msg("Shutting down")
	return nil
}
