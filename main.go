// aprsinjector: periodic APRS-IS beacon and object transmitter
//
// Usage:
//
//	aprsinjector run    transmit active beacons on a fixed interval
//	aprsinjector list   show stored beacons
//	aprsinjector add    store a new beacon
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"aprsinjector/cmd/admin"
	"aprsinjector/cmd/daemon"
)

const (
	defaultSystemPath = "/etc/aprsinjector/config.toml"
	defaultLocalPath  = "config.toml"
	version           = "1.0.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := ""

	// Parse --config flag if present
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			args = append(args[:i], args[i+2:]...)
			i--
			continue
		}
		if len(arg) > 9 && arg[:9] == "--config=" {
			configPath = arg[9:]
			args = append(args[:i], args[i+1:]...)
			i--
			continue
		}
	}

	// Auto-discover config if not specified
	if configPath == "" {
		if _, err := os.Stat(defaultLocalPath); err == nil {
			configPath = defaultLocalPath
		} else {
			configPath = defaultSystemPath
		}
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	subcommand, rest := args[0], args[1:]
	var err error

	switch subcommand {
	case "run":
		err = daemon.Run(configPath, version)
	case "list":
		err = admin.List(configPath, rest)
	case "add":
		err = admin.Add(configPath, rest)
	case "edit":
		err = admin.Edit(configPath, rest)
	case "toggle":
		err = admin.Toggle(configPath, rest)
	case "delete":
		err = admin.Delete(configPath, rest)
	case "send":
		err = admin.Send(configPath, rest)
	case "station":
		err = admin.Station(configPath, rest)
	case "import":
		err = admin.Import(configPath, rest)
	case "config":
		err = daemon.EditConfig(configPath)
	case "version":
		fmt.Printf("aprsinjector v%s\n", version)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`aprsinjector v%s: APRS-IS beacon and object transmitter

Usage:
  aprsinjector <command> [flags] [--config <path>]

Commands:
  run                Start the daemon (periodic transmission + admin socket)
  list               List stored beacons
  add                Add a beacon: --pos "lat,lon" [--name --text --symbol --type --inactive]
  edit <index>       Change a beacon; flags as for add, unset flags keep their values
  toggle <index>     Activate or deactivate a beacon
  delete <index>     Remove a beacon
  send <index>       Transmit a beacon now, active or not
  station            Show or set the station: [--callsign --passcode --server --port]
  import             Import legacy JSON files: [--station config.json] [--beacons beacons.json]
  config             Edit the configuration file in your system editor
  version            Print version information
  help               Show this help message

Options:
  --config <path>  Path to config file (default: looks for ./config.toml, then %s)

Examples:
  aprsinjector run
  aprsinjector station --callsign DL1ABC-10
  aprsinjector add --pos "51.0,7.0" --text "Home QTH" --symbol "/-"
  aprsinjector add --pos "50.94,6.96" --type object --name DB0XYZ --symbol "/r" --text "439.050MHz"

`, version, defaultSystemPath)
}
