// Package admin implements the aprsinjector subcommands that manage a
// running daemon over its RPC socket.
package admin

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"aprsinjector/internal/aprs"
	"aprsinjector/internal/beacon"
	"aprsinjector/internal/rpc"
	"aprsinjector/pkg/config"
)

var errUsage = errors.New("usage")

func dial(configPath string) (*rpc.Client, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	client, err := rpc.NewClient(cfg.Admin.RPCSocket)
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w\nIs 'aprsinjector run' running?", err)
	}
	return client, nil
}

// List prints the stored beacons.
func List(configPath string, args []string) error {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dial(configPath)
	if err != nil {
		return err
	}
	defer client.Close()

	station, err := client.GetStation()
	if err != nil {
		return fmt.Errorf("fetching station: %w", err)
	}
	beacons, err := client.ListBeacons()
	if err != nil {
		return fmt.Errorf("fetching beacons: %w", err)
	}

	fmt.Printf("\n  Station %s via %s:%d\n\n", station.Callsign, station.Server, station.Port)
	if len(beacons) == 0 {
		fmt.Println("  No beacons configured. Add one with 'aprsinjector add'.")
		return nil
	}
	displayBeaconTable(os.Stdout, beacons)
	return nil
}

// beaconFlags holds the flags shared by add and edit.
type beaconFlags struct {
	fs       *pflag.FlagSet
	name     *string
	text     *string
	pos      *string
	symbol   *string
	typ      *string
	inactive *bool
}

func newBeaconFlags(cmd string) *beaconFlags {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	return &beaconFlags{
		fs:       fs,
		name:     fs.String("name", "", "object name (up to 9 characters are sent)"),
		text:     fs.String("text", "", "comment text"),
		pos:      fs.String("pos", "", `position as "lat,lon" in decimal degrees`),
		symbol:   fs.String("symbol", aprs.ParseSymbol("").String(), "two-character symbol code"),
		typ:      fs.String("type", string(beacon.TypePosition), "position or object"),
		inactive: fs.Bool("inactive", false, "store without transmitting"),
	}
}

// apply copies every flag set on the command line into b.
func (f *beaconFlags) apply(b *beacon.Beacon) error {
	if f.fs.Changed("name") {
		b.Name = *f.name
	}
	if f.fs.Changed("text") {
		b.Text = *f.text
	}
	if f.fs.Changed("pos") {
		lat, lon, err := beacon.ParsePosition(*f.pos)
		if err != nil {
			return err
		}
		b.Lat, b.Lon = lat, lon
	}
	if f.fs.Changed("symbol") {
		b.Symbol = *f.symbol
	}
	if f.fs.Changed("type") {
		switch t := beacon.Type(*f.typ); t {
		case beacon.TypePosition, beacon.TypeObject:
			b.Type = t
		default:
			return fmt.Errorf("unknown beacon type %q (want position or object)", *f.typ)
		}
	}
	if f.fs.Changed("inactive") {
		b.Active = !*f.inactive
	}
	if b.Type.Resolve() == beacon.TypeObject && b.Name == "" {
		return errors.New("objects need a --name")
	}
	return nil
}

// Add stores a new beacon.
func Add(configPath string, args []string) error {
	f := newBeaconFlags("add")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if !f.fs.Changed("pos") {
		return fmt.Errorf("%w: aprsinjector add --pos \"lat,lon\" [--name --text --symbol --type --inactive]", errUsage)
	}

	b := beacon.Beacon{
		Symbol: *f.symbol,
		Type:   beacon.TypePosition,
		Active: true,
	}
	if err := f.apply(&b); err != nil {
		return err
	}

	client, err := dial(configPath)
	if err != nil {
		return err
	}
	defer client.Close()

	index, err := client.AddBeacon(b)
	if err != nil {
		return fmt.Errorf("adding beacon: %w", err)
	}
	fmt.Printf("✓ Added beacon %d\n", index)
	return nil
}

// Edit changes the fields of a stored beacon named by flags.
func Edit(configPath string, args []string) error {
	f := newBeaconFlags("edit")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	index, err := parseIndex("edit", f.fs.Args())
	if err != nil {
		return err
	}

	client, err := dial(configPath)
	if err != nil {
		return err
	}
	defer client.Close()

	beacons, err := client.ListBeacons()
	if err != nil {
		return fmt.Errorf("fetching beacons: %w", err)
	}
	if index >= len(beacons) {
		return fmt.Errorf("beacon %d: %w", index, beacon.ErrNoSuchBeacon)
	}

	b := beacons[index]
	if err := f.apply(&b); err != nil {
		return err
	}
	if err := client.UpdateBeacon(index, b); err != nil {
		return fmt.Errorf("updating beacon: %w", err)
	}
	fmt.Printf("✓ Updated beacon %d\n", index)
	return nil
}

// Toggle flips the active flag of a stored beacon.
func Toggle(configPath string, args []string) error {
	index, err := parseIndex("toggle", args)
	if err != nil {
		return err
	}

	client, err := dial(configPath)
	if err != nil {
		return err
	}
	defer client.Close()

	active, err := client.ToggleBeacon(index)
	if err != nil {
		return fmt.Errorf("toggling beacon: %w", err)
	}
	state := "inactive"
	if active {
		state = "active"
	}
	fmt.Printf("✓ Beacon %d is now %s\n", index, state)
	return nil
}

// Delete removes a stored beacon.
func Delete(configPath string, args []string) error {
	index, err := parseIndex("delete", args)
	if err != nil {
		return err
	}

	client, err := dial(configPath)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeleteBeacon(index); err != nil {
		return fmt.Errorf("deleting beacon: %w", err)
	}
	fmt.Printf("✓ Deleted beacon %d\n", index)
	return nil
}

// Send transmits a stored beacon now, whether or not it is active.
func Send(configPath string, args []string) error {
	index, err := parseIndex("send", args)
	if err != nil {
		return err
	}

	client, err := dial(configPath)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SendNow(index); err != nil {
		return fmt.Errorf("sending beacon: %w", err)
	}
	fmt.Printf("✓ Sent beacon %d\n", index)
	return nil
}

// Station shows the transmit settings, or changes the ones given as flags.
func Station(configPath string, args []string) error {
	fs := pflag.NewFlagSet("station", pflag.ContinueOnError)
	callsign := fs.String("callsign", "", "station callsign (with SSID)")
	passcode := fs.String("passcode", "", "APRS-IS passcode, -1 for receive-only")
	server := fs.String("server", "", "APRS-IS server host")
	port := fs.Int("port", 0, "APRS-IS server port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dial(configPath)
	if err != nil {
		return err
	}
	defer client.Close()

	station, err := client.GetStation()
	if err != nil {
		return fmt.Errorf("fetching station: %w", err)
	}

	if fs.NFlag() == 0 {
		fmt.Printf("Callsign: %s\n", station.Callsign)
		fmt.Printf("Passcode: %s\n", maskPasscode(station.Passcode))
		fmt.Printf("Server:   %s:%d\n", station.Server, station.Port)
		return nil
	}

	if fs.Changed("callsign") {
		station.Callsign = strings.ToUpper(strings.TrimSpace(*callsign))
	}
	if fs.Changed("passcode") {
		station.Passcode = *passcode
	} else if fs.Changed("callsign") && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("APRS-IS passcode for %s: ", station.Callsign)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading passcode: %w", err)
		}
		station.Passcode = strings.TrimSpace(string(raw))
	}
	if fs.Changed("server") {
		station.Server = *server
	}
	if fs.Changed("port") {
		station.Port = *port
	}
	if err := validateStation(station); err != nil {
		return err
	}

	if err := client.SetStation(station); err != nil {
		return fmt.Errorf("saving station: %w", err)
	}
	fmt.Printf("✓ Station saved: %s via %s:%d\n", station.Callsign, station.Server, station.Port)
	return nil
}

// Import loads the JSON files of an older installation into the daemon.
func Import(configPath string, args []string) error {
	fs := pflag.NewFlagSet("import", pflag.ContinueOnError)
	stationPath := fs.String("station", "", "legacy config.json")
	beaconsPath := fs.String("beacons", "", "legacy beacons.json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *stationPath == "" && *beaconsPath == "" {
		return fmt.Errorf("%w: aprsinjector import [--station config.json] [--beacons beacons.json]", errUsage)
	}

	var (
		station beacon.TransmitConfig
		beacons []beacon.Beacon
		err     error
	)
	if *stationPath != "" {
		if station, err = readLegacyStation(*stationPath); err != nil {
			return err
		}
		if err := validateStation(station); err != nil {
			return fmt.Errorf("%s: %w", *stationPath, err)
		}
	}
	if *beaconsPath != "" {
		if beacons, err = readLegacyBeacons(*beaconsPath); err != nil {
			return err
		}
	}

	client, err := dial(configPath)
	if err != nil {
		return err
	}
	defer client.Close()

	if *stationPath != "" {
		if err := client.SetStation(station); err != nil {
			return fmt.Errorf("saving station: %w", err)
		}
		fmt.Printf("✓ Imported station %s\n", station.Callsign)
	}
	if *beaconsPath != "" {
		if err := client.ReplaceBeacons(beacons); err != nil {
			return fmt.Errorf("saving beacons: %w", err)
		}
		fmt.Printf("✓ Imported %d beacons\n", len(beacons))
	}
	return nil
}

func parseIndex(cmd string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: aprsinjector %s <index>", errUsage, cmd)
	}
	index, err := strconv.Atoi(args[0])
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid beacon index: %s", args[0])
	}
	return index, nil
}

func validateStation(c beacon.TransmitConfig) error {
	if c.Callsign == "" {
		return errors.New("callsign must not be empty")
	}
	if c.Server == "" {
		return errors.New("server must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func maskPasscode(p string) string {
	switch p {
	case "":
		return "(none)"
	case "-1":
		return "-1 (receive-only)"
	}
	return strings.Repeat("*", len(p))
}

func displayBeaconTable(w io.Writer, beacons []beacon.Beacon) {
	fmt.Fprintf(w, "  %-4s %-9s %-8s %-22s %-6s %-30s %-6s\n",
		"#", "Name", "Type", "Position", "Symbol", "Text", "Active")
	fmt.Fprintf(w, "  %s %s %s %s %s %s %s\n",
		strings.Repeat("─", 4),
		strings.Repeat("─", 9),
		strings.Repeat("─", 8),
		strings.Repeat("─", 22),
		strings.Repeat("─", 6),
		strings.Repeat("─", 30),
		strings.Repeat("─", 6))

	for i, b := range beacons {
		active := "✗"
		if b.Active {
			active = "✓"
		}
		fmt.Fprintf(w, "  %-4d %-9s %-8s %-22s %-6s %-30s %-6s\n",
			i,
			truncate(b.Name, 9),
			b.Type.Resolve(),
			b.Position(),
			aprs.ParseSymbol(b.Symbol),
			truncate(b.Text, 30),
			active,
		)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}
