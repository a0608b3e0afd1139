// Package beacon defines beacon records and drives their transmission:
// building packets, dispatching them and re-sending active beacons on a
// fixed cadence.
package beacon

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"aprsinjector/internal/aprs"
	"aprsinjector/internal/aprsis"
)

// Type selects the packet form of a beacon.
type Type string

const (
	TypePosition Type = "position"
	TypeObject   Type = "object"
)

// Resolve maps anything but "object" to TypePosition.
func (t Type) Resolve() Type {
	if t == TypeObject {
		return TypeObject
	}
	return TypePosition
}

var (
	// ErrBadPosition is returned for position text that is not "lat,lon".
	ErrBadPosition = errors.New(`position must be "lat,lon" in decimal degrees`)
	// ErrNoSuchBeacon is returned for an index outside the beacon list.
	ErrNoSuchBeacon = errors.New("no such beacon")
)

// Beacon is one stored position report or object.
type Beacon struct {
	Name   string  `msgpack:"name"`
	Text   string  `msgpack:"text"`
	Lat    float64 `msgpack:"lat"`
	Lon    float64 `msgpack:"lon"`
	Symbol string  `msgpack:"symbol"`
	Type   Type    `msgpack:"type"`
	Active bool    `msgpack:"active"`
}

// TransmitConfig is the station identity and the APRS-IS server to use.
type TransmitConfig struct {
	Callsign string `msgpack:"callsign"`
	Passcode string `msgpack:"passcode"`
	Server   string `msgpack:"server"`
	Port     int    `msgpack:"port"`
}

// Login converts the config for the APRS-IS transport.
func (c TransmitConfig) Login() aprsis.Login {
	return aprsis.Login{
		Callsign: c.Callsign,
		Passcode: c.Passcode,
		Host:     c.Server,
		Port:     c.Port,
	}
}

func (b Beacon) report() aprs.Report {
	return aprs.Report{
		Lat:     b.Lat,
		Lon:     b.Lon,
		Symbol:  aprs.ParseSymbol(b.Symbol),
		Comment: b.Text,
	}
}

// Packet returns the full line for b sent as callsign. now stamps objects
// and is ignored for position reports.
func (b Beacon) Packet(callsign string, now time.Time) string {
	if b.Type.Resolve() == TypeObject {
		return aprs.Line(callsign, aprs.ObjectPayload(b.Name, now, b.report()))
	}
	return aprs.Line(callsign, aprs.PositionPayload(b.report()))
}

// Position formats the coordinates as "lat,lon".
func (b Beacon) Position() string {
	return strconv.FormatFloat(b.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(b.Lon, 'f', -1, 64)
}

// ParsePosition reads "lat,lon" in decimal degrees. Ranges are not checked,
// but NaN and infinities are rejected.
func ParsePosition(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadPosition, s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadPosition, s)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadPosition, s)
	}
	if !finite(lat) || !finite(lon) {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadPosition, s)
	}
	return lat, lon, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
