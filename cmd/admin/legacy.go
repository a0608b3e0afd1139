package admin

import (
	"encoding/json"
	"fmt"
	"os"

	"aprsinjector/internal/aprs"
	"aprsinjector/internal/beacon"
)

// legacyStation mirrors config.json of the earlier web-form installation.
type legacyStation struct {
	Callsign string `json:"callsign"`
	Passcode string `json:"passcode"`
	Server   string `json:"server"`
	Port     int    `json:"port"`
}

// legacyBeacon mirrors one entry of beacons.json. Absent symbol and active
// keys mean "/>" and true.
type legacyBeacon struct {
	Name     string  `json:"name"`
	Text     string  `json:"text"`
	Position string  `json:"position"`
	Symbol   *string `json:"symbol"`
	Type     string  `json:"type"`
	Active   *bool   `json:"active"`
}

func readLegacyStation(path string) (beacon.TransmitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return beacon.TransmitConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var ls legacyStation
	if err := json.Unmarshal(data, &ls); err != nil {
		return beacon.TransmitConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return beacon.TransmitConfig{
		Callsign: ls.Callsign,
		Passcode: ls.Passcode,
		Server:   ls.Server,
		Port:     ls.Port,
	}, nil
}

func readLegacyBeacons(path string) ([]beacon.Beacon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var lbs []legacyBeacon
	if err := json.Unmarshal(data, &lbs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	beacons := make([]beacon.Beacon, 0, len(lbs))
	for i, lb := range lbs {
		b, err := lb.convert()
		if err != nil {
			return nil, fmt.Errorf("%s: beacon %d (%s): %w", path, i, lb.Name, err)
		}
		beacons = append(beacons, b)
	}
	return beacons, nil
}

func (lb legacyBeacon) convert() (beacon.Beacon, error) {
	lat, lon, err := beacon.ParsePosition(lb.Position)
	if err != nil {
		return beacon.Beacon{}, err
	}
	b := beacon.Beacon{
		Name:   lb.Name,
		Text:   lb.Text,
		Lat:    lat,
		Lon:    lon,
		Symbol: aprs.ParseSymbol("").String(),
		Type:   beacon.Type(lb.Type).Resolve(),
		Active: true,
	}
	if lb.Symbol != nil {
		b.Symbol = *lb.Symbol
	}
	if lb.Active != nil {
		b.Active = *lb.Active
	}
	return b, nil
}
