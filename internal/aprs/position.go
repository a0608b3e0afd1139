// Package aprs encodes APRS position reports and objects for transmission
// to an APRS-IS server.
package aprs

import "fmt"

// PositionLen is the length of an encoded position, table character
// included and symbol glyph excluded.
const PositionLen = 18

// EncodePosition renders lat/lon as the fixed-width uncompressed APRS form
// DDMM.MMh + table + DDDMM.MMh. The symbol glyph is appended by the caller.
//
// Values are not range checked. Minutes are rounded to two decimals without
// carrying into the degrees, so 59.996' renders as "60.00".
func EncodePosition(lat, lon float64, table rune) string {
	ns := 'N'
	if lat < 0 {
		ns = 'S'
		lat = -lat
	}
	ew := 'E'
	if lon < 0 {
		ew = 'W'
		lon = -lon
	}

	latDeg := int(lat)
	latMin := (lat - float64(latDeg)) * 60
	lonDeg := int(lon)
	lonMin := (lon - float64(lonDeg)) * 60

	return fmt.Sprintf("%02d%05.2f%c%c%03d%05.2f%c", latDeg, latMin, ns, table, lonDeg, lonMin, ew)
}
