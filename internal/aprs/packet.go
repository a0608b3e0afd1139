package aprs

import (
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

// Path is the routing path of every packet injected over APRS-IS.
const Path = "APRS,TCPIP*"

// ObjectNameLen is the fixed width of an object name.
const ObjectNameLen = 9

// Data type identifiers.
const (
	dtiPosition = '=' // no timestamp, messaging capable
	dtiObject   = ';'
	objectLive  = '*'
)

// Day, hour and minute in UTC, zulu suffix.
var objectTime = mustStrftime("%d%H%Mz")

func mustStrftime(pattern string) *strftime.Strftime {
	f, err := strftime.New(pattern)
	if err != nil {
		panic(err)
	}
	return f
}

// Report is the positional part shared by both packet forms.
type Report struct {
	Lat     float64
	Lon     float64
	Symbol  Symbol
	Comment string
}

func (r Report) body() string {
	return EncodePosition(r.Lat, r.Lon, r.Symbol.Table) + string(r.Symbol.Glyph) + r.Comment
}

// PositionPayload builds the information field of a position report
// without timestamp.
func PositionPayload(r Report) string {
	return string(dtiPosition) + r.body()
}

// ObjectPayload builds the information field of a live object named name,
// stamped with t in UTC.
func ObjectPayload(name string, t time.Time, r Report) string {
	var sb strings.Builder
	sb.WriteRune(dtiObject)
	sb.WriteString(ObjectName(name))
	sb.WriteRune(objectLive)
	sb.WriteString(Timestamp(t))
	sb.WriteString(r.body())
	return sb.String()
}

// ObjectName truncates name to ObjectNameLen characters and pads it
// with spaces to exactly that width.
func ObjectName(name string) string {
	r := []rune(name)
	if len(r) > ObjectNameLen {
		r = r[:ObjectNameLen]
	}
	return string(r) + strings.Repeat(" ", ObjectNameLen-len(r))
}

// Timestamp formats t as the DDHHMMz object timestamp.
func Timestamp(t time.Time) string {
	return objectTime.FormatString(t.UTC())
}

// Line prefixes payload with the source callsign and the TCPIP path.
// The line terminator is left to the transport.
func Line(source, payload string) string {
	return source + ">" + Path + ":" + payload
}
