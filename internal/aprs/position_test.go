package aprs

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var positionPattern = regexp.MustCompile(`^\d{2}\d{2}\.\d{2}[NS].\d{3}\d{2}\.\d{2}[EW]$`)

func TestEncodePosition(t *testing.T) {
	tests := []struct {
		name     string
		lat      float64
		lon      float64
		table    rune
		expected string
	}{
		{
			name:     "whole degrees north east",
			lat:      51.0,
			lon:      7.0,
			table:    '/',
			expected: "5100.00N/00700.00E",
		},
		{
			name:     "south west with minutes",
			lat:      -33.5,
			lon:      -70.66,
			table:    '/',
			expected: "3330.00S/07039.60W",
		},
		{
			name:     "alternate table",
			lat:      48.1173,
			lon:      11.5167,
			table:    '\\',
			expected: "4807.04N\\01131.00E",
		},
		{
			name:     "origin",
			lat:      0,
			lon:      0,
			table:    '/',
			expected: "0000.00N/00000.00E",
		},
		{
			name:     "poles and antimeridian",
			lat:      -90,
			lon:      180,
			table:    '/',
			expected: "9000.00S/18000.00E",
		},
		{
			name:     "minutes rounding up is not carried",
			lat:      10.99999,
			lon:      -0.99999,
			table:    '/',
			expected: "1060.00N/00060.00W",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EncodePosition(tt.lat, tt.lon, tt.table))
		})
	}
}

func TestEncodePositionShape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lat := rapid.Float64Range(-90, 90).Draw(t, "lat")
		lon := rapid.Float64Range(-180, 180).Draw(t, "lon")

		pos := EncodePosition(lat, lon, '/')

		assert.Len(t, pos, PositionLen)
		assert.Regexp(t, positionPattern, pos)

		wantNS, wantEW := byte('N'), byte('E')
		if lat < 0 {
			wantNS = 'S'
		}
		if lon < 0 {
			wantEW = 'W'
		}
		assert.Equal(t, wantNS, pos[7], "latitude hemisphere for %v", lat)
		assert.Equal(t, byte('/'), pos[8])
		assert.Equal(t, wantEW, pos[17], "longitude hemisphere for %v", lon)
	})
}
