// Package colors derives stable highlight colors for sheet names.
package colors

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Band limits for derived channel values. Colors stay away from near-black
// and near-white so highlights remain legible at partial opacity.
const (
	bandLow  = 0x40
	bandHigh = 0xC0
)

// RGB is an 8-bit-per-channel color triple.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color as an uppercase #RRGGBB string.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ForSheet derives the display color for a sheet name.
// The mapping is a pure function of the name: sha256 of the UTF-8 bytes,
// first three digest bytes each scaled into the 0x40-0xC0 band. The same
// sheet name yields the same color on every run and process.
func ForSheet(name string) RGB {
	sum := sha256.Sum256([]byte(name))
	pick := func(v byte) uint8 {
		return uint8(bandLow + int(float64(v)/255.0*float64(bandHigh-bandLow)))
	}
	return RGB{R: pick(sum[0]), G: pick(sum[1]), B: pick(sum[2])}
}

var hexRE = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// ParseHex parses a #RRGGBB string into an RGB triple.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if !hexRE.MatchString(h) {
		return RGB{}, fmt.Errorf("invalid hex color: %q", s)
	}
	r, _ := strconv.ParseUint(h[0:2], 16, 8)
	g, _ := strconv.ParseUint(h[2:4], 16, 8)
	b, _ := strconv.ParseUint(h[4:6], 16, 8)
	return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}
