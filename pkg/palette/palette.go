package palette

import "strconv"

// Color is a #RRGGBB hex string understood by the frontend.
type Color string

const (
	// Transparent means "draw nothing", e.g. a calendar cell without a border.
	Transparent Color = "transparent"
	// Neutral is the light grey used for cells without symptom data.
	Neutral Color = "#E0E0E0"
)

// IsTransparent reports whether c draws nothing.
func (c Color) IsTransparent() bool {
	return c == Transparent || c == ""
}

// RGB decodes a #RRGGBB color. ok is false for transparent or malformed values.
func (c Color) RGB() (r, g, b uint8, ok bool) {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
