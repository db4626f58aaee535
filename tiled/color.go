package tiled

import "fmt"

// Color is an ARGB color as written in map documents ("#RRGGBB" or
// "#AARRGGBB"). Optional colors are represented as *Color, nil meaning the
// document did not set one.
type Color struct {
	A uint8
	R uint8
	G uint8
	B uint8
}

func (c Color) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.A, c.R, c.G, c.B)
}
