package spec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadWangID = errors.New("libtmx: malformed wang id")

// ParseWangID decodes the fixed-width hexadecimal Wang id of a tile into
// eight color indexes, one per direction clockwise from the top edge.
// Index 0 means no color in that direction. Even positions address the
// edge color list, odd positions the corner color list.
func ParseWangID(s string) ([8]uint8, error) {
	var indexes [8]uint8

	hex := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return indexes, fmt.Errorf("%w: %q", ErrBadWangID, s)
	}

	for direction := range 8 {
		indexes[direction] = uint8(value >> (4 * direction) & 0xf)
	}
	return indexes, nil
}
