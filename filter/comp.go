package filter

import (
	"strings"

	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
)

const kerfWidthPin = "#<_hal[qtplasmac.kerf_width-f]>"

// cutterComp tracks G41/G42 cutter compensation and scales a kerf width
// taken from HAL into file units.
func (c *compiler) cutterComp(l gcode.Line) gcode.Line {
	st := c.st
	for _, v := range []string{"41", "42", "41.1", "42.1"} {
		if l.Has('g', v) {
			st.OffsetCompActive = true
		}
	}
	if l.Has('g', "40") {
		st.OffsetCompActive = false
	}

	if st.UnitMultiplier != 1 && strings.Contains(l.Code, kerfWidthPin) &&
		!strings.Contains(l.Code, kerfWidthPin+"*") {
		scaled := "[" + kerfWidthPin + "*" + formatNumber(st.UnitMultiplier) + "]"
		l = l.WithCode(strings.Replace(l.Code, kerfWidthPin, scaled, 1))
	}
	return l
}
