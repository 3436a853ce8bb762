package filter

import (
	"math"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
)

// Overburn returns the point length further along the circle centred on
// (cx, cy) than (sx, sy), moving clockwise or counter-clockwise.
func Overburn(cx, cy, r, sx, sy, length float64, clockwise bool) (float64, float64) {
	angle := length / r
	if clockwise {
		angle = -angle
	}
	start := math.Atan2(sy-cy, sx-cx)
	return cx + r*math.Cos(start+angle), cy + r*math.Sin(start+angle)
}

// overburn switches the torch off at the hole end and continues along the
// hole for the overcut length.
func (c *compiler) overburn(geo arcGeometry) {
	st := c.st
	if st.OffsetCompActive {
		c.inject(";m62 p3 (inactive due to g41)")
		c.report(diag.CutterCompConflict, "torch")
	} else {
		c.inject("m62 p3 (disable torch)")
		st.TorchEnabled = false
	}

	cx, cy := geo.StartX+geo.I, geo.StartY+geo.J
	x, y := Overburn(cx, cy, geo.Radius(), geo.StartX, geo.StartY, st.OvercutLength, geo.Clockwise)

	g := "g3"
	if geo.Clockwise {
		g = "g2"
	}
	outX, outY := x, y
	if st.Incremental {
		outX, outY = x-geo.StartX, y-geo.StartY
	}
	p := st.Precision
	c.inject(g + " x" + fixed(outX, p) + " y" + fixed(outY, p) + " i" + fixed(geo.I, p) + " j" + fixed(geo.J, p) + " (overburn)")

	st.OverburnX, st.OverburnY = x-geo.EndX, y-geo.EndY
	st.OverburnPending = true
	st.LastX, st.LastY = x, y
	c.stats.Overburns++
	c.opts.Metrics.RecordOverburn()
}

// fixOverburnIncremental corrects the first incremental move after an
// overburn for the distance the torch travelled past the hole end.
func (c *compiler) fixOverburnIncremental(l gcode.Line) gcode.Line {
	st := c.st
	p := st.Precision
	x, hasX := wordNumber(l, 'x')
	y, hasY := wordNumber(l, 'y')
	if _, ok := l.Word('x'); ok && !hasX {
		return l
	}
	if _, ok := l.Word('y'); ok && !hasY {
		return l
	}

	x -= st.OverburnX
	y -= st.OverburnY
	if hasX {
		l = replaceWord(l, 'x', "x"+fixed(x, p))
	}
	if hasY {
		l = replaceWord(l, 'y', "y"+fixed(y, p))
	}
	var extra string
	if !hasX && st.OverburnX != 0 {
		extra += "x" + fixed(x, p)
	}
	if !hasY && st.OverburnY != 0 {
		extra += "y" + fixed(y, p)
	}
	if extra != "" {
		l = l.WithCode(l.Code + extra)
	}
	st.OverburnPending = false
	return l
}
