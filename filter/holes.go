package filter

import (
	"fmt"
	"math"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
)

const closeEnough = 1e-6

// arcGeometry is an arc resolved to absolute coordinates.
type arcGeometry struct {
	StartX, StartY float64
	EndX, EndY     float64
	I, J           float64
	Clockwise      bool
}

func (a arcGeometry) Radius() float64 {
	return math.Hypot(a.I, a.J)
}

// IsHole reports whether the arc ends where it started.
func (a arcGeometry) IsHole() bool {
	return math.Abs(a.EndX-a.StartX) < closeEnough && math.Abs(a.EndY-a.StartY) < closeEnough
}

// arc runs hole analysis on a g2/g3 line. It reports whether the line was
// emitted.
func (c *compiler) arc(l gcode.Line) bool {
	st := c.st
	if !st.HoleMode.Enabled() || st.ConvBlock {
		return false
	}

	for _, letter := range []byte("xyij") {
		if tok, ok := l.Word(letter); ok && tok.Kind == gcode.TokenWordExpr {
			c.report(diag.NonExplicitPositionValue, tok.Literal)
			return false
		}
	}
	if st.ArcAbsolute {
		c.report(diag.UnsupportedArcDistanceMode, "")
		return false
	}
	if st.Incremental && !st.IncrementalArcDeclared {
		c.report(diag.UnsupportedDistanceMode, "")
		return false
	}

	geo := c.geometry(l)
	isHole := geo.IsHole()
	diameter := c.holeDiameter(geo.Radius())
	reduce := diameter <= st.MinDiameter && (isHole || st.HoleMode.Arcs())

	switch {
	case reduce && st.OffsetCompActive:
		c.inject(";m67 e3 q0 (inactive due to g41)")
		c.report(diag.CutterCompConflict, "velocity")
	case reduce && !st.HoleActive:
		v := formatNumber(st.HoleVelocity)
		c.inject(fmt.Sprintf("m67 e3 q%s (diameter:%.3f, velocity:%s%%)", v, diameter, v))
		st.HoleActive = true
		c.stats.Holes++
		c.opts.Metrics.RecordHole()
	case !reduce && st.HoleActive:
		c.inject(velocityRestore)
		st.HoleActive = false
	}
	if reduce && isHole && geo.Clockwise {
		c.report(diag.HoleDirectionSuspicious, "")
	}

	l = c.checkFeed(l)
	c.emit(l.String())

	if isHole && st.HoleMode.Overcut() && diameter <= st.MinDiameter && st.OvercutLength > 0 {
		c.overburn(geo)
		return true
	}
	st.LastX, st.LastY = geo.EndX, geo.EndY
	st.OverburnPending = false
	return true
}

func (c *compiler) geometry(l gcode.Line) arcGeometry {
	st := c.st
	geo := arcGeometry{
		StartX:    st.LastX,
		StartY:    st.LastY,
		EndX:      st.LastX,
		EndY:      st.LastY,
		Clockwise: l.Has('g', "2"),
	}
	if v, ok := wordNumber(l, 'x'); ok {
		if st.Incremental {
			geo.EndX += v
		} else {
			geo.EndX = v
		}
	}
	if v, ok := wordNumber(l, 'y'); ok {
		if st.Incremental {
			geo.EndY += v
		} else {
			geo.EndY = v
		}
	}
	geo.I, _ = wordNumber(l, 'i')
	geo.J, _ = wordNumber(l, 'j')
	return geo
}

// holeDiameter is the cut diameter of an arc of radius r. Kerf is added
// unless cutter compensation already offsets the path.
func (c *compiler) holeDiameter(r float64) float64 {
	d := 2 * r
	if c.opts.KerfPolicy == KerfIgnored || c.st.OffsetCompActive {
		return d
	}
	if rec, ok := c.db.Lookup(c.st.CurrentMaterial); ok {
		d += rec.KerfWidth * c.st.UnitMultiplier
	}
	return d
}

func wordNumber(l gcode.Line, letter byte) (float64, bool) {
	tok, ok := l.Word(letter)
	if !ok {
		return 0, false
	}
	return tok.Number()
}
