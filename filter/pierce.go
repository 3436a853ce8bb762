package filter

import (
	"strconv"
	"strings"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
)

type pierceState struct {
	count    int
	rapid    string
	spotting bool
	scribing bool
}

// pierceLine handles a code line in pierce only mode: rapids are buffered
// and every torch on becomes a single pierce with no cut motion.
func (c *compiler) pierceLine(l gcode.Line) {
	ps := &c.pierce

	if strings.Contains(l.Code, "[axis_z]max_limit") {
		return
	}
	c.trackModes(l)
	if (l.Has('g', "0") || l.Has('g', "1")) && l.HasAny("xy") {
		c.st.FirstMove = true
	}
	if l.Has('m', "3") && !c.st.FirstMove {
		c.report(diag.SpindleOnBeforeMotion, "")
	}
	if l.HasAny("z") && !c.st.ZAxisBypass {
		if ps.count > 0 && !l.HasAny("xyabcuvw") {
			return
		}
		var commented bool
		if l, commented = c.rewriteZ(l); commented {
			return
		}
	}

	spindle, _ := l.Spindle()
	switch {
	case ps.spotting:
		if l.Has('m', "5") && spindle == "2" {
			ps.spotting = false
			c.st.FirstMove = false
		}
		return
	case ps.scribing:
		if l.Has('m', "5") && spindle == "1" {
			ps.scribing = false
			c.st.FirstMove = false
		}
		return
	}

	switch {
	case l.Has('m', "3") && spindle == "2":
		ps.spotting = true
		c.emit(ignoredSpotting)
	case l.Has('m', "3") && spindle == "1":
		ps.scribing = true
		c.emit(ignoredScribing)
	case l.Has('g', "0"):
		if x, ok := wordNumber(l, 'x'); ok {
			c.st.LastX = x
		}
		if y, ok := wordNumber(l, 'y'); ok {
			c.st.LastY = y
		}
		ps.rapid = c.pierceOffset(l).String()
	case l.Has('m', "3"):
		c.emitPierce()
	case ps.count == 0 || strings.HasPrefix(l.Code, "o") || strings.HasPrefix(l.Code, "#"):
		c.emit(l.String())
	}
}

func (c *compiler) emitPierce() {
	ps := &c.pierce
	ps.count++
	c.inject("")
	c.emit("(Pierce #" + strconv.Itoa(ps.count) + ")")
	if ps.rapid != "" {
		c.inject(ps.rapid)
	}
	c.inject("M3 $0 S1")
	c.inject("G91")
	c.inject("G1 X.000001")
	c.inject("G90")
	c.inject("M5 $0")
	ps.rapid = ""
	c.extents.add(c.st.LastX, c.st.LastY)
	c.stats.Pierces++
	c.opts.Metrics.RecordPierce()
}

// finishPierce ends a pierce only program with the last buffered rapid.
func (c *compiler) finishPierce() {
	c.inject("")
	if c.pierce.rapid != "" {
		c.inject(c.pierce.rapid)
	}
	c.inject(pierceOnlyEnd)
}

// pierceOffset adds the operator's pierce offset to the first X and Y word
// of a rapid. Both literal and bracketed values are wrapped.
func (c *compiler) pierceOffset(l gcode.Line) gcode.Line {
	tokens := append([]gcode.Token(nil), l.Tokens()...)
	changed := false
	for _, axis := range []byte("xy") {
		for i, tok := range tokens {
			if tok.IsWord(axis) {
				tokens[i].Literal = string(axis) + "[" + tok.Value + " + " + c.offsetPin(axis) + "]"
				changed = true
				break
			}
		}
	}
	if !changed {
		return l
	}
	return l.WithCode(gcode.Join(tokens))
}

func (c *compiler) offsetPin(axis byte) string {
	pin := "qtplasmac." + string(axis) + "_pierce_offset-f"
	if c.opts.GUI == "axis" {
		pin = "axisui." + string(axis) + "-pierce-offset"
	}
	return "[#<_hal[" + pin + "]> * " + formatNumber(c.st.UnitMultiplier) + "]"
}
