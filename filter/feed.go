package filter

import (
	"fmt"
	"math"

	"github.com/LinuxCNC/linuxcnc-sub008/diag"
	"github.com/LinuxCNC/linuxcnc-sub008/gcode"
)

const (
	feedRatePin       = "#<_hal[plasmac.cut-feed-rate]>"
	feedRateTolerance = 1.0
)

// checkFeed compares a literal feed rate with the current material and
// converts the material feed rate macro into file units.
func (c *compiler) checkFeed(l gcode.Line) gcode.Line {
	st := c.st
	tok, ok := l.Word('f')
	if !ok {
		return l
	}

	if tok.Kind == gcode.TokenWordExpr {
		if tok.Value == feedRatePin && st.UnitMultiplier != 1 {
			l = replaceWord(l, 'f', "f["+feedRatePin+"*"+formatNumber(st.UnitMultiplier)+"]")
		}
		return l
	}

	feed, ok := tok.Number()
	if !ok || c.feedWarned[st.CurrentMaterial] {
		return l
	}
	rec, ok := c.db.Lookup(st.CurrentMaterial)
	if !ok || rec.CutFeedRate == 0 {
		return l
	}
	if math.Abs(feed-rec.CutFeedRate*st.UnitMultiplier) > feedRateTolerance {
		c.feedWarned[st.CurrentMaterial] = true
		c.report(diag.FeedRateMismatch, fmt.Sprintf("F%s does not match Material_%d's feed rate of %s",
			tok.Value, st.CurrentMaterial, formatNumber(rec.CutFeedRate)))
	}
	return l
}
